// Package storage provides SQLite persistence for websites, webpages, the
// webpage ingest queue and Markdown chunks.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/masahif/webingest/internal/ingest"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

const chunkableWebpage = "webpage"

const websiteColumns = `id, url, url_hash, title, language, scan_type, scan_pending,
	scan_version, scrape_config, created_at, updated_at`

const webpageColumns = `id, website_id, url, url_hash, title, markdown, content_hash,
	fully_scanned, scan_pending, scan_started_at, scan_tries, scan_version,
	last_full_scan_version, created_at, updated_at`

// SQLiteStorage implements ingest.Store using SQLite
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// foreign_keys is per connection; set it in the DSN so reconnects keep it
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool - single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	storage := &SQLiteStorage{db: db, now: time.Now}

	if err := storage.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// InitSchema creates the database schema
func (s *SQLiteStorage) InitSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000", // other worker processes share the file
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebsite(row rowScanner) (*ingest.Website, error) {
	var (
		w            ingest.Website
		scanType     string
		scrapeConfig string
		created      int64
		updated      int64
	)
	err := row.Scan(&w.ID, &w.URL, &w.URLHash, &w.Title, &w.Language, &scanType,
		&w.ScanPending, &w.ScanVersion, &scrapeConfig, &created, &updated)
	if err != nil {
		return nil, err
	}

	w.ScanType = ingest.ScanType(scanType)
	if scrapeConfig != "" {
		if err := json.Unmarshal([]byte(scrapeConfig), &w.ScrapeConfig); err != nil {
			return nil, fmt.Errorf("decode scrape_config of website %d: %w", w.ID, err)
		}
	}
	w.CreatedAt = time.Unix(0, created)
	w.UpdatedAt = time.Unix(0, updated)
	return &w, nil
}

func scanWebpage(row rowScanner) (*ingest.Webpage, error) {
	var (
		p       ingest.Webpage
		started sql.NullInt64
		created int64
		updated int64
	)
	err := row.Scan(&p.ID, &p.WebsiteID, &p.URL, &p.URLHash, &p.Title, &p.Markdown,
		&p.ContentHash, &p.FullyScanned, &p.ScanPending, &started, &p.ScanTries,
		&p.ScanVersion, &p.LastFullScanVersion, &created, &updated)
	if err != nil {
		return nil, err
	}

	if started.Valid {
		t := time.Unix(0, started.Int64)
		p.ScanStartedAt = &t
	}
	p.CreatedAt = time.Unix(0, created)
	p.UpdatedAt = time.Unix(0, updated)
	return &p, nil
}

// GetWebsite returns the website with id or ingest.ErrNotFound
func (s *SQLiteStorage) GetWebsite(ctx context.Context, id int64) (*ingest.Website, error) {
	w, err := scanWebsite(s.db.QueryRowContext(ctx,
		`SELECT `+websiteColumns+` FROM ai_agent_websites WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("website %d: %w", id, ingest.ErrNotFound)
	}
	return w, err
}

// FindWebsiteByURLHash returns nil when no website has urlHash
func (s *SQLiteStorage) FindWebsiteByURLHash(ctx context.Context, urlHash string) (*ingest.Website, error) {
	w, err := scanWebsite(s.db.QueryRowContext(ctx,
		`SELECT `+websiteColumns+` FROM ai_agent_websites WHERE url_hash = ?`, urlHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// ListWebsites returns every website, newest first
func (s *SQLiteStorage) ListWebsites(ctx context.Context) ([]*ingest.Website, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+websiteColumns+` FROM ai_agent_websites ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var websites []*ingest.Website
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, err
		}
		websites = append(websites, w)
	}
	return websites, rows.Err()
}

// SaveWebsite inserts a website without ID, otherwise updates it
func (s *SQLiteStorage) SaveWebsite(ctx context.Context, w *ingest.Website) error {
	scrapeConfig, err := json.Marshal(w.ScrapeConfig)
	if err != nil {
		return fmt.Errorf("encode scrape_config: %w", err)
	}

	now := s.now()
	w.UpdatedAt = now

	if w.ID == 0 {
		w.CreatedAt = now
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO ai_agent_websites
				(url, url_hash, title, language, scan_type, scan_pending, scan_version, scrape_config, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.URL, w.URLHash, w.Title, w.Language, string(w.ScanType), w.ScanPending,
			w.ScanVersion, string(scrapeConfig), now.UnixNano(), now.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert website: %w", err)
		}
		w.ID, err = res.LastInsertId()
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE ai_agent_websites
		SET url = ?, url_hash = ?, title = ?, language = ?, scan_type = ?, scan_pending = ?,
			scan_version = ?, scrape_config = ?, updated_at = ?
		WHERE id = ?`,
		w.URL, w.URLHash, w.Title, w.Language, string(w.ScanType), w.ScanPending,
		w.ScanVersion, string(scrapeConfig), now.UnixNano(), w.ID)
	if err != nil {
		return fmt.Errorf("failed to update website %d: %w", w.ID, err)
	}
	return nil
}

// DeleteWebsite removes a website; webpages, chunks and agent links follow
func (s *SQLiteStorage) DeleteWebsite(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM ai_agent_chunks
		WHERE chunkable_type = ? AND chunkable_id IN (SELECT id FROM ai_agent_webpages WHERE website_id = ?)`,
		chunkableWebpage, id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ai_agent_websites WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete website %d: %w", id, err)
	}

	return tx.Commit()
}

// AttachWebsiteAgent links an AI agent to a website
func (s *SQLiteStorage) AttachWebsiteAgent(ctx context.Context, websiteID int64, agentID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ai_agent_website_agents (ai_agent_id, website_id) VALUES (?, ?)`,
		agentID, websiteID)
	return err
}

// WebsiteAgents lists the agents attached to a website
func (s *SQLiteStorage) WebsiteAgents(ctx context.Context, websiteID int64) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT ai_agent_id FROM ai_agent_website_agents WHERE website_id = ? ORDER BY ai_agent_id`, websiteID)
}

// WebpageAgents lists the agents attached to a webpage
func (s *SQLiteStorage) WebpageAgents(ctx context.Context, webpageID int64) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT ai_agent_id FROM ai_agent_webpage_agents WHERE webpage_id = ? ORDER BY ai_agent_id`, webpageID)
}

func (s *SQLiteStorage) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// NextPendingWebsite returns the most recently updated crawling website, or nil
func (s *SQLiteStorage) NextPendingWebsite(ctx context.Context) (*ingest.Website, error) {
	w, err := scanWebsite(s.db.QueryRowContext(ctx, `
		SELECT `+websiteColumns+` FROM ai_agent_websites
		WHERE scan_pending = 1
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// FinishWebsite clears the crawl flag of a website
func (s *SQLiteStorage) FinishWebsite(ctx context.Context, websiteID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE ai_agent_websites SET scan_pending = 0, updated_at = ? WHERE id = ?`,
		s.now().UnixNano(), websiteID)
	return err
}

// GetWebpage returns the webpage with id or ingest.ErrNotFound
func (s *SQLiteStorage) GetWebpage(ctx context.Context, id int64) (*ingest.Webpage, error) {
	p, err := scanWebpage(s.db.QueryRowContext(ctx,
		`SELECT `+webpageColumns+` FROM ai_agent_webpages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("webpage %d: %w", id, ingest.ErrNotFound)
	}
	return p, err
}

// FindWebpageByURLHash returns nil when the website has no such page
func (s *SQLiteStorage) FindWebpageByURLHash(ctx context.Context, websiteID int64, urlHash string) (*ingest.Webpage, error) {
	p, err := scanWebpage(s.db.QueryRowContext(ctx,
		`SELECT `+webpageColumns+` FROM ai_agent_webpages WHERE website_id = ? AND url_hash = ?`,
		websiteID, urlHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// FindWebpagesByURLHashes returns the existing pages keyed by url_hash
func (s *SQLiteStorage) FindWebpagesByURLHashes(ctx context.Context, websiteID int64, urlHashes []string) (map[string]*ingest.Webpage, error) {
	found := make(map[string]*ingest.Webpage, len(urlHashes))
	if len(urlHashes) == 0 {
		return found, nil
	}

	args := make([]any, 0, len(urlHashes)+1)
	args = append(args, websiteID)
	for _, h := range urlHashes {
		args = append(args, h)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+webpageColumns+` FROM ai_agent_webpages
		WHERE website_id = ? AND url_hash IN (`+placeholders(len(urlHashes))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query webpages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		p, err := scanWebpage(rows)
		if err != nil {
			return nil, err
		}
		found[p.URLHash] = p
	}
	return found, rows.Err()
}

// ListWebpages returns the pages of a website ordered by id
func (s *SQLiteStorage) ListWebpages(ctx context.Context, websiteID int64) ([]*ingest.Webpage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+webpageColumns+` FROM ai_agent_webpages WHERE website_id = ? ORDER BY id`, websiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webpages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []*ingest.Webpage
	for rows.Next() {
		p, err := scanWebpage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ContentHashExists reports whether another page of the website, fully
// scanned in crawl version or later, has contentHash
func (s *SQLiteStorage) ContentHashExists(ctx context.Context, websiteID int64, contentHash string, excludeID, version int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ai_agent_webpages
			WHERE website_id = ? AND content_hash = ? AND id != ? AND last_full_scan_version >= ?
		)`, websiteID, contentHash, excludeID, version).Scan(&exists)
	return exists, err
}

// SaveWebpage inserts a webpage without ID, otherwise updates it
func (s *SQLiteStorage) SaveWebpage(ctx context.Context, p *ingest.Webpage) error {
	now := s.now()
	p.UpdatedAt = now

	var started any
	if p.ScanStartedAt != nil {
		started = p.ScanStartedAt.UnixNano()
	}

	if p.ID == 0 {
		p.CreatedAt = now
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO ai_agent_webpages
				(website_id, url, url_hash, title, markdown, content_hash, fully_scanned, scan_pending,
				 scan_started_at, scan_tries, scan_version, last_full_scan_version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.WebsiteID, p.URL, p.URLHash, p.Title, p.Markdown, p.ContentHash, p.FullyScanned,
			p.ScanPending, started, p.ScanTries, p.ScanVersion, p.LastFullScanVersion,
			now.UnixNano(), now.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert webpage %s: %w", p.URL, err)
		}
		p.ID, err = res.LastInsertId()
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE ai_agent_webpages
		SET title = ?, markdown = ?, content_hash = ?, fully_scanned = ?, scan_pending = ?,
			scan_started_at = ?, scan_tries = ?, scan_version = ?, last_full_scan_version = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Markdown, p.ContentHash, p.FullyScanned, p.ScanPending,
		started, p.ScanTries, p.ScanVersion, p.LastFullScanVersion, now.UnixNano(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update webpage %d: %w", p.ID, err)
	}
	return nil
}

// DeleteWebpages removes webpages; the trigger removes their chunks
func (s *SQLiteStorage) DeleteWebpages(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_agent_webpages WHERE id IN (`+placeholders(len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to delete webpages: %w", err)
	}
	return nil
}

// MarkWebpagesSeen stamps pages with the current crawl version and re-queues
// those not yet fully scanned in that crawl
func (s *SQLiteStorage) MarkWebpagesSeen(ctx context.Context, ids []int64, version int64) error {
	if len(ids) == 0 {
		return nil
	}

	args := append([]any{version, version, s.now().UnixNano()}, int64Args(ids)...)
	_, err := s.db.ExecContext(ctx, `
		UPDATE ai_agent_webpages
		SET scan_version = ?,
			scan_pending = CASE WHEN last_full_scan_version != ? THEN 1 ELSE scan_pending END,
			updated_at = ?
		WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark webpages seen: %w", err)
	}
	return nil
}

// InsertPendingWebpages bulk-inserts queued pages and returns the new ids.
// Pages that already exist are skipped.
func (s *SQLiteStorage) InsertPendingWebpages(ctx context.Context, websiteID int64, pages []ingest.NewWebpage, version int64) ([]int64, error) {
	if len(pages) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO ai_agent_webpages
			(website_id, url, url_hash, scan_pending, scan_version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, ?)
		RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now().UnixNano()
	ids := make([]int64, 0, len(pages))
	for _, p := range pages {
		var id int64
		err := stmt.QueryRowContext(ctx, websiteID, p.URL, p.URLHash, version, now, now).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert webpage %s: %w", p.URL, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AttachWebpageAgents links webpages to every agent of their website
func (s *SQLiteStorage) AttachWebpageAgents(ctx context.Context, websiteID int64, webpageIDs []int64) error {
	if len(webpageIDs) == 0 {
		return nil
	}

	args := append([]any{websiteID}, int64Args(webpageIDs)...)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO ai_agent_webpage_agents (ai_agent_id, webpage_id)
		SELECT a.ai_agent_id, p.id
		FROM ai_agent_website_agents a
		JOIN ai_agent_webpages p ON p.website_id = a.website_id
		WHERE a.website_id = ? AND p.id IN (`+placeholders(len(webpageIDs))+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to attach agents: %w", err)
	}
	return nil
}

// CountPendingWebpages counts queued or leased pages of a website
func (s *SQLiteStorage) CountPendingWebpages(ctx context.Context, websiteID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ai_agent_webpages WHERE website_id = ? AND scan_pending = 1`,
		websiteID).Scan(&n)
	return n, err
}

// LeaseWebpages claims up to limit pending pages whose lease is free or older
// than cutoff. The claim is a single conditional UPDATE, so two workers never
// receive the same page within one lease period.
func (s *SQLiteStorage) LeaseWebpages(ctx context.Context, websiteID int64, limit int, now, cutoff time.Time) ([]*ingest.Webpage, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE ai_agent_webpages
		SET scan_started_at = ?, updated_at = ?
		WHERE id IN (
			SELECT id FROM ai_agent_webpages
			WHERE website_id = ? AND scan_pending = 1
			  AND (scan_started_at IS NULL OR scan_started_at < ?)
			ORDER BY id
			LIMIT ?
		)
		RETURNING `+webpageColumns,
		now.UnixNano(), now.UnixNano(), websiteID, cutoff.UnixNano(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to lease webpages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []*ingest.Webpage
	for rows.Next() {
		p, err := scanWebpage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING order is unspecified
	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })
	return pages, nil
}

// DeleteStaleWebpages removes pages not seen in crawl version
func (s *SQLiteStorage) DeleteStaleWebpages(ctx context.Context, websiteID int64, version int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_agent_webpages WHERE website_id = ? AND scan_version < ?`, websiteID, version)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale webpages: %w", err)
	}
	return res.RowsAffected()
}

// WebsiteStatus counts the pages of a website by queue state
func (s *SQLiteStorage) WebsiteStatus(ctx context.Context, websiteID int64, cutoff time.Time) (*ingest.WebsiteStatus, error) {
	var st ingest.WebsiteStatus
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(scan_pending), 0),
			COALESCE(SUM(CASE WHEN scan_pending = 1 AND scan_started_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN scan_pending = 1 AND scan_tries > 0 THEN 1 ELSE 0 END), 0)
		FROM ai_agent_webpages
		WHERE website_id = ?`, cutoff.UnixNano(), websiteID).Scan(&st.Total, &st.Pending, &st.Leased, &st.Failing)
	if err != nil {
		return nil, fmt.Errorf("failed to get website status: %w", err)
	}
	return &st, nil
}

// ReplaceChunks swaps the chunks of a webpage in one transaction
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, webpageID int64, chunks []ingest.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ai_agent_chunks WHERE chunkable_type = ? AND chunkable_id = ?`,
		chunkableWebpage, webpageID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ai_agent_chunks
				(chunkable_type, chunkable_id, position, heading, content, token_estimate, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := s.now().UnixNano()
		for _, c := range chunks {
			if _, err := stmt.ExecContext(ctx, chunkableWebpage, webpageID, c.Position,
				c.Heading, c.Content, c.TokenEstimate, now); err != nil {
				return fmt.Errorf("failed to insert chunk %d: %w", c.Position, err)
			}
		}
	}

	return tx.Commit()
}

// Chunks returns the chunks of a webpage in order
func (s *SQLiteStorage) Chunks(ctx context.Context, webpageID int64) ([]ingest.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chunkable_id, position, heading, content, token_estimate
		FROM ai_agent_chunks
		WHERE chunkable_type = ? AND chunkable_id = ?
		ORDER BY position`, chunkableWebpage, webpageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []ingest.Chunk
	for rows.Next() {
		var c ingest.Chunk
		if err := rows.Scan(&c.ID, &c.WebpageID, &c.Position, &c.Heading, &c.Content, &c.TokenEstimate); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
