package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/masahif/webingest/internal/chunker"
	"github.com/masahif/webingest/internal/config"
	"github.com/masahif/webingest/internal/ingest"
	"github.com/masahif/webingest/internal/logging"
	"github.com/masahif/webingest/internal/markdown"
	"github.com/masahif/webingest/internal/scraper"
	"github.com/masahif/webingest/internal/sitemap"
	"github.com/masahif/webingest/internal/storage"
)

// app is the wired ingestion pipeline behind every command
type app struct {
	cfg      *config.Config
	store    *storage.SQLiteStorage
	scraper  *scraper.Scraper
	ingester *ingest.Ingester
	logs     io.Closer
}

// newApp loads the configuration and wires logging, storage, scraping,
// conversion and chunking together
func (o *options) newApp() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logs, err := logging.SetDefault(logging.FromConfig(cfg.Log))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	pages := scraper.New(cfg)
	extractor := markdown.NewExtractor(markdown.NewConverter(cfg.Converter))
	chunks := chunker.New(store, cfg.Chunking)

	return &app{
		cfg:      cfg,
		store:    store,
		scraper:  pages,
		ingester: ingest.New(cfg, store, pages, sitemap.New(pages.Client(), cfg.SitemapURLLimit), extractor, chunks),
		logs:     logs,
	}, nil
}

// Close releases the database, HTTP connections and log file
func (a *app) Close() error {
	a.scraper.Close()
	return errors.Join(a.store.Close(), a.logs.Close())
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// userError turns a validation failure into the message shown to operators
func userError(err error) error {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%s: %s", verr.Field, verr.Message)
	}
	return err
}
