package storage

const schemaSQL = `
-- Websites are crawl roots; url_hash is the SHA-256 of the normalized URL
CREATE TABLE IF NOT EXISTS ai_agent_websites (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    url_hash TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT '',
    scan_type TEXT NOT NULL DEFAULT 'full' CHECK (scan_type IN ('full', 'nested', 'single')),
    scan_pending INTEGER NOT NULL DEFAULT 0,
    scan_version INTEGER NOT NULL DEFAULT 0,
    scrape_config TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_websites_pending ON ai_agent_websites(scan_pending, updated_at);

-- Webpages double as the ingest queue:
-- scan_pending=1 and scan_started_at NULL (or older than the lease) means claimable
CREATE TABLE IF NOT EXISTS ai_agent_webpages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    website_id INTEGER NOT NULL REFERENCES ai_agent_websites(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    url_hash TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    markdown TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    fully_scanned INTEGER NOT NULL DEFAULT 0,
    scan_pending INTEGER NOT NULL DEFAULT 1,
    scan_started_at INTEGER,
    scan_tries INTEGER NOT NULL DEFAULT 0,
    scan_version INTEGER NOT NULL DEFAULT 0,
    last_full_scan_version INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE(website_id, url_hash)
);

CREATE INDEX IF NOT EXISTS idx_webpages_queue ON ai_agent_webpages(website_id, scan_pending, id);
CREATE INDEX IF NOT EXISTS idx_webpages_content_hash ON ai_agent_webpages(website_id, content_hash) WHERE content_hash != '';
CREATE INDEX IF NOT EXISTS idx_webpages_version ON ai_agent_webpages(website_id, scan_version);

CREATE TABLE IF NOT EXISTS ai_agent_website_agents (
    ai_agent_id TEXT NOT NULL,
    website_id INTEGER NOT NULL REFERENCES ai_agent_websites(id) ON DELETE CASCADE,
    PRIMARY KEY (ai_agent_id, website_id)
);

CREATE TABLE IF NOT EXISTS ai_agent_webpage_agents (
    ai_agent_id TEXT NOT NULL,
    webpage_id INTEGER NOT NULL REFERENCES ai_agent_webpages(id) ON DELETE CASCADE,
    PRIMARY KEY (ai_agent_id, webpage_id)
);

-- Chunks are polymorphic; webpage chunks go away with their webpage
CREATE TABLE IF NOT EXISTS ai_agent_chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chunkable_type TEXT NOT NULL,
    chunkable_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    heading TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    token_estimate INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_owner ON ai_agent_chunks(chunkable_type, chunkable_id, position);

CREATE TRIGGER IF NOT EXISTS trg_webpages_delete_chunks
AFTER DELETE ON ai_agent_webpages
BEGIN
    DELETE FROM ai_agent_chunks WHERE chunkable_type = 'webpage' AND chunkable_id = OLD.id;
END;
`
