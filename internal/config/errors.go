package config

import "errors"

var (
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidLimit is returned when a discovery limit is not greater than 0
	ErrInvalidLimit = errors.New("sitemap_url_limit and max_links_per_page must be greater than 0")
	// ErrInvalidBatchSize is returned when a queue batch size is not greater than 0
	ErrInvalidBatchSize = errors.New("batch_size and enqueue_chunk_size must be greater than 0")
	// ErrInvalidLeaseTimeout is returned when lease timeout is not greater than 0
	ErrInvalidLeaseTimeout = errors.New("lease_timeout must be greater than 0")
	// ErrInvalidScanTries is returned when max_scan_tries is negative
	ErrInvalidScanTries = errors.New("max_scan_tries cannot be negative")
	// ErrInvalidBodySize is returned when max_body_size is not greater than 0
	ErrInvalidBodySize = errors.New("max_body_size must be greater than 0")
	// ErrInvalidChunking is returned when chunk token sizes are inconsistent
	ErrInvalidChunking = errors.New("chunking.target_tokens must be > 0 and <= chunking.max_tokens")
)
