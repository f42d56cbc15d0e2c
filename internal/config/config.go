// Package config provides configuration management for the ingester.
// It defines configuration structures and default values for crawling,
// queue processing, conversion and logging.
package config

import (
	"time"
)

// ConverterConfig configures the external document parser used to turn HTML into Markdown.
// An empty Command selects the built-in sanitize-and-convert path only.
type ConverterConfig struct {
	Command string        `mapstructure:"command" yaml:"command"` // Executable reading HTML on stdin, e.g. markitdown
	Args    []string      `mapstructure:"args" yaml:"args"`       // Extra arguments passed to Command
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"` // Per-document conversion timeout
}

// ChunkingConfig controls how Markdown is split into chunks
type ChunkingConfig struct {
	TargetTokens int `mapstructure:"target_tokens" yaml:"target_tokens"`
	MaxTokens    int `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// LogConfig mirrors logging.Config in a viper friendly shape
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int64  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Console    bool   `mapstructure:"console" yaml:"console"`
}

// Config holds the ingester configuration
type Config struct {
	// Database configuration
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // Path to SQLite database file

	// Fetching
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // Browser-like User-Agent header
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // HTTP request timeout
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"`     // Minimum delay between requests to one host
	MaxBodySize    int64         `mapstructure:"max_body_size" yaml:"max_body_size"`     // Response bodies are truncated beyond this
	RespectRobots  bool          `mapstructure:"respect_robots" yaml:"respect_robots"`   // Whether to honour robots.txt
	Headers        []string      `mapstructure:"headers" yaml:"headers"`                 // Extra "Name: Value" request headers

	// Discovery
	SitemapURLLimit int `mapstructure:"sitemap_url_limit" yaml:"sitemap_url_limit"`   // Max URLs taken from sitemaps
	MaxLinksPerPage int `mapstructure:"max_links_per_page" yaml:"max_links_per_page"` // Max links enqueued per scraped page

	// Queue
	BatchSize        int           `mapstructure:"batch_size" yaml:"batch_size"`                 // Pages leased per queue run
	LeaseTimeout     time.Duration `mapstructure:"lease_timeout" yaml:"lease_timeout"`           // Leases older than this are reclaimable
	MaxScanTries     int           `mapstructure:"max_scan_tries" yaml:"max_scan_tries"`         // Failures tolerated before a page is deleted
	EnqueueChunkSize int           `mapstructure:"enqueue_chunk_size" yaml:"enqueue_chunk_size"` // URLs per bulk enqueue statement

	// Serving
	Schedule   string `mapstructure:"schedule" yaml:"schedule"`       // Cron expression for the queue drain
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"` // HTTP API listen address

	Converter ConverterConfig `mapstructure:"converter" yaml:"converter"`
	Chunking  ChunkingConfig  `mapstructure:"chunking" yaml:"chunking"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// DefaultUserAgent looks like a desktop browser; many sites refuse obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:     "./webingest.db",
		UserAgent:        DefaultUserAgent,
		RequestTimeout:   30 * time.Second,
		RequestDelay:     250 * time.Millisecond,
		MaxBodySize:      10 << 20,
		RespectRobots:    false,
		SitemapURLLimit:  1000,
		MaxLinksPerPage:  100,
		BatchSize:        20,
		LeaseTimeout:     10 * time.Minute,
		MaxScanTries:     3,
		EnqueueChunkSize: 200,
		Schedule:         "* * * * *",
		ListenAddr:       ":8080",
		Converter: ConverterConfig{
			Timeout: 30 * time.Second,
		},
		Chunking: ChunkingConfig{
			TargetTokens: 500,
			MaxTokens:    1000,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			Console:    true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestDelay < 0 {
		c.RequestDelay = 0
	}

	if c.SitemapURLLimit <= 0 || c.MaxLinksPerPage <= 0 {
		return ErrInvalidLimit
	}

	if c.BatchSize <= 0 || c.EnqueueChunkSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.LeaseTimeout <= 0 {
		return ErrInvalidLeaseTimeout
	}

	if c.MaxScanTries < 0 {
		return ErrInvalidScanTries
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidBodySize
	}

	if c.Chunking.TargetTokens <= 0 || c.Chunking.MaxTokens < c.Chunking.TargetTokens {
		return ErrInvalidChunking
	}

	return nil
}
