package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BatchSize != 20 {
		t.Errorf("Expected batch size 20, got %d", cfg.BatchSize)
	}

	if cfg.LeaseTimeout != 10*time.Minute {
		t.Errorf("Expected lease timeout 10m, got %v", cfg.LeaseTimeout)
	}

	if cfg.MaxScanTries != 3 {
		t.Errorf("Expected max scan tries 3, got %d", cfg.MaxScanTries)
	}

	if cfg.SitemapURLLimit != 1000 {
		t.Errorf("Expected sitemap url limit 1000, got %d", cfg.SitemapURLLimit)
	}

	if cfg.MaxLinksPerPage != 100 {
		t.Errorf("Expected max links per page 100, got %d", cfg.MaxLinksPerPage)
	}

	if cfg.EnqueueChunkSize != 200 {
		t.Errorf("Expected enqueue chunk size 200, got %d", cfg.EnqueueChunkSize)
	}

	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("Expected browser-like user agent, got %s", cfg.UserAgent)
	}

	if cfg.DatabasePath != "./webingest.db" {
		t.Errorf("Expected database path './webingest.db', got %s", cfg.DatabasePath)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: ErrEmptyDatabasePath,
		},
		{
			name:    "invalid timeout",
			mutate:  func(c *Config) { c.RequestTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "invalid sitemap limit",
			mutate:  func(c *Config) { c.SitemapURLLimit = 0 },
			wantErr: ErrInvalidLimit,
		},
		{
			name:    "invalid batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name:    "invalid lease timeout",
			mutate:  func(c *Config) { c.LeaseTimeout = 0 },
			wantErr: ErrInvalidLeaseTimeout,
		},
		{
			name:    "negative scan tries",
			mutate:  func(c *Config) { c.MaxScanTries = -1 },
			wantErr: ErrInvalidScanTries,
		},
		{
			name:    "chunk target above max",
			mutate:  func(c *Config) { c.Chunking.TargetTokens = 2000 },
			wantErr: ErrInvalidChunking,
		},
		{
			name:   "negative delay is clamped",
			mutate: func(c *Config) { c.RequestDelay = -time.Second },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}

			if cfg.RequestDelay < 0 {
				t.Errorf("Expected negative delay to be clamped, got %v", cfg.RequestDelay)
			}
		})
	}
}
