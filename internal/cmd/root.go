// Package cmd provides the command-line interface for webingest.
// It handles command parsing, configuration loading and wiring of the
// ingestion pipeline.
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masahif/webingest/internal/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
}

// Execute builds the command tree and runs it against os.Args
func Execute() error {
	return NewRootCmd().Execute()
}

// options carries state shared by every subcommand of one command tree
type options struct {
	cfgFile string
	v       *viper.Viper
}

// NewRootCmd creates the root command with all subcommands attached. Each
// tree has its own viper instance.
func NewRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "webingest",
		Short: "Ingest websites into Markdown knowledge for AI agents",
		Long: `webingest crawls websites, converts their pages to Markdown and keeps
them in sync so AI agents can answer from their content.

Start a crawl with ingest:website, then drain the page queue with
ingest:webpages (or run serve to do both over HTTP and on a schedule).`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ./webingest.yml)")
	flags.StringP("database", "d", "./webingest.db", "Path to SQLite database file")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	flags.Duration("delay", 250*time.Millisecond, "Minimum delay between requests to one host")
	flags.StringP("user-agent", "u", config.DefaultUserAgent, "HTTP User-Agent header")
	flags.Bool("respect-robots", false, "Honour robots.txt rules")
	flags.StringSliceP("header", "H", []string{}, "Custom HTTP headers in 'Name: Value' format (use multiple times for multiple headers)")
	flags.Int("batch-size", 20, "Webpages leased per queue run")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"database_path", "database"},
		{"log.level", "log-level"},
		{"request_timeout", "timeout"},
		{"request_delay", "delay"},
		{"user_agent", "user-agent"},
		{"respect_robots", "respect-robots"},
		{"headers", "header"},
		{"batch_size", "batch-size"},
	}
	for _, bind := range bindFlags {
		// Lookup never fails for flags registered above
		_ = opts.v.BindPFlag(bind.viperKey, flags.Lookup(bind.flagName))
	}

	rootCmd.AddCommand(
		newIngestWebpagesCmd(opts),
		newIngestWebsiteCmd(opts),
		newSyncWebsiteCmd(opts),
		newSyncWebpageCmd(opts),
		newDeleteWebsiteCmd(opts),
		newDeleteWebpagesCmd(opts),
		newStatusCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func (o *options) initConfig(cmd *cobra.Command) error {
	v := o.v
	if o.cfgFile != "" {
		v.SetConfigFile(o.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("webingest")
	}

	v.SetEnvPrefix("WI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if o.cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", v.ConfigFileUsed())
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal
func setDefaults(v *viper.Viper) {
	d := config.DefaultConfig()
	defaults := map[string]any{
		"database_path":      d.DatabasePath,
		"user_agent":         d.UserAgent,
		"request_timeout":    d.RequestTimeout,
		"request_delay":      d.RequestDelay,
		"max_body_size":      d.MaxBodySize,
		"respect_robots":     d.RespectRobots,
		"headers":            d.Headers,
		"sitemap_url_limit":  d.SitemapURLLimit,
		"max_links_per_page": d.MaxLinksPerPage,
		"batch_size":         d.BatchSize,
		"lease_timeout":      d.LeaseTimeout,
		"max_scan_tries":     d.MaxScanTries,
		"enqueue_chunk_size": d.EnqueueChunkSize,
		"schedule":           d.Schedule,
		"listen_addr":        d.ListenAddr,
		"converter.command":  d.Converter.Command,
		"converter.args":     d.Converter.Args,
		"converter.timeout":  d.Converter.Timeout,

		"chunking.target_tokens": d.Chunking.TargetTokens,
		"chunking.max_tokens":    d.Chunking.MaxTokens,

		"log.level":       d.Log.Level,
		"log.file":        d.Log.File,
		"log.max_size_mb": d.Log.MaxSizeMB,
		"log.max_backups": d.Log.MaxBackups,
		"log.console":     d.Log.Console,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// loadConfig resolves flags, environment, config file and defaults
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := o.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
