package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/masahif/webingest/internal/ingest"
	"github.com/masahif/webingest/internal/markdown"
	"github.com/masahif/webingest/internal/scheduler"
)

func newIngestWebpagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest:webpages",
		Short: "Process one batch of the webpage ingest queue",
		Long: `Leases a batch of pending webpages of the most recently updated website
and ingests them. Run it from cron, or several copies at once: leases keep
workers from processing the same page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			message, err := scheduler.RunOnce(cmd.Context(), a.ingester)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		},
	}
}

func newIngestWebsiteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest:website <url>",
		Short: "Start ingesting a website",
		Long: `Fetches the URL, registers the website and ingests its root page.
With scan type full or nested, sitemap entries and links are queued for
ingest:webpages.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanType, _ := cmd.Flags().GetString("scan-type")
			agentID, _ := cmd.Flags().GetString("agent")
			content, _ := cmd.Flags().GetString("content-selector")
			exclude, _ := cmd.Flags().GetString("exclude-selector")

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			website, err := a.ingester.StartWebsiteIngest(cmd.Context(), agentID, args[0], ingest.ScanType(scanType), markdown.ScrapeConfig{
				ContentCSSSelector:    content,
				CSSSelectorsToExclude: exclude,
			})
			if err != nil {
				return userError(err)
			}

			pending, err := a.store.CountPendingWebpages(cmd.Context(), website.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Website %d (%s) ingest started: scan version %d, %d webpages queued.\n",
				website.ID, website.URL, website.ScanVersion, pending)
			return nil
		},
	}

	cmd.Flags().String("scan-type", string(ingest.ScanFull), "How far to crawl: full, nested or single")
	cmd.Flags().String("agent", "", "AI agent the website is attached to")
	cmd.Flags().String("content-selector", "", "CSS selector of the main content")
	cmd.Flags().String("exclude-selector", "", "CSS selectors removed before conversion")
	return cmd
}
