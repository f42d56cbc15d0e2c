package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status [website-id]",
		Short: "Show websites and their queue state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				websites, err := a.store.ListWebsites(cmd.Context())
				if err != nil {
					return err
				}
				if len(websites) == 0 {
					fmt.Fprintln(out, "No websites.")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tURL\tSCAN TYPE\tVERSION\tCRAWLING")
				for _, w := range websites {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%t\n", w.ID, w.URL, w.ScanType, w.ScanVersion, w.ScanPending)
				}
				return tw.Flush()
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			website, err := a.ingester.Website(cmd.Context(), id)
			if err != nil {
				return err
			}
			status, err := a.ingester.WebsiteStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			agents, err := a.store.WebsiteAgents(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Website:   %d %s\n", website.ID, website.URL)
			if website.Title != "" {
				fmt.Fprintf(out, "Title:     %s\n", website.Title)
			}
			fmt.Fprintf(out, "Scan type: %s (version %d)\n", website.ScanType, website.ScanVersion)
			fmt.Fprintf(out, "Crawling:  %t\n", website.ScanPending)
			if len(agents) > 0 {
				fmt.Fprintf(out, "Agents:    %s\n", strings.Join(agents, ", "))
			}
			fmt.Fprintf(out, "Webpages:  %d total, %d pending, %d leased, %d failing\n",
				status.Total, status.Pending, status.Leased, status.Failing)
			return nil
		},
	}
}
