package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncWebsiteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync:website <website-id>",
		Short: "Re-crawl a website with its stored settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			website, err := a.ingester.SyncWebsite(cmd.Context(), id)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Website %d sync started: scan version %d.\n", website.ID, website.ScanVersion)
			return nil
		},
	}
}

func newSyncWebpageCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync:webpage <webpage-id>",
		Short: "Re-scrape one webpage now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			page, err := a.ingester.SyncWebpage(cmd.Context(), id)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Webpage %d synced (%s).\n", page.ID, page.URL)
			return nil
		},
	}
}
