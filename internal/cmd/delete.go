package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteWebsiteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete:website <website-id>",
		Short: "Delete a website with its webpages and chunks",
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

			if err := a.ingester.DeleteWebsite(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Website %d deleted.\n", id)
			return nil
		},
	}
}

func newDeleteWebpagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete:webpages <webpage-id>...",
		Short: "Delete webpages and their chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.ingester.DeleteWebpages(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d webpages.\n", len(ids))
			return nil
		},
	}
}
