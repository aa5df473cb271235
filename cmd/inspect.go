package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rssblue/auto-sitemap/sitemap"
)

// newInspectCmd creates the 'inspect' subcommand, which parses a published
// sitemap and prints a per-page summary.
func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <url-or-path>",
		Short: "Parses a sitemap document and prints its entries",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			s, err := sitemap.Import(cmd.Context(), source)
			if err != nil {
				return fmt.Errorf("import sitemap: %w", err)
			}
			a.logger.Info("Imported sitemap", zap.String("source", source), zap.Int("pages", s.Len()))

			out := cmd.OutOrStdout()
			for _, page := range s.Pages() {
				hash := page.Hash
				if hash == "" {
					hash = "(no fingerprint)"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", page.URL, page.LastMod.UTC().Format(time.RFC3339), hash)
			}
			return nil
		},
	}
}
