package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rssblue/auto-sitemap/crawler"
	"github.com/rssblue/auto-sitemap/sitemap"
)

// newGenerateCmd creates the 'generate' subcommand. It crawls the website,
// merges the result with the previously published sitemap, and writes the
// combined document.
func newGenerateCmd(a *app) *cobra.Command {
	var (
		seedURL   string
		oldSource string
		output    string
		newDomain string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Crawls a website and writes its sitemap",
		Long: `Crawls every page reachable from the seed URL, fingerprints each page's
content, and combines the result with a previously published sitemap so that
unchanged pages keep their old lastmod date.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), a, seedURL, oldSource, output, newDomain)
		},
	}

	cmd.Flags().StringVar(&seedURL, "seed", "", "seed URL of the website to crawl (required)")
	cmd.Flags().StringVar(&oldSource, "old", "", "URL or file path of the previously published sitemap")
	cmd.Flags().StringVar(&output, "output", "", "output path, '-' for stdout (default from config)")
	cmd.Flags().StringVar(&newDomain, "domain", "", "rewrite page URLs to this scheme://host[:port] before writing")
	_ = cmd.MarkFlagRequired("seed") //nolint:errcheck // flag is registered above

	return cmd
}

func runGenerate(ctx context.Context, a *app, seedURL, oldSource, output, newDomain string) error {
	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run_id", runID))

	logger.Info("Starting crawl", zap.String("seed", seedURL))
	newSitemap, err := sitemap.GenerateByCrawling(ctx, seedURL, crawler.Config{
		UserAgent:      a.cfg.Crawler.UserAgent,
		MaxDepth:       a.cfg.Crawler.MaxDepth,
		Concurrency:    a.cfg.Crawler.Concurrency,
		Delay:          a.cfg.Crawler.Delay(),
		RequestTimeout: a.cfg.Crawler.RequestTimeout(),
		RespectRobots:  a.cfg.Crawler.RespectRobots,
	}, logger)
	if err != nil {
		return fmt.Errorf("generate sitemap: %w", err)
	}
	logger.Info("Crawl finished", zap.Int("pages", newSitemap.Len()))

	// Rewrite to the deployed domain before combining so locations line up
	// with the previously published document.
	if newDomain != "" {
		if err := newSitemap.UpdateDomain(newDomain); err != nil {
			return fmt.Errorf("update domain: %w", err)
		}
	}

	oldSitemap, err := importOldSitemap(ctx, logger, oldSource)
	if err != nil {
		return err
	}

	info := newSitemap.CombineWithOldSitemap(oldSitemap)
	logger.Info("Combined with old sitemap",
		zap.Int("new", len(info.NewPages)),
		zap.Int("updated", len(info.UpdatedPages)),
		zap.Int("unchanged", len(info.UnchangedPages)),
		zap.Int("removed", len(info.RemovedPages)),
	)

	newSitemap.SortByURL()

	if output == "" {
		output = a.cfg.Output.Path
	}
	if err := writeSitemap(newSitemap, output); err != nil {
		return err
	}
	logger.Info("Sitemap written", zap.String("output", output))
	return nil
}

// importOldSitemap loads the previous sitemap. A transport failure (e.g. the
// first run, when no document has been published yet) downgrades to an empty
// old sitemap; a document that exists but cannot be parsed is a hard error.
func importOldSitemap(ctx context.Context, logger *zap.Logger, oldSource string) (*sitemap.Sitemap, error) {
	if oldSource == "" {
		return sitemap.New(), nil
	}
	old, err := sitemap.Import(ctx, oldSource)
	if err != nil {
		if errors.Is(err, sitemap.ErrFetch) {
			logger.Warn("Old sitemap unavailable, starting fresh",
				zap.String("old", oldSource),
				zap.Error(err),
			)
			return sitemap.New(), nil
		}
		return nil, fmt.Errorf("import old sitemap: %w", err)
	}
	logger.Info("Imported old sitemap", zap.String("old", oldSource), zap.Int("pages", old.Len()))
	return old, nil
}

func writeSitemap(s *sitemap.Sitemap, output string) error {
	if output == "-" {
		if err := s.Serialize(os.Stdout); err != nil {
			return fmt.Errorf("serialize sitemap: %w", err)
		}
		fmt.Println()
		return nil
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := s.Serialize(f); err != nil {
		_ = f.Close() //nolint:errcheck
		return fmt.Errorf("serialize sitemap: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", output, err)
	}
	return nil
}
