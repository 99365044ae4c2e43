package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/FranksOps/simpleflickr/internal/catalog"
	"github.com/FranksOps/simpleflickr/internal/report"
	"github.com/FranksOps/simpleflickr/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type queryResult struct {
	Query string          `json:"query"`
	Items []catalog.Image `json:"items"`
}

func searchCommand(g *globals) *cobra.Command {
	var (
		pages        int
		refresh      bool
		asJSON       bool
		reportFormat string
	)

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search one or more queries concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}
			if err := checkReportFormat(reportFormat); err != nil {
				return err
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			results := make([]queryResult, len(args))
			eg, ctx := errgroup.WithContext(cmd.Context())
			for i, arg := range args {
				query := strings.TrimSpace(arg)
				eg.Go(func() error {
					items, err := collect(ctx, a, query, pages, refresh)
					results[i] = queryResult{Query: query, Items: items}
					return err
				})
			}
			searchErr := eg.Wait()

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					fmt.Fprintf(out, "== %s (%d results)\n", r.Query, len(r.Items))
					printImages(out, 0, r.Items)
				}
			}

			if err := writeReport(cmd.ErrOrStderr(), reportFormat, report.GenerateSummary(a.recorded.Events())); err != nil {
				return err
			}
			return searchErr
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load per query")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore cached results and start from the first page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().StringVar(&reportFormat, "report", "", "Print a session report to stderr: text or json")
	return cmd
}

// collect loads up to pages pages of query and records it in history.
// Repeated queries within one run are served from the cache.
func collect(ctx context.Context, a *app, query string, pages int, refresh bool) ([]catalog.Image, error) {
	items, err := a.coordinator.Search(ctx, query, false, refresh)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if err := a.coordinator.AddRecentSearch(ctx, storage.NewSearchEntry(query)); err != nil {
		a.logger.Warn("search not recorded", "query", query, "err", err)
	}

	for loaded := loadedPages(a, query); loaded < pages; loaded++ {
		more, err := a.coordinator.Search(ctx, query, true, false)
		if err != nil {
			return items, fmt.Errorf("search %q: %w", query, err)
		}
		if len(more) == 0 {
			break
		}
		items = append(items, more...)
	}
	return items, nil
}

func loadedPages(a *app, query string) int {
	snap, ok := a.coordinator.Snapshot(query)
	switch {
	case !ok:
		return 0
	case snap.HasNext:
		return snap.NextPage - 1
	default:
		return snap.NextPage
	}
}
