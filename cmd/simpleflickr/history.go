package main

import (
	"fmt"

	"github.com/FranksOps/simpleflickr/internal/storage"
	"github.com/spf13/cobra"
)

func historyCommand(g *globals) *cobra.Command {
	var (
		clearAll bool
		limit    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the search history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if clearAll {
				if err := a.coordinator.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "history cleared")
				return nil
			}

			recent, err := a.coordinator.RecentSearch(cmd.Context())
			if err != nil {
				return err
			}
			earlier, err := a.coordinator.SearchHistory(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(earlier) > limit {
				earlier = earlier[:limit]
			}

			if asJSON {
				return writeJSON(out, struct {
					Recent  *storage.SearchEntry   `json:"recent"`
					Earlier []*storage.SearchEntry `json:"earlier"`
				}{recent, earlier})
			}

			fmt.Fprintln(out, "Most recent:")
			if recent != nil {
				printHistory(out, []*storage.SearchEntry{recent})
			} else {
				printHistory(out, nil)
			}
			fmt.Fprintln(out, "Earlier:")
			printHistory(out, earlier)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every stored search")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many earlier searches (0 shows all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print history as JSON")
	return cmd
}
