package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func detailsCommand(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "details <query> <index>",
		Short: "Show the photo page details of one search result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := collect(cmd.Context(), a, args[0], index/a.coordinator.PageSize()+1, false)
			if err != nil {
				return err
			}
			if index < 0 || index >= len(items) {
				return fmt.Errorf("index %d out of range, %q has %d results", index, args[0], len(items))
			}

			d, err := a.describer()
			if err != nil {
				return err
			}
			info, err := d.Describe(cmd.Context(), items[index])
			if err != nil {
				return err
			}

			view := describe(info, args[0])
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			printDetails(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print details as JSON")
	return cmd
}
