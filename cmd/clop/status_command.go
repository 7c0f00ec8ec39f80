package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"clop/internal/history"
)

func newStatusCommand(app *appContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status [request-id]",
		Short: "Show recent optimisation results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryDBPath(), cfg.HistoryLimit)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				entry, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("no result recorded for %s", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]column{{title: "Field"}, {title: "Value"}},
					[][]string{
						{"Request", entry.RequestID},
						{"Type", string(entry.ItemType)},
						{"Status", string(entry.Status)},
						{"Source", collapsePath(entry.SourcePath)},
						{"Output", collapsePath(entry.OutputPath)},
						{"Details", entry.Message},
						{"Finished", entry.FinishedAt.Local().Format("2006-01-02 15:04:05")},
					},
				))
				return nil
			}

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					shortID(e.RequestID),
					string(e.ItemType),
					string(e.Status),
					filepath.Base(e.SourcePath),
					e.Message,
					e.FinishedAt.Local().Format("15:04:05"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					{title: "Request"},
					{title: "Type"},
					{title: "Status"},
					{title: "File"},
					{title: "Details"},
					{title: "Finished", align: alignRight},
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results to show")

	return cmd
}
