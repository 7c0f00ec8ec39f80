package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clop/internal/deps"
)

func newDoctorCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the external tools the optimisers depend on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			missing := false
			for _, s := range statuses {
				state := "ok"
				if !s.Available {
					if s.Optional {
						state = "missing (optional)"
					} else {
						state = "missing"
						missing = true
					}
				}
				rows = append(rows, []string{s.Name, s.Command, state, s.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					{title: "Dependency"},
					{title: "Command", path: true},
					{title: "State"},
					{title: "Detail"},
				},
				rows,
			))
			if missing {
				return fmt.Errorf("required dependencies are missing")
			}
			return nil
		},
	}
}
