package main

import (
	"github.com/spf13/cobra"

	"clop/internal/config"
)

type appContext struct {
	configFlag *string
	cfg        *config.Config
}

func (a *appContext) ensureConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(*a.configFlag)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &appContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "clop",
		Short:         "Optimise images, videos, and PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newOptimizeCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
