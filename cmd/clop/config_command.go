package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clop/internal/config"
)

func newConfigCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *app.configFlag
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"workers", fmt.Sprintf("%d", cfg.Workers)},
				{"output_dir", collapsePath(cfg.OutputDir)},
				{"temp_dir", collapsePath(cfg.TempDir)},
				{"data_dir", collapsePath(cfg.DataDir)},
				{"history_limit", fmt.Sprintf("%d", cfg.HistoryLimit)},
				{"overwrite", fmt.Sprintf("%t", cfg.Overwrite)},
				{"log_level", cfg.LogLevel},
				{"log_format", cfg.LogFormat},
				{"image.jpeg_quality", fmt.Sprintf("%d", cfg.Image.JPEGQuality)},
				{"image.retina_max_edge", fmt.Sprintf("%d", cfg.Image.RetinaMaxEdge)},
				{"video.ffmpeg_path", cfg.Video.FFmpegPath},
				{"video.hardware_encoder", cfg.Video.HardwareEncoder},
				{"pdf.ghostscript_path", cfg.PDF.GhostscriptPath},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{{title: "Setting"}, {title: "Value"}},
				rows,
			))
			return nil
		},
	})

	return cmd
}
