package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"clop/internal/coordinator"
	"clop/internal/fileutil"
	"clop/internal/history"
	"clop/internal/logging"
	"clop/internal/optimize"
	"clop/internal/optimize/imageopt"
	"clop/internal/optimize/pdfopt"
	"clop/internal/optimize/videoopt"
	"clop/internal/procrunner"
	"clop/internal/request"
)

func newOptimizeCommand(app *appContext) *cobra.Command {
	var (
		aggressive  bool
		removeAudio bool
		toGIF       bool
		speed       float64
		outputDir   string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "optimize <file> [file...]",
		Short: "Optimise the given media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ensureConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.HistoryDBPath(), cfg.HistoryLimit)
			if err != nil {
				logger.Warn("history unavailable, results will not be recorded", logging.Error(err))
				store = nil
			} else {
				defer store.Close()
			}

			runner := procrunner.NewExec()
			counter := fileutil.NewCounter(cfg.CounterPath())
			coord := coordinator.New(
				coordinator.Options{Workers: cfg.Workers},
				[]optimize.Optimizer{
					imageopt.New(cfg, runner, counter),
					videoopt.New(cfg, runner, counter),
					pdfopt.New(cfg, runner, counter),
				},
				store,
				logger,
			)
			defer coord.Close()

			unsubscribe := coord.Subscribe(coordinator.Events{
				ProgressChanged: func(p request.Progress) {
					logger.Debug("progress",
						logging.String(logging.FieldRequestID, p.RequestID),
						logging.Float64("percent", p.Percent),
						logging.String(logging.FieldPhase, titlePhase(p.Phase)))
				},
			})
			defer unsubscribe()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			type pending struct {
				path   string
				ticket *request.Ticket
			}
			var work []pending
			var rows [][]string

			for _, path := range args {
				abs, err := filepath.Abs(path)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", path, err)
				}
				itemType, ok := detectItemType(cfg, abs)
				if !ok {
					rows = append(rows, []string{filepath.Base(abs), string(request.StatusUnsupported), "", "unrecognised extension"})
					continue
				}

				var meta request.Metadata
				meta.Set(request.MetaSource, "cli")
				if aggressive {
					meta.Set(request.MetaAggressive, true)
				}
				if removeAudio {
					meta.Set(request.MetaRemoveAudio, true)
				}
				if toGIF {
					meta.Set(request.MetaAnimatedGIF, true)
				}
				if speed != 1 {
					meta.Set(request.MetaPlaybackSpeed, speed)
				}
				if outputDir != "" {
					meta.Set(request.MetaOutputDir, outputDir)
				}

				req, err := request.New(itemType, abs, meta)
				if err != nil {
					return err
				}
				work = append(work, pending{path: abs, ticket: coord.Enqueue(ctx, req)})
			}

			failed := false
			for _, p := range work {
				result, err := p.ticket.Wait(ctx)
				if err != nil {
					// Interrupted; the deferred Close resolves the rest.
					result, _ = p.ticket.Result()
					if result == nil {
						result = &request.Result{Status: request.StatusCancelled, Message: "interrupted"}
					}
				}
				if result.Status == request.StatusFailed {
					failed = true
				}
				rows = append(rows, []string{
					filepath.Base(p.path),
					string(result.Status),
					result.OutputPath,
					result.Message,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					{title: "File"},
					{title: "Status"},
					{title: "Output", path: true},
					{title: "Details"},
				},
				rows,
			))
			if failed {
				return fmt.Errorf("one or more files failed to optimise")
			}
			return ctx.Err()
		},
	}

	cmd.Flags().BoolVar(&aggressive, "aggressive", false, "Trade more quality for smaller output")
	cmd.Flags().BoolVar(&removeAudio, "remove-audio", false, "Drop audio streams from video output")
	cmd.Flags().BoolVar(&toGIF, "to-gif", false, "Export video as an animated GIF")
	cmd.Flags().Float64Var(&speed, "speed", 1, "Playback speed factor for video output")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Write outputs here instead of beside sources")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override the configured worker count")

	return cmd
}
