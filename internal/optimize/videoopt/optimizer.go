package videoopt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clop/internal/config"
	"clop/internal/fileutil"
	"clop/internal/logging"
	"clop/internal/optimize"
	"clop/internal/procrunner"
	"clop/internal/request"
)

const component = "video"

// Optimizer implements the video path of the optimisation contract.
type Optimizer struct {
	cfg       config.VideoConfig
	tempDir   string
	outputDir string
	overwrite bool
	counter   *fileutil.Counter
	runner    procrunner.Runner
}

// New constructs the video optimiser around the given process runner.
func New(cfg *config.Config, runner procrunner.Runner, counter *fileutil.Counter) *Optimizer {
	return &Optimizer{
		cfg:       cfg.Video,
		tempDir:   cfg.TempDir,
		outputDir: cfg.OutputDir,
		overwrite: cfg.Overwrite,
		counter:   counter,
		runner:    runner,
	}
}

// ItemType implements optimize.Optimizer.
func (o *Optimizer) ItemType() request.ItemType { return request.ItemVideo }

// Optimize transcodes the source, preferring the hardware encoder when
// enabled and falling back to software on failure.
func (o *Optimizer) Optimize(ctx context.Context, req *request.Request, run *optimize.Run) (*request.Result, error) {
	src := req.SourcePath
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil, optimize.Wrap(optimize.ErrNotFound, component, "stat source", src, nil)
		}
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat source", "", err)
	}
	ext := fileutil.Ext(src)
	if !supportedExt(o.cfg.SupportedExtensions, ext) {
		return nil, optimize.Wrap(optimize.ErrUnsupported, component, "input check",
			fmt.Sprintf("extension %q not supported", ext), nil)
	}
	srcSize, err := fileutil.FileSize(src)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat source", "", err)
	}

	run.Progress(3, "probing")
	info, err := Probe(ctx, o.runner, o.cfg.FFprobePath, src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	removeAudio := req.Metadata.Bool(request.MetaRemoveAudio, false)
	toGIF := req.Metadata.Bool(request.MetaAnimatedGIF, false)
	aggressive := req.Metadata.Bool(request.MetaAggressive, false)
	speed := req.Metadata.Float(request.MetaPlaybackSpeed, 1)
	if speed <= 0 {
		return nil, optimize.Wrap(optimize.ErrInvalidInput, component, "input check",
			fmt.Sprintf("playback speed %g not positive", speed), nil)
	}

	tmpDir, err := fileutil.NewTempDir(o.tempDir)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "temp dir", "", err)
	}
	defer os.RemoveAll(tmpDir)

	outExt := ext
	if toGIF {
		outExt = "gif"
	}
	tmpOut := filepath.Join(tmpDir, "out."+outExt)

	crf := o.cfg.CRF
	if aggressive {
		crf = o.cfg.AggressiveCRF
	}
	capFPS := 0
	if o.cfg.MaxFPS > 0 && info.FrameRate > float64(o.cfg.MaxFPS) {
		capFPS = o.cfg.MaxFPS
	}

	spec := encodeSpec{
		input:       src,
		output:      tmpOut,
		encoder:     o.cfg.Encoder,
		crf:         crf,
		preset:      o.cfg.Preset,
		removeAudio: removeAudio,
		hasAudio:    info.HasAudio,
		speed:       speed,
		capFPS:      capFPS,
		gif:         toGIF,
		gifMaxWidth: o.cfg.GIFMaxWidth,
		gifFPS:      o.cfg.GIFFPS,
	}

	// Playback speed compresses or stretches the output timeline; scale
	// progress against the adjusted duration.
	effectiveDuration := info.DurationSeconds / speed

	if o.cfg.HardwareAccel && !toGIF {
		hwSpec := spec
		hwSpec.encoder = o.cfg.HardwareEncoder
		hwSpec.hardware = true
		if err := o.transcode(ctx, run, hwSpec, effectiveDuration, "transcoding (hardware)"); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			run.Logger().Warn("hardware encode failed, falling back to software",
				logging.String("encoder", o.cfg.HardwareEncoder),
				logging.Error(err))
			_ = os.Remove(tmpOut)
		} else if outputUsable(tmpOut) {
			return o.finish(req, run, src, srcSize, tmpOut, outExt, removeAudio, speed, toGIF)
		}
	}

	phase := "transcoding"
	if toGIF {
		phase = "exporting animation"
	}
	if err := o.transcode(ctx, run, spec, effectiveDuration, phase); err != nil {
		return nil, err
	}
	if !outputUsable(tmpOut) {
		return nil, optimize.Wrap(optimize.ErrProcessFailure, component, "transcode",
			"encoder produced no usable output", nil)
	}
	return o.finish(req, run, src, srcSize, tmpOut, outExt, removeAudio, speed, toGIF)
}

func (o *Optimizer) transcode(ctx context.Context, run *optimize.Run, spec encodeSpec, durationSeconds float64, phase string) error {
	scraper := &progressScraper{
		durationSeconds: durationSeconds,
		report: func(percent float64) {
			// Reserve the tail for promotion.
			run.Progress(5+percent*0.9, phase)
		},
	}
	result, err := o.runner.Run(ctx, procrunner.Command{
		Path:     o.cfg.FFmpegPath,
		Args:     buildArgs(spec),
		OnStdout: scraper.Line,
	})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return optimize.Wrap(optimize.ErrProcessFailure, component, "transcode",
			stderrTail(result.Stderr), nil)
	}
	return nil
}

func (o *Optimizer) finish(req *request.Request, run *optimize.Run, src string, srcSize int64, tmpOut, outExt string, removeAudio bool, speed float64, toGIF bool) (*request.Result, error) {
	encodedSize, err := fileutil.FileSize(tmpOut)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat encoded", "", err)
	}

	// A plain re-encode that grew the file keeps the original. Requested
	// transformations (audio removal, speed change, GIF export) are kept
	// even when larger.
	transformed := removeAudio || toGIF || speed != 1
	if !transformed && encodedSize >= srcSize {
		return &request.Result{
			RequestID:  req.ID,
			Status:     request.StatusSucceeded,
			OutputPath: src,
			Message:    optimize.MsgKeptOriginal,
		}, nil
	}

	run.Progress(97, "finalizing")
	outPath, err := optimize.Promote(optimize.PromoteOptions{
		Source:    src,
		Temp:      tmpOut,
		Ext:       outExt,
		OutputDir: req.Metadata.String(request.MetaOutputDir, o.outputDir),
		Overwrite: o.overwrite,
		Counter:   o.counter,
	})
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "promote", "", err)
	}
	if o.cfg.PreserveTimestamps {
		if err := fileutil.CopyTimestamps(src, outPath); err != nil {
			run.Logger().Warn("timestamp preservation failed", logging.Error(err))
		}
	}

	run.Progress(100, "done")
	return &request.Result{
		RequestID:  req.ID,
		Status:     request.StatusSucceeded,
		OutputPath: outPath,
		Message:    optimize.SavingsMessage(srcSize, encodedSize),
	}, nil
}

func outputUsable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func supportedExt(values []string, ext string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), ext) {
			return true
		}
	}
	return false
}

// stderrTail keeps the most recent diagnostic lines for result messages.
func stderrTail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var _ optimize.Optimizer = (*Optimizer)(nil)
