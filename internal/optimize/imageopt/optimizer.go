package imageopt

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"clop/internal/config"
	"clop/internal/fileutil"
	"clop/internal/logging"
	"clop/internal/optimize"
	"clop/internal/procrunner"
	"clop/internal/request"
)

const component = "image"

// Optimizer implements the image path of the optimisation contract.
type Optimizer struct {
	cfg       config.ImageConfig
	tempDir   string
	outputDir string
	overwrite bool
	counter   *fileutil.Counter
	runner    procrunner.Runner
}

// New constructs the image optimiser. runner is only used for the optional
// external PNG optimizer pass and may be nil.
func New(cfg *config.Config, runner procrunner.Runner, counter *fileutil.Counter) *Optimizer {
	return &Optimizer{
		cfg:       cfg.Image,
		tempDir:   cfg.TempDir,
		outputDir: cfg.OutputDir,
		overwrite: cfg.Overwrite,
		counter:   counter,
		runner:    runner,
	}
}

// ItemType implements optimize.Optimizer.
func (o *Optimizer) ItemType() request.ItemType { return request.ItemImage }

// Optimize re-encodes the source image per the configured policy.
func (o *Optimizer) Optimize(ctx context.Context, req *request.Request, run *optimize.Run) (*request.Result, error) {
	src := req.SourcePath
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil, optimize.Wrap(optimize.ErrNotFound, component, "stat source", src, nil)
		}
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat source", "", err)
	}
	ext := fileutil.Ext(src)
	if !extIn(o.cfg.SupportedExtensions, ext) {
		return nil, optimize.Wrap(optimize.ErrUnsupported, component, "input check",
			fmt.Sprintf("extension %q not supported", ext), nil)
	}
	srcSize, err := fileutil.FileSize(src)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat source", "", err)
	}

	run.Progress(2, "analyzing")
	info, err := Analyze(src)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInvalidInput, component, "decode header", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if info.Animated {
		return o.optimizeAnimated(ctx, req, run, src, srcSize)
	}

	run.Progress(10, "decoding")
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInvalidInput, component, "decode", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hasAlpha := info.AlphaModel && hasAlphaPixel(img)

	aggressive := req.Metadata.Bool(request.MetaAggressive, false)
	profile := chooseProfile(o.cfg, ext, hasAlpha, false, aggressive)

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	targetW, targetH := width, height
	if o.cfg.DownscaleRetina {
		targetW, targetH = evenDimensions(width, height, o.cfg.RetinaMaxEdge)
	}
	needsDownscale := targetW != width || targetH != height

	// Idempotence: a source already in its target lossless form with
	// nothing to resize and no metadata to strip is left untouched.
	if sameFormat(ext, profile) && profile.Lossless() && !needsDownscale &&
		(o.cfg.PreserveMetadata || !hasStrippableMetadata(src, ext)) {
		return o.succeed(req, src, optimize.MsgNoOp), nil
	}

	if needsDownscale {
		run.Progress(25, "resizing")
		img = imaging.Resize(img, targetW, targetH, imaging.Lanczos)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	tmpDir, err := fileutil.NewTempDir(o.tempDir)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "temp dir", "", err)
	}
	defer os.RemoveAll(tmpDir)

	var auxSegments [][]byte
	if o.cfg.PreserveMetadata && profile.Format == FormatJPEG && sameFormat(ext, profile) {
		if segments, segErr := readAuxSegments(src); segErr == nil {
			auxSegments = segments
		} else {
			run.Logger().Warn("metadata segments unreadable, continuing without",
				logging.Error(segErr))
		}
	}

	run.Progress(40, "encoding")
	tmpOut := filepath.Join(tmpDir, "encoded."+profile.Ext)
	if err := o.encodeWithMetadata(img, profile, tmpOut, auxSegments); err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "encode", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if profile.Format == FormatPNG {
		o.externalPNGPass(ctx, run, tmpOut, aggressive)
	}

	encodedSize, err := fileutil.FileSize(tmpOut)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat encoded", "", err)
	}

	if o.cfg.RequireImprovement && encodedSize >= srcSize {
		if profile.Format != FormatJPEG {
			return o.succeed(req, src, optimize.MsgKeptOriginal), nil
		}
		best, err := o.bisectQuality(ctx, run, img, profile, tmpDir, auxSegments, srcSize)
		if err != nil {
			return nil, err
		}
		if best == nil {
			return o.succeed(req, src, optimize.MsgKeptOriginal), nil
		}
		tmpOut = best.Path
		encodedSize = best.Size
	}

	run.Progress(92, "finalizing")
	outPath, err := optimize.Promote(optimize.PromoteOptions{
		Source:    src,
		Temp:      tmpOut,
		Ext:       profile.Ext,
		OutputDir: req.Metadata.String(request.MetaOutputDir, o.outputDir),
		Overwrite: o.overwrite,
		Counter:   o.counter,
	})
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "promote", "", err)
	}

	run.Progress(100, "done")
	return o.succeed(req, outPath, optimize.SavingsMessage(srcSize, encodedSize)), nil
}

// optimizeAnimated normalises a multi-frame GIF in place.
func (o *Optimizer) optimizeAnimated(ctx context.Context, req *request.Request, run *optimize.Run, src string, srcSize int64) (*request.Result, error) {
	run.Progress(10, "decoding frames")
	file, err := os.Open(src)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "open source", "", err)
	}
	g, err := gif.DecodeAll(file)
	file.Close()
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInvalidInput, component, "decode animation", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpDir, err := fileutil.NewTempDir(o.tempDir)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "temp dir", "", err)
	}
	defer os.RemoveAll(tmpDir)

	run.Progress(40, "encoding frames")
	tmpOut := filepath.Join(tmpDir, "encoded.gif")
	if err := encodeAnimated(g, tmpOut); err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "encode animation", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encodedSize, err := fileutil.FileSize(tmpOut)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat encoded", "", err)
	}
	if o.cfg.RequireImprovement && encodedSize >= srcSize {
		return o.succeed(req, src, optimize.MsgKeptOriginal), nil
	}

	run.Progress(92, "finalizing")
	outPath, err := optimize.Promote(optimize.PromoteOptions{
		Source:    src,
		Temp:      tmpOut,
		Ext:       "gif",
		OutputDir: req.Metadata.String(request.MetaOutputDir, o.outputDir),
		Overwrite: o.overwrite,
		Counter:   o.counter,
	})
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "promote", "", err)
	}

	run.Progress(100, "done")
	return o.succeed(req, outPath, optimize.SavingsMessage(srcSize, encodedSize)), nil
}

// bisectQuality searches [minFallback, quality-1] for the smallest JPEG
// strictly under the source size.
func (o *Optimizer) bisectQuality(ctx context.Context, run *optimize.Run, img image.Image, profile Profile, tmpDir string, auxSegments [][]byte, srcSize int64) (*Candidate, error) {
	lo := o.cfg.MinFallbackQuality
	hi := profile.Quality - 1
	if lo > hi {
		return nil, nil
	}

	span := float64(hi - lo + 1)
	maxProbes := math.Ceil(math.Log2(span)) + 1
	probed := 0
	probe := func(quality int) (string, int64, error) {
		probed++
		percent := 45 + 40*float64(probed)/maxProbes
		run.Progress(percent, fmt.Sprintf("probing quality %d", quality))
		path := filepath.Join(tmpDir, fmt.Sprintf("probe-q%d.jpg", quality))
		trial := profile
		trial.Quality = quality
		if err := o.encodeWithMetadata(img, trial, path, auxSegments); err != nil {
			return "", 0, err
		}
		size, err := fileutil.FileSize(path)
		if err != nil {
			return "", 0, err
		}
		return path, size, nil
	}

	best, probes, err := SearchQuality(ctx, srcSize, lo, hi, probe)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, optimize.Wrap(optimize.ErrInternal, component, "quality search", "", err)
	}
	run.Logger().Debug("quality search finished",
		logging.Int("probes", probes),
		logging.Bool("improved", best != nil))
	return best, nil
}

func (o *Optimizer) encodeWithMetadata(img image.Image, profile Profile, path string, auxSegments [][]byte) error {
	if err := encodeStatic(img, profile, path); err != nil {
		return err
	}
	if len(auxSegments) > 0 && profile.Format == FormatJPEG {
		return spliceAuxSegments(path, auxSegments)
	}
	return nil
}

// externalPNGPass runs the configured external PNG optimizer over the
// temporary artifact. Failures are logged and the unoptimised temp is kept.
func (o *Optimizer) externalPNGPass(ctx context.Context, run *optimize.Run, path string, aggressive bool) {
	if o.cfg.PNGOptimizerPath == "" || o.runner == nil {
		return
	}
	level := "2"
	if aggressive {
		level = "4"
	}
	result, err := o.runner.Run(ctx, procrunner.Command{
		Path: o.cfg.PNGOptimizerPath,
		Args: []string{"-o", level, "--strip", "safe", path},
	})
	if err != nil {
		run.Logger().Warn("png optimizer pass skipped", logging.Error(err))
		return
	}
	if result.ExitCode != 0 {
		run.Logger().Warn("png optimizer pass failed",
			logging.Int("exit_code", result.ExitCode),
			logging.String("stderr", result.Stderr))
	}
}

func (o *Optimizer) succeed(req *request.Request, outputPath, message string) *request.Result {
	return &request.Result{
		RequestID:  req.ID,
		Status:     request.StatusSucceeded,
		OutputPath: outputPath,
		Message:    message,
	}
}

var _ optimize.Optimizer = (*Optimizer)(nil)
