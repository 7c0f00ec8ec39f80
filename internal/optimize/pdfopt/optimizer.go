package pdfopt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clop/internal/config"
	"clop/internal/fileutil"
	"clop/internal/optimize"
	"clop/internal/procrunner"
	"clop/internal/request"
)

const component = "pdf"

// qpdf reports warnings through exit code 3 while still writing output.
const qpdfExitWarnings = 3

// Optimizer implements the PDF path of the optimisation contract.
type Optimizer struct {
	cfg       config.PDFConfig
	tempDir   string
	outputDir string
	overwrite bool
	counter   *fileutil.Counter
	runner    procrunner.Runner
}

// New constructs the PDF optimiser around the given process runner.
func New(cfg *config.Config, runner procrunner.Runner, counter *fileutil.Counter) *Optimizer {
	return &Optimizer{
		cfg:       cfg.PDF,
		tempDir:   cfg.TempDir,
		outputDir: cfg.OutputDir,
		overwrite: cfg.Overwrite,
		counter:   counter,
		runner:    runner,
	}
}

// ItemType implements optimize.Optimizer.
func (o *Optimizer) ItemType() request.ItemType { return request.ItemPDF }

// Optimize rewrites the PDF with the configured preset.
func (o *Optimizer) Optimize(ctx context.Context, req *request.Request, run *optimize.Run) (*request.Result, error) {
	src := req.SourcePath
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil, optimize.Wrap(optimize.ErrNotFound, component, "stat source", src, nil)
		}
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat source", "", err)
	}
	if ext := fileutil.Ext(src); ext != "pdf" {
		return nil, optimize.Wrap(optimize.ErrUnsupported, component, "input check",
			fmt.Sprintf("extension %q not supported", ext), nil)
	}
	srcSize, err := fileutil.FileSize(src)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat source", "", err)
	}

	tmpDir, err := fileutil.NewTempDir(o.tempDir)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "temp dir", "", err)
	}
	defer os.RemoveAll(tmpDir)

	input := src
	if o.cfg.Linearize {
		run.Progress(10, "linearizing")
		linearized := filepath.Join(tmpDir, "linearized.pdf")
		if err := o.linearize(ctx, input, linearized); err != nil {
			return nil, err
		}
		input = linearized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.Progress(30, "rewriting")
	tmpOut := filepath.Join(tmpDir, "rewritten.pdf")
	result, err := o.runner.Run(ctx, procrunner.Command{
		Path: o.cfg.GhostscriptPath,
		Args: o.rewriteArgs(input, tmpOut),
	})
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, optimize.Wrap(optimize.ErrProcessFailure, component, "rewrite",
			diagnostic(result), nil)
	}
	if !outputUsable(tmpOut) {
		return nil, optimize.Wrap(optimize.ErrProcessFailure, component, "rewrite",
			"rewriter produced no usable output", nil)
	}

	encodedSize, err := fileutil.FileSize(tmpOut)
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "stat rewritten", "", err)
	}
	if encodedSize >= srcSize {
		return &request.Result{
			RequestID:  req.ID,
			Status:     request.StatusSucceeded,
			OutputPath: src,
			Message:    optimize.MsgKeptOriginal,
		}, nil
	}

	run.Progress(90, "finalizing")
	outPath, err := optimize.Promote(optimize.PromoteOptions{
		Source:    src,
		Temp:      tmpOut,
		Ext:       "pdf",
		OutputDir: req.Metadata.String(request.MetaOutputDir, o.outputDir),
		Overwrite: o.overwrite,
		Counter:   o.counter,
	})
	if err != nil {
		return nil, optimize.Wrap(optimize.ErrInternal, component, "promote", "", err)
	}

	run.Progress(100, "done")
	return &request.Result{
		RequestID:  req.ID,
		Status:     request.StatusSucceeded,
		OutputPath: outPath,
		Message:    optimize.SavingsMessage(srcSize, encodedSize),
	}, nil
}

func (o *Optimizer) linearize(ctx context.Context, input, output string) error {
	result, err := o.runner.Run(ctx, procrunner.Command{
		Path: o.cfg.QPDFPath,
		Args: []string{"--linearize", input, output},
	})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 && result.ExitCode != qpdfExitWarnings {
		return optimize.Wrap(optimize.ErrProcessFailure, component, "linearize",
			diagnostic(result), nil)
	}
	if !outputUsable(output) {
		return optimize.Wrap(optimize.ErrProcessFailure, component, "linearize",
			"linearizer produced no usable output", nil)
	}
	return nil
}

func (o *Optimizer) rewriteArgs(input, output string) []string {
	preset := "/default"
	if o.cfg.Lossy {
		preset = "/ebook"
	}
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.5",
		"-dPDFSETTINGS=" + preset,
		"-dDetectDuplicateImages=true",
		"-dCompressFonts=true",
		"-dNOPAUSE",
		"-dBATCH",
		"-dQUIET",
	}
	if o.cfg.StripMetadata {
		args = append(args,
			"-dPreserveEPSInfo=false",
			"-dPreserveOPIComments=false",
			"-dPreserveHalftoneInfo=false",
			"-dPreserveOverprintSettings=false",
		)
	}
	args = append(args, "-sOutputFile="+output, input)
	return args
}

func outputUsable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// diagnostic prefers stderr, falling back to stdout, for result messages.
func diagnostic(result procrunner.Result) string {
	if detail := strings.TrimSpace(result.Stderr); detail != "" {
		return detail
	}
	return strings.TrimSpace(result.Stdout)
}

var _ optimize.Optimizer = (*Optimizer)(nil)
