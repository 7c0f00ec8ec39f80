package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Workers:      defaultWorkers(),
		HistoryLimit: 512,
		LogLevel:     "info",
		Overwrite:    true,
		DataDir:      defaultDataDir(),
		Image: ImageConfig{
			SupportedExtensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp"},
			ConvertToJPEG:       []string{"jpg", "jpeg"},
			JPEGQuality:         82,
			MinFallbackQuality:  50,
			AggressiveDrop:      12,
			RequireImprovement:  true,
			DownscaleRetina:     true,
			RetinaMaxEdge:       2560,
			PreserveMetadata:    false,
		},
		Video: VideoConfig{
			SupportedExtensions: []string{"mp4", "mov", "mkv", "webm", "avi", "m4v"},
			FFmpegPath:          "ffmpeg",
			FFprobePath:         "ffprobe",
			Encoder:             "libx264",
			HardwareEncoder:     defaultHardwareEncoder(),
			CRF:                 23,
			AggressiveCRF:       28,
			Preset:              "medium",
			GIFMaxWidth:         640,
			GIFFPS:              15,
			PreserveTimestamps:  true,
		},
		PDF: PDFConfig{
			GhostscriptPath: defaultGhostscript(),
			QPDFPath:        "qpdf",
			Lossy:           true,
		},
	}
	return cfg
}

func defaultWorkers() int {
	workers := runtime.NumCPU() / 2
	if workers < 2 {
		workers = 2
	}
	return workers
}

func defaultDataDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".clop"
	}
	return filepath.Join(base, "clop")
}

func defaultHardwareEncoder() string {
	switch runtime.GOOS {
	case "darwin":
		return "h264_videotoolbox"
	case "windows":
		return "h264_nvenc"
	default:
		return "h264_vaapi"
	}
}

func defaultGhostscript() string {
	if runtime.GOOS == "windows" {
		return "gswin64c"
	}
	return "gs"
}

// applyFallbacks fills zero values left after unmarshalling a partial file.
func (c *Config) applyFallbacks() {
	defaults := Default()
	if c.Workers <= 0 {
		c.Workers = defaults.Workers
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaults.HistoryLimit
	}
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if len(c.Image.SupportedExtensions) == 0 {
		c.Image.SupportedExtensions = defaults.Image.SupportedExtensions
	}
	if c.Image.JPEGQuality == 0 {
		c.Image.JPEGQuality = defaults.Image.JPEGQuality
	}
	if c.Image.MinFallbackQuality == 0 {
		c.Image.MinFallbackQuality = defaults.Image.MinFallbackQuality
	}
	if c.Image.RetinaMaxEdge == 0 {
		c.Image.RetinaMaxEdge = defaults.Image.RetinaMaxEdge
	}
	if len(c.Video.SupportedExtensions) == 0 {
		c.Video.SupportedExtensions = defaults.Video.SupportedExtensions
	}
	if c.Video.FFmpegPath == "" {
		c.Video.FFmpegPath = defaults.Video.FFmpegPath
	}
	if c.Video.FFprobePath == "" {
		c.Video.FFprobePath = defaults.Video.FFprobePath
	}
	if c.Video.Encoder == "" {
		c.Video.Encoder = defaults.Video.Encoder
	}
	if c.Video.CRF == 0 {
		c.Video.CRF = defaults.Video.CRF
	}
	if c.Video.AggressiveCRF == 0 {
		c.Video.AggressiveCRF = defaults.Video.AggressiveCRF
	}
	if c.Video.Preset == "" {
		c.Video.Preset = defaults.Video.Preset
	}
	if c.Video.GIFMaxWidth == 0 {
		c.Video.GIFMaxWidth = defaults.Video.GIFMaxWidth
	}
	if c.Video.GIFFPS == 0 {
		c.Video.GIFFPS = defaults.Video.GIFFPS
	}
	if c.PDF.GhostscriptPath == "" {
		c.PDF.GhostscriptPath = defaults.PDF.GhostscriptPath
	}
	if c.PDF.QPDFPath == "" {
		c.PDF.QPDFPath = defaults.PDF.QPDFPath
	}
}
