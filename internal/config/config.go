package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the root configuration snapshot.
type Config struct {
	Workers      int    `toml:"workers"`
	OutputDir    string `toml:"output_dir"`
	TempDir      string `toml:"temp_dir"`
	DataDir      string `toml:"data_dir"`
	HistoryLimit int    `toml:"history_limit"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`

	Overwrite bool `toml:"overwrite_existing"`

	Image ImageConfig `toml:"image"`
	Video VideoConfig `toml:"video"`
	PDF   PDFConfig   `toml:"pdf"`
}

// ImageConfig tunes the image optimiser.
type ImageConfig struct {
	SupportedExtensions []string `toml:"supported_extensions"`
	ConvertToJPEG       []string `toml:"convert_to_jpeg"`
	JPEGQuality         int      `toml:"jpeg_quality"`
	MinFallbackQuality  int      `toml:"min_fallback_quality"`
	AggressiveDrop      int      `toml:"aggressive_quality_drop"`
	RequireImprovement  bool     `toml:"require_improvement"`
	DownscaleRetina     bool     `toml:"downscale_retina"`
	RetinaMaxEdge       int      `toml:"retina_max_edge"`
	PreserveMetadata    bool     `toml:"preserve_metadata"`
	PNGOptimizerPath    string   `toml:"png_optimizer_path"`
}

// VideoConfig tunes the video optimiser.
type VideoConfig struct {
	SupportedExtensions []string `toml:"supported_extensions"`
	FFmpegPath          string   `toml:"ffmpeg_path"`
	FFprobePath         string   `toml:"ffprobe_path"`
	Encoder             string   `toml:"encoder"`
	HardwareAccel       bool     `toml:"hardware_accel"`
	HardwareEncoder     string   `toml:"hardware_encoder"`
	CRF                 int      `toml:"crf"`
	AggressiveCRF       int      `toml:"aggressive_crf"`
	Preset              string   `toml:"preset"`
	MaxFPS              int      `toml:"max_fps"`
	GIFMaxWidth         int      `toml:"gif_max_width"`
	GIFFPS              int      `toml:"gif_fps"`
	PreserveTimestamps  bool     `toml:"preserve_timestamps"`
}

// PDFConfig tunes the PDF optimiser.
type PDFConfig struct {
	GhostscriptPath string `toml:"ghostscript_path"`
	QPDFPath        string `toml:"qpdf_path"`
	Lossy           bool   `toml:"lossy"`
	Linearize       bool   `toml:"linearize"`
	StripMetadata   bool   `toml:"strip_metadata"`
}

// Load reads the configuration file at path, falling back to defaults when
// the file does not exist. An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyFallbacks()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "clop.toml"
	}
	return filepath.Join(base, "clop", "config.toml")
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the engine writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.TempDir != "" {
		dirs = append(dirs, c.TempDir)
	}
	if c.OutputDir != "" {
		dirs = append(dirs, c.OutputDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the result history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// CounterPath returns the location of the persisted output counter.
func (c *Config) CounterPath() string {
	return filepath.Join(c.DataDir, "output_counter")
}
