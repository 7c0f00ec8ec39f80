package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Workers < 2 {
		t.Errorf("workers %d below floor", cfg.Workers)
	}
	if cfg.Image.JPEGQuality != 82 {
		t.Errorf("jpeg quality %d", cfg.Image.JPEGQuality)
	}
	if cfg.HistoryLimit != 512 {
		t.Errorf("history limit %d", cfg.HistoryLimit)
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Image.JPEGQuality != Default().Image.JPEGQuality {
		t.Error("expected default values for missing file")
	}
}

func TestLoadPartialFileKeepsFallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
workers = 4

[image]
jpeg_quality = 70

[video]
ffmpeg_path = "/opt/ffmpeg/bin/ffmpeg"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers %d", cfg.Workers)
	}
	if cfg.Image.JPEGQuality != 70 {
		t.Errorf("jpeg quality %d", cfg.Image.JPEGQuality)
	}
	if cfg.Video.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg path %q", cfg.Video.FFmpegPath)
	}
	if cfg.Video.FFprobePath != "ffprobe" {
		t.Errorf("ffprobe fallback lost: %q", cfg.Video.FFprobePath)
	}
	if cfg.Image.MinFallbackQuality != 50 {
		t.Errorf("min fallback quality %d", cfg.Image.MinFallbackQuality)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[image]
jpeg_quality = 40
min_fallback_quality = 60
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for fallback above target quality")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"quality range", func(c *Config) { c.Image.JPEGQuality = 120 }, "jpeg_quality"},
		{"retina edge", func(c *Config) { c.Image.RetinaMaxEdge = 1 }, "retina_max_edge"},
		{"convert set", func(c *Config) { c.Image.ConvertToJPEG = []string{"heic"} }, "convert_to_jpeg"},
		{"crf range", func(c *Config) { c.Video.CRF = 99 }, "crf"},
		{"hw encoder", func(c *Config) { c.Video.HardwareAccel = true; c.Video.HardwareEncoder = " " }, "hardware_encoder"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q missing %q", err, tc.want)
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("sample invalid: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Error("expected refusal to overwrite existing config")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.TempDir = filepath.Join(base, "tmp")
	cfg.OutputDir = filepath.Join(base, "out")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.TempDir, cfg.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("missing directory %s: %v", dir, err)
		}
	}
	if got := cfg.HistoryDBPath(); got != filepath.Join(cfg.DataDir, "history.db") {
		t.Errorf("history path %s", got)
	}
	if got := cfg.CounterPath(); got != filepath.Join(cfg.DataDir, "output_counter") {
		t.Errorf("counter path %s", got)
	}
}
