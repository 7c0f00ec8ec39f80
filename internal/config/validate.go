package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("config: workers must be at least 1")
	}
	img := c.Image
	if img.JPEGQuality < 1 || img.JPEGQuality > 100 {
		return fmt.Errorf("config: image.jpeg_quality %d outside 1-100", img.JPEGQuality)
	}
	if img.MinFallbackQuality < 1 || img.MinFallbackQuality > 100 {
		return fmt.Errorf("config: image.min_fallback_quality %d outside 1-100", img.MinFallbackQuality)
	}
	if img.MinFallbackQuality >= img.JPEGQuality {
		return fmt.Errorf("config: image.min_fallback_quality %d must be below image.jpeg_quality %d",
			img.MinFallbackQuality, img.JPEGQuality)
	}
	if img.RetinaMaxEdge < 2 {
		return fmt.Errorf("config: image.retina_max_edge %d too small", img.RetinaMaxEdge)
	}
	for _, ext := range img.ConvertToJPEG {
		if !containsFold(img.SupportedExtensions, ext) {
			return fmt.Errorf("config: image.convert_to_jpeg extension %q not in supported set", ext)
		}
	}
	vid := c.Video
	if vid.CRF < 0 || vid.CRF > 51 {
		return fmt.Errorf("config: video.crf %d outside 0-51", vid.CRF)
	}
	if vid.MaxFPS < 0 {
		return fmt.Errorf("config: video.max_fps %d negative", vid.MaxFPS)
	}
	if vid.HardwareAccel && strings.TrimSpace(vid.HardwareEncoder) == "" {
		return errors.New("config: video.hardware_encoder required when hardware_accel is enabled")
	}
	return nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}
