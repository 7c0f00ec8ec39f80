package imageopt

import (
	"strings"

	"clop/internal/config"
)

// Format identifies the target encoding of a save profile.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
)

// Profile describes how the optimised image is saved.
type Profile struct {
	Format  Format
	Ext     string
	Quality int
}

// Lossless reports whether re-encoding with this profile preserves pixels.
func (p Profile) Lossless() bool { return p.Format != FormatJPEG }

// chooseProfile picks the save profile for a source image. JPEG-compatible
// sources (no alpha, not animated, extension enabled for JPEG conversion)
// target JPEG; GIFs are normalised in place; BMP and TIFF convert to PNG;
// everything else normalises to PNG.
func chooseProfile(cfg config.ImageConfig, ext string, hasAlpha, animated, aggressive bool) Profile {
	quality := cfg.JPEGQuality
	if aggressive {
		quality -= cfg.AggressiveDrop
	}
	if quality <= cfg.MinFallbackQuality {
		quality = cfg.MinFallbackQuality + 1
	}

	switch {
	case ext == "gif":
		return Profile{Format: FormatGIF, Ext: "gif"}
	case !hasAlpha && !animated && extIn(cfg.ConvertToJPEG, ext):
		return Profile{Format: FormatJPEG, Ext: "jpg", Quality: quality}
	default:
		return Profile{Format: FormatPNG, Ext: "png"}
	}
}

// sameFormat reports whether a source extension already matches the profile
// target.
func sameFormat(ext string, p Profile) bool {
	switch p.Format {
	case FormatJPEG:
		return ext == "jpg" || ext == "jpeg"
	case FormatPNG:
		return ext == "png"
	case FormatGIF:
		return ext == "gif"
	}
	return false
}

func extIn(values []string, ext string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), ext) {
			return true
		}
	}
	return false
}
