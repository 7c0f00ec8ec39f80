package imageopt

import (
	"image"
	"image/color"
	"image/gif"
	"os"

	// Decoders beyond those imaging registers itself.
	_ "golang.org/x/image/webp"
)

// Info holds header-level source properties the profile choice depends on.
type Info struct {
	Width      int
	Height     int
	Format     string
	AlphaModel bool
	Animated   bool
	FrameCount int
}

// Analyze decodes header-level properties without a full pixel decode.
// Animation is detected for GIF sources by counting frames.
func Analyze(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Format:     format,
		AlphaModel: modelHasAlpha(cfg.ColorModel),
		FrameCount: 1,
	}

	if format == "gif" {
		if _, err := file.Seek(0, 0); err != nil {
			return Info{}, err
		}
		g, err := gif.DecodeAll(file)
		if err != nil {
			return Info{}, err
		}
		info.FrameCount = len(g.Image)
		info.Animated = info.FrameCount > 1
	}

	return info, nil
}

func modelHasAlpha(model color.Model) bool {
	switch model {
	case color.YCbCrModel, color.GrayModel, color.Gray16Model, color.CMYKModel:
		return false
	}
	return true
}

// hasAlphaPixel reports whether any pixel is not fully opaque. Exits on the
// first transparent pixel.
func hasAlphaPixel(img image.Image) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// evenDimensions scales (width, height) so the longest edge fits maxEdge,
// preserving aspect ratio and rounding both dimensions down to even
// integers. Downstream encoders require even dimensions.
func evenDimensions(width, height, maxEdge int) (int, int) {
	long := width
	if height > long {
		long = height
	}
	if long <= maxEdge {
		return width, height
	}
	scale := float64(maxEdge) / float64(long)
	w := int(float64(width) * scale)
	h := int(float64(height) * scale)
	w -= w % 2
	h -= h % 2
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	return w, h
}
