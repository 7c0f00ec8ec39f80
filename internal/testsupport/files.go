package testsupport

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"testing"

	"golang.org/x/image/bmp"
)

// noisyImage builds an RGBA image with deterministic noise so it does not
// compress to a trivially small file.
func noisyImage(width, height int, withAlpha bool) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			alpha := uint8(255)
			if withAlpha && (x+y)%7 == 0 {
				alpha = uint8(rng.Intn(255))
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: alpha,
			})
		}
	}
	return img
}

// WriteBMP writes a noisy BMP test image and returns its path.
func WriteBMP(t *testing.T, path string, width, height int) string {
	t.Helper()
	writeImage(t, path, func(f *os.File) error {
		return bmp.Encode(f, stripAlpha(noisyImage(width, height, false)))
	})
	return path
}

// WritePNG writes a noisy PNG test image and returns its path.
func WritePNG(t *testing.T, path string, width, height int, withAlpha bool) string {
	t.Helper()
	writeImage(t, path, func(f *os.File) error {
		return png.Encode(f, noisyImage(width, height, withAlpha))
	})
	return path
}

// WriteJPEG writes a noisy JPEG test image at the given quality.
func WriteJPEG(t *testing.T, path string, width, height, quality int) string {
	t.Helper()
	writeImage(t, path, func(f *os.File) error {
		return jpeg.Encode(f, stripAlpha(noisyImage(width, height, false)), &jpeg.Options{Quality: quality})
	})
	return path
}

// WriteAnimatedGIF writes a small multi-frame GIF.
func WriteAnimatedGIF(t *testing.T, path string, frames int) string {
	t.Helper()
	palette := color.Palette{color.Black, color.White, color.NRGBA{R: 255, A: 255}}
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 16, 16), palette)
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				frame.SetColorIndex(x, y, uint8((x+y+i)%3))
			}
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 5)
	}
	writeImage(t, path, func(f *os.File) error {
		return gif.EncodeAll(f, anim)
	})
	return path
}

// stripAlpha flattens an NRGBA image onto an opaque RGBA canvas so encoders
// without alpha support accept it.
func stripAlpha(src *image.NRGBA) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			dst.SetRGBA(x, y, color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255})
		}
	}
	return dst
}

func writeImage(t *testing.T, path string, encode func(*os.File) error) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	if err := encode(file); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}
