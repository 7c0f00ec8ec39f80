package imageopt

import (
	"fmt"
	"image"
	"image/gif"
	"os"

	"github.com/disintegration/imaging"
)

func encodeStatic(img image.Image, profile Profile, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	switch profile.Format {
	case FormatJPEG:
		err = imaging.Encode(file, img, imaging.JPEG, imaging.JPEGQuality(profile.Quality))
	case FormatPNG:
		err = imaging.Encode(file, img, imaging.PNG)
	case FormatGIF:
		err = imaging.Encode(file, img, imaging.GIF)
	default:
		err = fmt.Errorf("unknown save format %q", profile.Format)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

func encodeAnimated(g *gif.GIF, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	if err := gif.EncodeAll(file, g); err != nil {
		return err
	}
	return file.Close()
}
