package signs

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
)

// Swatch returns the mean color of a crop as a #RRGGBB hex string.
// Averaging happens in linear RGB so bright fills are not washed out by
// the dark ring pixels as badly as a naive sRGB average would be. The
// result rides along with classification output so a reviewer can eyeball
// a crop list without opening every file.
func Swatch(cropPath string) (string, error) {
	f, err := os.Open(cropPath)
	if err != nil {
		return "", fmt.Errorf("failed to open crop: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode crop: %w", err)
	}

	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return "", fmt.Errorf("crop %s has no pixels", cropPath)
	}

	var sumR, sumG, sumB float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := colorful.Color{
				R: float64(r) / 65535.0,
				G: float64(g) / 65535.0,
				B: float64(b) / 65535.0,
			}
			lr, lg, lb := c.LinearRgb()
			sumR += lr
			sumG += lg
			sumB += lb
		}
	}

	mean := colorful.LinearRgb(sumR/n, sumG/n, sumB/n).Clamped()
	return mean.Hex(), nil
}
