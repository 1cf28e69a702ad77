package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// RasterInfo describes a decoded raster.
type RasterInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Mean is the mean gray level (0 = black, 255 = white).
	Mean float64 `json:"mean"`
}

// DecodeGray decodes a PNG, JPEG or GIF stream and converts it to grayscale.
//
// # Errors
//
//   - Returns error if the stream is not a decodable image
//   - Returns error if the image is empty
func DecodeGray(r io.Reader) (*image.Gray, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("failed to decode image: empty raster")
	}
	return ToGray(img), nil
}

// LoadGray opens and decodes the image at path as grayscale.
func LoadGray(path string) (*image.Gray, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return ToGray(img), nil
}

// ToGray returns img as an 8-bit grayscale image with origin (0,0).
// Gray input already at the origin is returned as is; anything else goes
// through bild's luminance conversion and takes its red channel, which
// equals the gray level.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	rgba := effect.Grayscale(img)
	rb := rgba.Bounds()
	g := image.NewGray(image.Rect(0, 0, rb.Dx(), rb.Dy()))
	for y := 0; y < rb.Dy(); y++ {
		for x := 0; x < rb.Dx(); x++ {
			g.Pix[g.PixOffset(x, y)] = rgba.Pix[rgba.PixOffset(rb.Min.X+x, rb.Min.Y+y)]
		}
	}
	return g
}

// Info summarises a grayscale raster.
func Info(g *image.Gray) RasterInfo {
	b := g.Bounds()
	var sum int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride:]
		for x := 0; x < b.Dx(); x++ {
			sum += int(row[x])
		}
	}
	info := RasterInfo{Width: b.Dx(), Height: b.Dy()}
	if n := b.Dx() * b.Dy(); n > 0 {
		info.Mean = float64(sum) / float64(n)
	}
	return info
}
