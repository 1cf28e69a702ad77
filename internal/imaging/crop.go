package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// DefaultCropPadding is the margin kept around the glyph when cropping.
const DefaultCropPadding = 20

// GlyphCrop is a mask cropped to the glyph with its position in the source.
type GlyphCrop struct {
	Mask   *Mask
	Offset image.Point
}

// CropBounds returns the foreground bounding box of m grown by padding on
// every side and clipped to the mask. It reports false for an empty mask.
func CropBounds(m *Mask, padding int) (image.Rectangle, bool) {
	r, ok := m.Bounds()
	if !ok {
		return image.Rectangle{}, false
	}
	if padding < 0 {
		padding = 0
	}
	r = r.Inset(-padding)
	return r.Intersect(image.Rect(0, 0, m.Width, m.Height)), true
}

// Crop copies the region r of m into a new mask. r is clipped to m.
func (m *Mask) Crop(r image.Rectangle) *Mask {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	out := NewMask(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := m.Pix[(r.Min.Y+y)*m.Width+r.Min.X:]
		copy(out.Pix[y*out.Width:(y+1)*out.Width], src[:out.Width])
	}
	return out
}

// CropGlyph crops m to the glyph plus padding. The zero GlyphCrop is
// returned with false for an empty mask.
func CropGlyph(m *Mask, padding int) (GlyphCrop, bool) {
	r, ok := CropBounds(m, padding)
	if !ok {
		return GlyphCrop{}, false
	}
	return GlyphCrop{Mask: m.Crop(r), Offset: r.Min}, true
}

// Shift translates points by the crop offset back into source coordinates.
func (c GlyphCrop) Shift(pts []image.Point) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Add(c.Offset)
	}
	return out
}

// Region returns the crop rectangle in source coordinates.
func (c GlyphCrop) Region() image.Rectangle {
	if c.Mask == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, c.Mask.Width, c.Mask.Height).Add(c.Offset)
}

// CropImage extracts a region of img.
func CropImage(img image.Image, r image.Rectangle) (image.Image, error) {
	bounds := img.Bounds()
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: %v is empty", r)
	}
	return imaging.Crop(img, r), nil
}

// EncodePNGBase64 encodes img as base64 PNG, for embedding in tool results.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
