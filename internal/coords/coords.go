// Package coords maps between SVG user space and raster pixel space.
//
// A document declares a viewport (its width and height attributes) and a
// viewBox (its internal coordinate rectangle). Rasterizing at a zoom factor
// produces an image of viewport×zoom pixels in which the viewBox is scaled
// uniformly by the largest factor that keeps it fully visible and centered
// (the "contain"/xMidYMid meet policy).
//
// # Transform
//
//	scale   = min(vpW*zoom / vb.Width, vpH*zoom / vb.Height)
//	offsetX = (vpW*zoom - vb.Width*scale) / 2 - vb.X*scale
//	offsetY = (vpH*zoom - vb.Height*scale) / 2 - vb.Y*scale
//	px      = x*scale + offsetX
//	py      = y*scale + offsetY
//
// DocToPixel and PixelToDoc are exact algebraic inverses.
package coords

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ViewBox is the declared internal coordinate rectangle of a document.
type ViewBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Dimensions holds the viewBox and viewport of one document.
type Dimensions struct {
	ViewBox        ViewBox `json:"viewbox"`
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`
}

// NewDimensions builds Dimensions, replacing a viewBox without positive
// extent by the viewport rectangle at the origin.
func NewDimensions(vb ViewBox, viewportWidth, viewportHeight float64) Dimensions {
	if vb.Width <= 0 || vb.Height <= 0 {
		vb = ViewBox{Width: viewportWidth, Height: viewportHeight}
	}
	return Dimensions{
		ViewBox:        vb,
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
	}
}

// Valid reports whether both the viewport and the viewBox have positive extent.
func (d Dimensions) Valid() bool {
	return d.ViewportWidth > 0 && d.ViewportHeight > 0 &&
		d.ViewBox.Width > 0 && d.ViewBox.Height > 0
}

// Mapper converts coordinates for one document rendered at one zoom factor.
type Mapper struct {
	Dims Dimensions
	Zoom float64
}

// NewMapper returns a Mapper, rejecting dimensions or zoom without positive extent.
func NewMapper(dims Dimensions, zoom float64) (Mapper, error) {
	if !dims.Valid() {
		return Mapper{}, fmt.Errorf("invalid document dimensions: %+v", dims)
	}
	if zoom <= 0 {
		return Mapper{}, fmt.Errorf("zoom must be positive, got %g", zoom)
	}
	return Mapper{Dims: dims, Zoom: zoom}, nil
}

// Scale is the number of pixels per user unit.
func (m Mapper) Scale() float64 {
	vb := m.Dims.ViewBox
	sx := m.Dims.ViewportWidth * m.Zoom / vb.Width
	sy := m.Dims.ViewportHeight * m.Zoom / vb.Height
	return math.Min(sx, sy)
}

// Offset is the pixel position of the user-space origin.
func (m Mapper) Offset() (float64, float64) {
	vb := m.Dims.ViewBox
	s := m.Scale()
	ox := (m.Dims.ViewportWidth*m.Zoom-vb.Width*s)/2 - vb.X*s
	oy := (m.Dims.ViewportHeight*m.Zoom-vb.Height*s)/2 - vb.Y*s
	return ox, oy
}

// DocToPixel maps a user-space point to pixel space.
//
// The viewBox is scaled uniformly by Scale and centred in the zoomed
// viewport (contain/center), so
//
//	px = x·Scale + offsetX
//	py = y·Scale + offsetY
//
// with the offsets from Offset. PixelToDoc is the exact inverse.
func (m Mapper) DocToPixel(x, y float64) (float64, float64) {
	s := m.Scale()
	ox, oy := m.Offset()
	return x*s + ox, y*s + oy
}

// PixelToDoc maps a pixel-space point to user space.
func (m Mapper) PixelToDoc(px, py float64) (float64, float64) {
	s := m.Scale()
	ox, oy := m.Offset()
	return (px - ox) / s, (py - oy) / s
}

// LengthToDoc converts a pixel length to user units.
func (m Mapper) LengthToDoc(l float64) float64 {
	return l / m.Scale()
}

// LengthToPixel converts a user-space length to pixels.
func (m Mapper) LengthToPixel(l float64) float64 {
	return l * m.Scale()
}

// RasterSize is the pixel size of the zoomed viewport, rounded up.
func (m Mapper) RasterSize() (int, int) {
	w := int(math.Ceil(m.Dims.ViewportWidth*m.Zoom - 1e-9))
	h := int(math.Ceil(m.Dims.ViewportHeight*m.Zoom - 1e-9))
	return w, h
}

// unitScale converts absolute CSS units to user units (px at 96 dpi).
var unitScale = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"in": 96,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
}

// ParseLength parses an SVG length such as "12", "12px" or "2mm" into user units.
// Percentages and font-relative units are rejected.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty length")
	}
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '%' {
			i--
			continue
		}
		break
	}
	num, unit := s[:i], strings.ToLower(s[i:])
	factor, ok := unitScale[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported length unit %q in %q", unit, s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", s, err)
	}
	return v * factor, nil
}
