package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
)

// DefaultOverlayScale is the number of output pixels per glyph pixel.
const DefaultOverlayScale = 4

// Overlay colours, as "#rrggbb".
const (
	OutlineColor = "#33cc33"
	HullColor    = "#3366ff"
	EllipseColor = "#ff3333"
	GridColor    = "#d0d0d0"
)

// Overlay describes the fit drawn over a glyph by DrawOverlay. Points and
// the ellipse are in the coordinates of the raster the glyph was cropped
// from; Origin is the crop's top-left corner in that raster.
type Overlay struct {
	Origin  image.Point
	Outline []image.Point
	Hull    []image.Point

	CenterX, CenterY float64
	SemiX, SemiY     float64

	// Scale magnifies the glyph; 0 means DefaultOverlayScale.
	Scale int
	// GridSpacing is the distance between labelled grid lines in source
	// pixels; 0 disables the grid.
	GridSpacing int
}

type overlayCanvas struct {
	img    *image.RGBA
	origin image.Point
	scale  float64
}

// point maps a source pixel centre to output coordinates.
func (c *overlayCanvas) point(x, y float64) (float64, float64) {
	return (x - float64(c.origin.X) + 0.5) * c.scale, (y - float64(c.origin.Y) + 0.5) * c.scale
}

func (c *overlayCanvas) set(x, y int, col color.RGBA) {
	if image.Pt(x, y).In(c.img.Bounds()) {
		c.img.SetRGBA(x, y, col)
	}
}

func (c *overlayCanvas) line(x0, y0, x1, y1 float64, col color.RGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		c.set(int(x0), int(y0), col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.set(int(math.Round(x0+(x1-x0)*t)), int(math.Round(y0+(y1-y0)*t)), col)
	}
}

// DrawOverlay magnifies glyph and paints the outline, convex hull, fitted
// ellipse and its centre over it, optionally on a labelled pixel grid.
func DrawOverlay(glyph image.Image, ov Overlay) *image.RGBA {
	scale := ov.Scale
	if scale <= 0 {
		scale = DefaultOverlayScale
	}
	b := glyph.Bounds()
	big := imaging.Resize(glyph, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)

	c := &overlayCanvas{
		img:    image.NewRGBA(big.Bounds()),
		origin: ov.Origin,
		scale:  float64(scale),
	}
	draw.Draw(c.img, c.img.Bounds(), big, big.Bounds().Min, draw.Src)

	if ov.GridSpacing > 0 {
		drawGrid(c, b.Dx(), b.Dy(), ov.GridSpacing)
	}

	outline := mustColor(OutlineColor)
	for _, p := range ov.Outline {
		x, y := c.point(float64(p.X), float64(p.Y))
		c.set(int(x), int(y), outline)
	}

	hull := mustColor(HullColor)
	for i := range ov.Hull {
		p, q := ov.Hull[i], ov.Hull[(i+1)%len(ov.Hull)]
		x0, y0 := c.point(float64(p.X), float64(p.Y))
		x1, y1 := c.point(float64(q.X), float64(q.Y))
		c.line(x0, y0, x1, y1, hull)
	}

	if ov.SemiX > 0 && ov.SemiY > 0 && !math.IsInf(ov.SemiX, 0) && !math.IsInf(ov.SemiY, 0) {
		ellipse := mustColor(EllipseColor)
		n := int(2*math.Pi*math.Max(ov.SemiX, ov.SemiY)*c.scale) + 16
		px, py := c.point(ov.CenterX+ov.SemiX, ov.CenterY)
		for i := 1; i <= n; i++ {
			t := 2 * math.Pi * float64(i) / float64(n)
			x, y := c.point(ov.CenterX+ov.SemiX*math.Cos(t), ov.CenterY+ov.SemiY*math.Sin(t))
			c.line(px, py, x, y, ellipse)
			px, py = x, y
		}

		cx, cy := c.point(ov.CenterX, ov.CenterY)
		arm := 2 * c.scale
		c.line(cx-arm, cy, cx+arm, cy, ellipse)
		c.line(cx, cy-arm, cx, cy+arm, ellipse)
	}
	return c.img
}

// drawGrid draws lines at source coordinates divisible by spacing and labels
// them with the coordinate.
func drawGrid(c *overlayCanvas, width, height, spacing int) {
	grid := mustColor(GridColor)
	fg := color.RGBA{0, 0, 0, 255}
	bg := color.RGBA{255, 255, 255, 255}
	bounds := c.img.Bounds()

	first := func(origin int) int {
		return int(math.Ceil(float64(origin)/float64(spacing))) * spacing
	}
	for sx := first(c.origin.X); sx < c.origin.X+width; sx += spacing {
		x := int(float64(sx-c.origin.X) * c.scale)
		for y := 0; y < bounds.Dy(); y++ {
			c.set(x, y, grid)
		}
		drawLabel(c.img, x+2, 2, strconv.Itoa(sx), fg, bg)
	}
	for sy := first(c.origin.Y); sy < c.origin.Y+height; sy += spacing {
		y := int(float64(sy-c.origin.Y) * c.scale)
		for x := 0; x < bounds.Dx(); x++ {
			c.set(x, y, grid)
		}
		drawLabel(c.img, 2, y+2, strconv.Itoa(sy), fg, bg)
	}
}

// SaveOverlay writes DrawOverlay's output to <name>_overlay.png under dir
// and returns its path.
func SaveOverlay(dir, name string, glyph image.Image, ov Overlay) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics directory: %w", err)
	}
	path := filepath.Join(dir, name+"_overlay.png")
	if err := imaging.Save(DrawOverlay(glyph, ov), path); err != nil {
		return "", fmt.Errorf("failed to save overlay image: %w", err)
	}
	return path, nil
}

func mustColor(hex string) color.RGBA {
	c, err := parseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// parseHexColor parses an opaque "#rrggbb" colour.
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
}

// drawLabel draws digits in a 3x5 pixel font on a filled background.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'-': {"000", "000", "111", "000", "000"},
	}

	bounds := img.Bounds()
	set := func(px, py int, c color.RGBA) {
		if image.Pt(px, py).In(bounds) {
			img.SetRGBA(px, py, c)
		}
	}

	const charWidth = 4
	for dy := -1; dy < 6; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					set(cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
