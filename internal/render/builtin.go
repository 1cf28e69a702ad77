package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/letter-center-mcp/internal/coords"
	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
	"github.com/ironsheep/letter-center-mcp/internal/imaging"
	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

const builtinTool = "builtin"

// Builtin renders isolation documents in-process: a white canvas, filled
// <rect> children of the root and <text> elements drawn with Go Regular or
// Go Bold. Text chunks honour x, y, dx, dy and text-anchor; other SVG
// features are ignored.
type Builtin struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// NewBuiltin parses the embedded Go fonts.
func NewBuiltin() (*Builtin, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Builtin{regular: regular, bold: bold}, nil
}

// Render implements Renderer.
func (b *Builtin) Render(ctx context.Context, svg []byte, zoom float64) (*image.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, glypherr.NewRasterizationError(builtinTool, err)
	}

	doc, err := svgdoc.ParseBytes(svg)
	if err != nil {
		return nil, glypherr.NewRasterizationError(builtinTool, err)
	}
	dims, err := doc.Dimensions()
	if err != nil {
		return nil, glypherr.NewRasterizationError(builtinTool, err)
	}
	mapper, err := coords.NewMapper(dims, zoom)
	if err != nil {
		return nil, glypherr.NewRasterizationError(builtinTool, err)
	}

	w, h := mapper.RasterSize()
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	p := &painter{b: b, canvas: canvas, mapper: mapper, faces: make(map[faceKey]font.Face)}
	defer p.close()

	for _, n := range doc.Root.Children {
		switch n.Name {
		case "rect":
			if err := p.rect(n); err != nil {
				return nil, glypherr.NewRasterizationError(builtinTool, err)
			}
		case "text":
			if err := p.text(n); err != nil {
				return nil, glypherr.NewRasterizationError(builtinTool, err)
			}
		}
	}

	return imaging.ToGray(canvas), nil
}

type faceKey struct {
	size float64
	bold bool
}

type painter struct {
	b      *Builtin
	canvas *image.RGBA
	mapper coords.Mapper
	faces  map[faceKey]font.Face
}

func (p *painter) close() {
	for _, f := range p.faces {
		f.Close()
	}
}

func (p *painter) face(sizePx float64, bold bool) (font.Face, error) {
	key := faceKey{size: sizePx, bold: bold}
	if f, ok := p.faces[key]; ok {
		return f, nil
	}
	src := p.b.regular
	if bold {
		src = p.b.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	p.faces[key] = f
	return f, nil
}

func (p *painter) rect(n *svgdoc.Node) error {
	fill, visible := paint(n, color.Black)
	if !visible {
		return nil
	}
	var v [4]float64
	for i, name := range []string{"x", "y", "width", "height"} {
		s, ok := n.Attr(name)
		if !ok {
			continue
		}
		f, err := coords.ParseLength(s)
		if err != nil {
			return fmt.Errorf("invalid rect %s: %w", name, err)
		}
		v[i] = f
	}
	x0, y0 := p.mapper.DocToPixel(v[0], v[1])
	x1, y1 := p.mapper.DocToPixel(v[0]+v[2], v[1]+v[3])
	r := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
	draw.Draw(p.canvas, r.Intersect(p.canvas.Bounds()), image.NewUniform(fill), image.Point{}, draw.Src)
	return nil
}

// textStyle is the inherited presentation state of a text run.
type textStyle struct {
	size   float64
	bold   bool
	fill   color.Color
	hidden bool
	anchor string
}

// run is a piece of text with its resolved style and positioning.
type run struct {
	text   string
	style  textStyle
	x, y   *float64
	dx, dy float64
}

func (p *painter) text(n *svgdoc.Node) error {
	var runs []run
	if err := collect(n, textStyle{size: 12, fill: color.Black, anchor: "start"}, &runs); err != nil {
		return err
	}
	collapseWhitespace(runs)

	// split into chunks at absolute x positions
	var chunks [][]run
	for i, r := range runs {
		if i == 0 || r.x != nil {
			chunks = append(chunks, nil)
		}
		chunks[len(chunks)-1] = append(chunks[len(chunks)-1], r)
	}

	var penX, penY float64
	scale := p.mapper.Scale()
	for _, chunk := range chunks {
		var width float64
		for i, r := range chunk {
			f, err := p.face(r.style.size*scale, r.style.bold)
			if err != nil {
				return err
			}
			width += fixedToFloat(font.MeasureString(f, r.text)) / scale
			if i > 0 {
				width += r.dx
			}
		}

		for i, r := range chunk {
			if r.x != nil {
				penX = *r.x
			}
			if r.y != nil {
				penY = *r.y
			}
			penX += r.dx
			penY += r.dy
			if i == 0 {
				switch chunk[0].style.anchor {
				case "middle":
					penX -= width / 2
				case "end":
					penX -= width
				}
			}

			f, err := p.face(r.style.size*scale, r.style.bold)
			if err != nil {
				return err
			}
			px, py := p.mapper.DocToPixel(penX, penY)
			d := &font.Drawer{
				Dst:  p.canvas,
				Src:  image.NewUniform(r.style.fill),
				Face: f,
				Dot:  fixed.Point26_6{X: floatToFixed(px), Y: floatToFixed(py)},
			}
			if !r.style.hidden {
				d.DrawString(r.text)
			}
			penX += fixedToFloat(font.MeasureString(f, r.text)) / scale
		}
	}
	return nil
}

// collect flattens n into runs in document order.
func collect(n *svgdoc.Node, parent textStyle, runs *[]run) error {
	st, err := resolveStyle(n, parent)
	if err != nil {
		return err
	}

	head := run{text: n.Text, style: st}
	for _, attr := range []struct {
		name string
		dst  **float64
	}{{"x", &head.x}, {"y", &head.y}} {
		if s, ok := n.Attr(attr.name); ok {
			v, ok, err := svgdoc.FirstNumber(s)
			if err != nil {
				return err
			}
			if ok {
				*attr.dst = &v
			}
		}
	}
	for _, attr := range []struct {
		name string
		dst  *float64
	}{{"dx", &head.dx}, {"dy", &head.dy}} {
		if s, ok := n.Attr(attr.name); ok {
			v, _, err := svgdoc.FirstNumber(s)
			if err != nil {
				return err
			}
			*attr.dst = v
		}
	}
	*runs = append(*runs, head)

	for _, c := range n.Children {
		if err := collect(c, st, runs); err != nil {
			return err
		}
		if c.Tail != "" {
			*runs = append(*runs, run{text: c.Tail, style: st})
		}
	}
	return nil
}

func resolveStyle(n *svgdoc.Node, parent textStyle) (textStyle, error) {
	st := parent
	if v, ok := n.Property("font-size"); ok {
		size, err := coords.ParseLength(v)
		if err != nil {
			return st, fmt.Errorf("invalid font-size: %w", err)
		}
		st.size = size
	}
	if v, ok := n.Property("font-weight"); ok {
		st.bold = isBold(v)
	}
	if v, ok := n.Property("text-anchor"); ok {
		st.anchor = strings.TrimSpace(v)
	}
	if _, ok := n.Property("fill"); ok {
		st.fill, st.hidden = paint(n, parent.fill)
		st.hidden = !st.hidden
	}
	return st, nil
}

// paint resolves the fill of n, reporting false for fill="none".
func paint(n *svgdoc.Node, def color.Color) (color.Color, bool) {
	v, ok := n.Property("fill")
	if !ok {
		return def, true
	}
	if strings.TrimSpace(v) == "none" {
		return def, false
	}
	if c, ok := svgdoc.ParseColor(v); ok {
		return c.Clamped(), true
	}
	return def, true
}

func isBold(weight string) bool {
	weight = strings.TrimSpace(weight)
	switch weight {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(weight)
	return err == nil && n >= 600
}

// collapseWhitespace applies the default xml:space handling across runs:
// newlines and tabs become spaces, space sequences collapse to one, and
// leading and trailing space of the whole text is removed.
func collapseWhitespace(runs []run) {
	prevSpace := true
	for i := range runs {
		var b strings.Builder
		for _, r := range runs[i].text {
			if r == '\n' || r == '\r' || r == '\t' {
				r = ' '
			}
			if r == ' ' {
				if prevSpace {
					continue
				}
				prevSpace = true
			} else {
				prevSpace = false
			}
			b.WriteRune(r)
		}
		runs[i].text = b.String()
	}
	for i := len(runs) - 1; i >= 0; i-- {
		trimmed := strings.TrimRight(runs[i].text, " ")
		runs[i].text = trimmed
		if trimmed != "" {
			break
		}
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
