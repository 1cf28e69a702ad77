// Package isolate builds single-glyph documents for rasterization.
//
// Isolation is a pure transform: the source document is never modified.
// Instead a new minimal tree is built containing
//
//   - a root <svg> with the source viewport and viewBox
//   - a background <rect> covering the viewBox plus overscan on every side
//   - the owning <text> element, rebuilt so that only the target character
//     keeps its fill while every other character is painted in the
//     background colour
//
// Hiding characters instead of deleting them keeps the layout of the run
// identical, so the target glyph lands exactly where it does in the source.
//
// # Fragment Splitting
//
// A run containing the target is split into up to three <tspan> fragments
// (before, target, after). Empty fragments are omitted. Positioning
// attributes (x, y, dx, dy, rotate, textLength, lengthAdjust) are kept on
// the first fragment only and id is dropped from later fragments. All other
// attributes are copied to every fragment. The tail text of a split span
// follows the last fragment.
package isolate

import (
	"fmt"
	"strconv"
	"strings"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
	"github.com/ironsheep/letter-center-mcp/internal/scanner"
	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

// DefaultBackground is the colour of the background rect and of hidden characters.
const DefaultBackground = "#ffffff"

// DefaultOverscan is the background margin in multiples of the viewBox extent.
const DefaultOverscan = 1.0

// Options control the isolation document.
type Options struct {
	Background string
	Overscan   float64
}

// DefaultOptions returns the standard isolation options.
func DefaultOptions() Options {
	return Options{Background: DefaultBackground, Overscan: DefaultOverscan}
}

var positional = map[string]bool{
	"x":            true,
	"y":            true,
	"dx":           true,
	"dy":           true,
	"rotate":       true,
	"textLength":   true,
	"lengthAdjust": true,
}

// paint properties forced to the background on hidden content
var paintProps = []string{"fill", "stroke"}

// Isolate returns a new document in which only the character identified by
// occ is visible.
//
// Indices that do not resolve to a character of the source, or a character
// different from occ.Character, yield a StructuralIndexError.
func Isolate(doc *svgdoc.Document, occ scanner.Occurrence, opts Options) (*svgdoc.Document, error) {
	if opts.Background == "" {
		opts.Background = DefaultBackground
	}
	if opts.Overscan < 0 {
		opts.Overscan = 0
	}

	dims, err := doc.Dimensions()
	if err != nil {
		return nil, err
	}

	texts := doc.TextElements()
	if occ.TextIndex < 0 || occ.TextIndex >= len(texts) {
		return nil, glypherr.NewStructuralIndexError(occ.TextIndex, occ.SpanIndex, occ.CharOffset,
			fmt.Sprintf("text index out of range (document has %d text elements)", len(texts)))
	}
	text := texts[occ.TextIndex]

	var target *svgdoc.Node
	run := text.Text
	if occ.SpanIndex != scanner.DirectRun {
		spans := text.Find("tspan")
		if occ.SpanIndex < 0 || occ.SpanIndex >= len(spans) {
			return nil, glypherr.NewStructuralIndexError(occ.TextIndex, occ.SpanIndex, occ.CharOffset,
				fmt.Sprintf("span index out of range (text element has %d spans)", len(spans)))
		}
		target = spans[occ.SpanIndex]
		run = target.Text
	}

	runes := []rune(run)
	if occ.CharOffset < 0 || occ.CharOffset >= len(runes) {
		return nil, glypherr.NewStructuralIndexError(occ.TextIndex, occ.SpanIndex, occ.CharOffset,
			fmt.Sprintf("character offset out of range (run has %d characters)", len(runes)))
	}
	if occ.Character != "" && string(runes[occ.CharOffset]) != occ.Character {
		return nil, glypherr.NewStructuralIndexError(occ.TextIndex, occ.SpanIndex, occ.CharOffset,
			fmt.Sprintf("character at offset is %q, want %q", string(runes[occ.CharOffset]), occ.Character))
	}

	iso := &isolator{
		opts:   opts,
		target: target,
		before: string(runes[:occ.CharOffset]),
		glyph:  string(runes[occ.CharOffset]),
		after:  string(runes[occ.CharOffset+1:]),
		fill:   occ.Fill,
	}
	if iso.fill == "" {
		iso.fill = "#000000"
	}

	var owner *svgdoc.Node
	if target == nil {
		owner = iso.rebuildDirect(text)
	} else {
		owner = iso.rebuild(text)
	}

	vb := dims.ViewBox
	ox := vb.Width * opts.Overscan
	oy := vb.Height * opts.Overscan
	background := svgdoc.NewElement("rect", []svgdoc.Attr{
		{Name: "x", Value: formatNumber(vb.X - ox)},
		{Name: "y", Value: formatNumber(vb.Y - oy)},
		{Name: "width", Value: formatNumber(vb.Width + 2*ox)},
		{Name: "height", Value: formatNumber(vb.Height + 2*oy)},
		{Name: "fill", Value: opts.Background},
	})

	root := svgdoc.NewElement("svg", []svgdoc.Attr{
		{Name: "xmlns", Value: svgdoc.SVGNamespace},
		{Name: "width", Value: formatNumber(dims.ViewportWidth)},
		{Name: "height", Value: formatNumber(dims.ViewportHeight)},
		{Name: "viewBox", Value: fmt.Sprintf("%s %s %s %s",
			formatNumber(vb.X), formatNumber(vb.Y), formatNumber(vb.Width), formatNumber(vb.Height))},
		{Name: "preserveAspectRatio", Value: "xMidYMid meet"},
	}, background, owner)

	return &svgdoc.Document{Root: root}, nil
}

type isolator struct {
	opts   Options
	target *svgdoc.Node

	before, glyph, after string
	fill                 string

	// set once an ancestor's stroke has been hidden
	strokeHidden bool
}

// rebuild copies n with every element hidden, splitting the target span.
func (iso *isolator) rebuild(n *svgdoc.Node) *svgdoc.Node {
	out := &svgdoc.Node{
		Name:  n.Name,
		Attrs: iso.paint(cleanAttrs(n.Attrs), iso.opts.Background),
		Text:  n.Text,
		Tail:  n.Tail,
	}
	for _, c := range n.Children {
		if c == iso.target {
			out.Children = append(out.Children, iso.split(c)...)
			continue
		}
		out.Children = append(out.Children, iso.rebuild(c))
	}
	return out
}

// rebuildDirect rebuilds a text element whose own text holds the target.
// The direct text is replaced by position-free fragments.
func (iso *isolator) rebuildDirect(text *svgdoc.Node) *svgdoc.Node {
	out := &svgdoc.Node{
		Name:  text.Name,
		Attrs: iso.paint(cleanAttrs(text.Attrs), iso.opts.Background),
		Tail:  text.Tail,
	}
	if iso.before != "" {
		out.Children = append(out.Children, iso.fragment(nil, iso.before, iso.opts.Background))
	}
	out.Children = append(out.Children, iso.fragment(nil, iso.glyph, iso.fill))
	if iso.after != "" {
		out.Children = append(out.Children, iso.fragment(nil, iso.after, iso.opts.Background))
	}
	for _, c := range text.Children {
		out.Children = append(out.Children, iso.rebuild(c))
	}
	return out
}

// split replaces the target span by its before/target/after fragments.
func (iso *isolator) split(span *svgdoc.Node) []*svgdoc.Node {
	attrs := cleanAttrs(span.Attrs)
	later := svgdoc.FilterAttrs(attrs, func(a svgdoc.Attr) bool {
		return !(a.Space == "" && (positional[a.Name] || a.Name == "id"))
	})

	var frags []*svgdoc.Node
	next := func() []svgdoc.Attr {
		if len(frags) == 0 {
			return attrs
		}
		return later
	}

	if iso.before != "" {
		frags = append(frags, iso.fragment(next(), iso.before, iso.opts.Background))
	}
	frags = append(frags, iso.fragment(next(), iso.glyph, iso.fill))

	// Nested content of the span stays hidden inside the after fragment.
	if iso.after != "" || len(span.Children) > 0 {
		after := iso.fragment(next(), iso.after, iso.opts.Background)
		for _, c := range span.Children {
			after.Children = append(after.Children, iso.rebuild(c))
		}
		frags = append(frags, after)
	}

	frags[len(frags)-1].Tail = span.Tail
	return frags
}

func (iso *isolator) fragment(attrs []svgdoc.Attr, text, fill string) *svgdoc.Node {
	n := svgdoc.NewElement("tspan", iso.paint(attrs, fill))
	n.Text = text
	return n
}

// paint sets fill on attrs and removes fill from the inline style. Hidden
// content also has any declared stroke painted in the background colour, and
// the visible glyph then drops the stroke it would inherit from hidden ancestors.
func (iso *isolator) paint(attrs []svgdoc.Attr, fill string) []svgdoc.Attr {
	hidden := fill == iso.opts.Background
	props := []string{"fill"}
	if hidden {
		props = paintProps
	}

	var stroked bool
	out := make([]svgdoc.Attr, 0, len(attrs)+2)
	for _, a := range attrs {
		if a.Space != "" {
			out = append(out, a)
			continue
		}
		switch a.Name {
		case "style":
			style := svgdoc.ParseStyle(a.Value)
			if v, ok := style["stroke"]; ok && strings.TrimSpace(v) != "none" {
				stroked = true
			}
			keys := svgdoc.StyleKeys(a.Value)
			for _, p := range props {
				delete(style, p)
			}
			if s := svgdoc.FormatStyle(keys, style); s != "" {
				out = append(out, svgdoc.Attr{Name: "style", Value: s})
			}
			continue
		case "stroke":
			if strings.TrimSpace(a.Value) != "none" {
				stroked = true
			}
			if hidden {
				continue
			}
		}
		out = append(out, a)
	}

	out = svgdoc.SetAttr(out, "fill", fill)
	switch {
	case hidden && stroked:
		out = svgdoc.SetAttr(out, "stroke", fill)
		iso.strokeHidden = true
	case !hidden && !stroked && iso.strokeHidden:
		out = svgdoc.SetAttr(out, "stroke", "none")
	}
	return out
}

// cleanAttrs drops namespace declarations; the output root declares its own.
func cleanAttrs(attrs []svgdoc.Attr) []svgdoc.Attr {
	return svgdoc.FilterAttrs(attrs, func(a svgdoc.Attr) bool {
		return a.Space != "xmlns" && !(a.Space == "" && a.Name == "xmlns")
	})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
