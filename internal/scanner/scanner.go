// Package scanner locates target characters in SVG text and estimates where
// each one is drawn.
//
// The estimate uses a fixed per-letterform advance table rather than real font
// metrics (see Classify and Advance). Each text run, that is the direct text
// of a <text> element or the text of one of its <tspan> descendants, is laid
// out independently from its own effective x position:
//
//  1. The run width is the sum of character advances plus tracking between
//     consecutive characters.
//  2. text-anchor shifts the start cursor: start keeps x, middle subtracts
//     half the width, end subtracts the full width.
//  3. Each character's estimated center is the cursor plus half its advance,
//     vertically the midpoint of its estimated ink bounds.
//
// Every Occurrence records the structural position of the character (text
// element index, span index, rune offset) so the isolator can find the same
// character again.
package scanner

import (
	"fmt"
	"strings"

	"github.com/ironsheep/letter-center-mcp/internal/coords"
	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

// DirectRun is the SpanIndex of a text element's own (non-tspan) text.
const DirectRun = -1

// Anchor is the horizontal alignment mode of a text run.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Occurrence is one matched character with its estimated geometry.
type Occurrence struct {
	Character string `json:"character"`

	// TextIndex is the index of the owning <text> element in document order.
	TextIndex int `json:"text_index"`

	// SpanIndex is the index of the owning <tspan> among the text element's
	// tspan descendants in document order, or DirectRun.
	SpanIndex int `json:"span_index"`

	// CharOffset is the rune offset of the character within its run.
	CharOffset int `json:"char_offset"`

	// BaselineX is the estimated left edge of the character cell, BaselineY the baseline.
	BaselineX float64 `json:"x"`
	BaselineY float64 `json:"y"`

	// CenterX and CenterY are the estimated center of the glyph's ink.
	CenterX float64 `json:"cx"`
	CenterY float64 `json:"cy"`

	FontFamily string  `json:"font_family"`
	FontSize   float64 `json:"font_size"`
	FontWeight string  `json:"font_weight"`
	Fill       string  `json:"fill_color"`
	Anchor     Anchor  `json:"text_anchor"`

	// SourceText is the whole content of the owning text element.
	SourceText string `json:"source_text"`
}

// Rune returns the matched character as a rune.
func (o Occurrence) Rune() rune {
	for _, r := range o.Character {
		return r
	}
	return 0
}

// textStyle is the effective presentation state of one text run.
type textStyle struct {
	family string
	size   float64
	weight string
	fill   string
	anchor Anchor
	x, y   float64
}

var defaultStyle = textStyle{
	family: "sans-serif",
	size:   12,
	weight: "normal",
	fill:   "#000000",
	anchor: AnchorStart,
}

// Scan returns every occurrence of the runes in letters, in document order.
//
// Parameters:
//   - doc: The parsed document. It is only read.
//   - letters: Target characters; each rune is matched exactly.
//
// Returns:
//   - []Occurrence: Matches with structural indices and estimated centres.
//     Nil when nothing matches.
//   - error: Non-nil when a text element cannot be laid out.
//
// # Errors
//
//   - ParseError if font-size, x or y on a text or tspan is not a number;
//     the whole document is rejected, not just the run
func Scan(doc *svgdoc.Document, letters string) ([]Occurrence, error) {
	targets := make(map[rune]bool)
	for _, r := range letters {
		targets[r] = true
	}

	var out []Occurrence
	for ti, text := range doc.TextElements() {
		base, err := resolve(text, defaultStyle)
		if err != nil {
			return nil, err
		}
		source := strings.TrimSpace(text.TextContent())

		emit := func(run string, spanIndex int, st textStyle) {
			out = append(out, layoutRun(run, st, targets, ti, spanIndex, source)...)
		}

		emit(text.Text, DirectRun, base)

		spanIndex := 0
		var visit func(n *svgdoc.Node, parent textStyle) error
		visit = func(n *svgdoc.Node, parent textStyle) error {
			for _, c := range n.Children {
				st := parent
				if c.Name == "tspan" {
					var err error
					st, err = resolve(c, parent)
					if err != nil {
						return err
					}
					emit(c.Text, spanIndex, st)
					spanIndex++
				}
				if err := visit(c, st); err != nil {
					return err
				}
			}
			return nil
		}
		if err := visit(text, base); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ScanFile parses the document at path and scans it.
func ScanFile(path, letters string) ([]Occurrence, error) {
	doc, err := svgdoc.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Scan(doc, letters)
}

// layoutRun walks one run left to right and records the target characters.
func layoutRun(run string, st textStyle, targets map[rune]bool, textIndex, spanIndex int, source string) []Occurrence {
	runes := []rune(run)
	if len(runes) == 0 {
		return nil
	}

	cursor := StartCursor(st.x, RunWidth(runes, st.size), st.anchor)
	tracking := Tracking(st.size)

	var out []Occurrence
	for i, r := range runes {
		adv := Advance(st.size, r)
		if targets[r] {
			top, bottom := VerticalBounds(st.y, st.size, r)
			out = append(out, Occurrence{
				Character:  string(r),
				TextIndex:  textIndex,
				SpanIndex:  spanIndex,
				CharOffset: i,
				BaselineX:  cursor,
				BaselineY:  st.y,
				CenterX:    cursor + adv*0.5,
				CenterY:    (top + bottom) * 0.5,
				FontFamily: st.family,
				FontSize:   st.size,
				FontWeight: st.weight,
				Fill:       st.fill,
				Anchor:     st.anchor,
				SourceText: source,
			})
		}
		cursor += adv + tracking
	}
	return out
}

// StartCursor resolves the left edge of a run of the given width anchored at x.
func StartCursor(x, width float64, anchor Anchor) float64 {
	switch anchor {
	case AnchorMiddle:
		return x - width*0.5
	case AnchorEnd:
		return x - width
	default:
		return x
	}
}

// ParseAnchor maps a text-anchor value to an Anchor.
func ParseAnchor(s string) (Anchor, bool) {
	switch Anchor(strings.TrimSpace(s)) {
	case AnchorStart:
		return AnchorStart, true
	case AnchorMiddle:
		return AnchorMiddle, true
	case AnchorEnd:
		return AnchorEnd, true
	}
	return "", false
}

// resolve merges n's attributes and inline style over the parent state.
func resolve(n *svgdoc.Node, parent textStyle) (textStyle, error) {
	st := parent

	if v, ok := n.Property("font-family"); ok && strings.TrimSpace(v) != "" {
		st.family = strings.TrimSpace(v)
	}
	if v, ok := n.Property("font-size"); ok {
		size, err := coords.ParseLength(v)
		if err != nil {
			return st, glypherr.NewParseError(fmt.Sprintf("invalid font-size on <%s>", n.Name), err)
		}
		st.size = size
	}
	if v, ok := n.Property("font-weight"); ok && strings.TrimSpace(v) != "" {
		st.weight = strings.TrimSpace(v)
	}
	if v, ok := n.Property("fill"); ok && strings.TrimSpace(v) != "" {
		st.fill = svgdoc.NormalizeColor(v)
	}
	if v, ok := n.Property("text-anchor"); ok {
		if a, ok := ParseAnchor(v); ok {
			st.anchor = a
		}
	}

	x, ok, err := svgdoc.FirstNumber(n.AttrOr("x", ""))
	if err != nil {
		return st, glypherr.NewParseError(fmt.Sprintf("invalid x on <%s>", n.Name), err)
	}
	if ok {
		st.x = x
	}
	y, ok, err := svgdoc.FirstNumber(n.AttrOr("y", ""))
	if err != nil {
		return st, glypherr.NewParseError(fmt.Sprintf("invalid y on <%s>", n.Name), err)
	}
	if ok {
		st.y = y
	}

	return st, nil
}
