package svgdoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/letter-center-mcp/internal/coords"
	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
)

// Dimensions extracts the viewport and viewBox of the document.
//
// A missing or unparseable width/height falls back to the viewBox extent.
// A missing or non-positive viewBox falls back to the viewport at the origin.
// A document with neither usable viewport nor viewBox is a ParseError.
func (d *Document) Dimensions() (coords.Dimensions, error) {
	root := d.Root

	vb, hasVB := parseViewBox(root.AttrOr("viewBox", ""))

	w, wErr := coords.ParseLength(root.AttrOr("width", ""))
	h, hErr := coords.ParseLength(root.AttrOr("height", ""))
	if wErr != nil || w <= 0 {
		if !hasVB {
			return coords.Dimensions{}, glypherr.NewParseError("document has no usable width or viewBox", wErr)
		}
		w = vb.Width
	}
	if hErr != nil || h <= 0 {
		if !hasVB {
			return coords.Dimensions{}, glypherr.NewParseError("document has no usable height or viewBox", hErr)
		}
		h = vb.Height
	}

	return coords.NewDimensions(vb, w, h), nil
}

// parseViewBox parses "minx miny width height" (whitespace or comma separated).
func parseViewBox(s string) (coords.ViewBox, bool) {
	fields := splitNumberList(s)
	if len(fields) != 4 {
		return coords.ViewBox{}, false
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return coords.ViewBox{}, false
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return coords.ViewBox{}, false
	}
	return coords.ViewBox{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, true
}

func splitNumberList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// FirstNumber parses the first entry of a coordinate list attribute such as
// x="10 12 14". An empty value yields ok=false.
func FirstNumber(s string) (float64, bool, error) {
	fields := splitNumberList(s)
	if len(fields) == 0 {
		return 0, false, nil
	}
	v, err := coords.ParseLength(fields[0])
	if err != nil {
		return 0, false, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	return v, true, nil
}
