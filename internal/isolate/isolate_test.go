package isolate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
	"github.com/ironsheep/letter-center-mcp/internal/scanner"
	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

const diagram = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="50" viewBox="0 0 100 50">
	<line x1="0" y1="0" x2="100" y2="50" stroke="black"/>
	<text x="10" y="20" font-size="12" fill="#333"><tspan x="10" dy="2" id="s" font-weight="bold" style="fill:red;font-style:italic">COC</tspan>tail</text>
	<text x="60" y="40" style="stroke:blue">HO<tspan>C</tspan></text>
</svg>`

func parse(t *testing.T, src string) *svgdoc.Document {
	t.Helper()
	doc, err := svgdoc.ParseBytes([]byte(src))
	require.NoError(t, err)
	return doc
}

// roundTrip renders an isolation document and parses it back.
func roundTrip(t *testing.T, doc *svgdoc.Document) *svgdoc.Document {
	t.Helper()
	out, err := Render(doc)
	require.NoError(t, err)
	return parse(t, string(out))
}

func attr(n *svgdoc.Node, name string) string {
	v, _ := n.Attr(name)
	return v
}

func TestIsolate_SplitsSpanIntoThree(t *testing.T) {
	doc := parse(t, diagram)
	occs, err := scanner.Scan(doc, "O")
	require.NoError(t, err)
	require.Len(t, occs, 2)

	iso, err := Isolate(doc, occs[0], DefaultOptions())
	require.NoError(t, err)
	out := roundTrip(t, iso)

	require.Len(t, out.Root.Children, 2, "background rect and one text element")
	assert.Equal(t, "rect", out.Root.Children[0].Name)
	text := out.Root.Children[1]
	assert.Equal(t, "text", text.Name)
	assert.Equal(t, "10", attr(text, "x"))
	assert.Equal(t, DefaultBackground, attr(text, "fill"))

	frags := text.Children
	require.Len(t, frags, 3)
	texts := []string{frags[0].Text, frags[1].Text, frags[2].Text}
	assert.Equal(t, []string{"C", "O", "C"}, texts)

	first := frags[0]
	assert.Equal(t, "10", attr(first, "x"))
	assert.Equal(t, "2", attr(first, "dy"))
	assert.Equal(t, "s", attr(first, "id"))
	assert.Equal(t, DefaultBackground, attr(first, "fill"))

	for _, f := range frags[1:] {
		for _, name := range []string{"x", "dy", "id"} {
			_, ok := f.Attr(name)
			assert.False(t, ok, "later fragment carries %s", name)
		}
	}
	for _, f := range frags {
		assert.Equal(t, "bold", attr(f, "font-weight"))
		assert.Equal(t, "font-style:italic", attr(f, "style"))
	}

	assert.Equal(t, "#ff0000", attr(frags[1], "fill"), "target keeps its own fill")
	assert.Equal(t, DefaultBackground, attr(frags[2], "fill"))
	assert.Equal(t, "tail", frags[2].Tail)
}

func TestIsolate_EdgeCharacterOmitsEmptyFragments(t *testing.T) {
	doc := parse(t, diagram)
	occ := scanner.Occurrence{Character: "C", TextIndex: 0, SpanIndex: 0, CharOffset: 0, Fill: "#000000"}

	iso, err := Isolate(doc, occ, DefaultOptions())
	require.NoError(t, err)

	frags := iso.Root.Children[1].Children
	require.Len(t, frags, 2)
	assert.Equal(t, "C", frags[0].Text)
	assert.Equal(t, "10", attr(frags[0], "x"), "target is first fragment and keeps position")
	assert.Equal(t, "OC", frags[1].Text)
	assert.Equal(t, "tail", frags[1].Tail)
}

func TestIsolate_DirectText(t *testing.T) {
	doc := parse(t, diagram)
	occs, err := scanner.Scan(doc, "O")
	require.NoError(t, err)
	occ := occs[1]
	require.Equal(t, scanner.DirectRun, occ.SpanIndex)

	iso, err := Isolate(doc, occ, DefaultOptions())
	require.NoError(t, err)
	out := roundTrip(t, iso)

	text := out.Root.Children[1]
	assert.Equal(t, "", strings.TrimSpace(text.Text))
	assert.Equal(t, "60", attr(text, "x"))
	assert.Equal(t, DefaultBackground, attr(text, "stroke"), "hidden content hides its stroke")

	require.Len(t, text.Children, 3)
	before, target, span := text.Children[0], text.Children[1], text.Children[2]
	assert.Equal(t, "H", before.Text)
	assert.Equal(t, "O", target.Text)
	assert.Equal(t, "#000000", attr(target, "fill"))
	assert.Equal(t, "none", attr(target, "stroke"), "target does not inherit the hidden stroke")
	_, hasX := target.Attr("x")
	assert.False(t, hasX)
	assert.Equal(t, "C", span.Text)
	assert.Equal(t, DefaultBackground, attr(span, "fill"))
}

func TestIsolate_BackgroundAndRoot(t *testing.T) {
	doc := parse(t, diagram)
	occs, err := scanner.Scan(doc, "O")
	require.NoError(t, err)

	iso, err := Isolate(doc, occs[0], DefaultOptions())
	require.NoError(t, err)

	root := iso.Root
	assert.Equal(t, "100", attr(root, "width"))
	assert.Equal(t, "50", attr(root, "height"))
	assert.Equal(t, "0 0 100 50", attr(root, "viewBox"))

	rect := root.Children[0]
	assert.Equal(t, "-100", attr(rect, "x"))
	assert.Equal(t, "-50", attr(rect, "y"))
	assert.Equal(t, "300", attr(rect, "width"))
	assert.Equal(t, "150", attr(rect, "height"))
	assert.Equal(t, DefaultBackground, attr(rect, "fill"))

	for _, n := range []string{"line", "path", "circle"} {
		assert.Empty(t, root.Find(n))
	}
	assert.Len(t, root.Find("text"), 1)
}

func TestIsolate_LeavesSourceUntouched(t *testing.T) {
	doc := parse(t, diagram)
	before, err := Render(doc)
	require.NoError(t, err)

	occs, err := scanner.Scan(doc, "OC")
	require.NoError(t, err)
	for _, occ := range occs {
		_, err := Isolate(doc, occ, DefaultOptions())
		require.NoError(t, err)
	}

	after, err := Render(doc)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestIsolate_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		occ  scanner.Occurrence
	}{
		{"text index", scanner.Occurrence{Character: "O", TextIndex: 5}},
		{"negative text index", scanner.Occurrence{Character: "O", TextIndex: -1}},
		{"span index", scanner.Occurrence{Character: "O", TextIndex: 0, SpanIndex: 3}},
		{"char offset", scanner.Occurrence{Character: "O", TextIndex: 0, SpanIndex: 0, CharOffset: 3}},
		{"empty direct run", scanner.Occurrence{Character: "O", TextIndex: 0, SpanIndex: scanner.DirectRun}},
		{"wrong character", scanner.Occurrence{Character: "O", TextIndex: 0, SpanIndex: 0, CharOffset: 0}},
	}

	doc := parse(t, diagram)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Isolate(doc, tt.occ, DefaultOptions())
			if !errors.Is(err, glypherr.ErrStructuralIndex) {
				t.Errorf("Isolate error = %v, want StructuralIndexError", err)
			}
		})
	}
}

func TestRender_Escapes(t *testing.T) {
	doc := &svgdoc.Document{Root: svgdoc.NewElement("svg", []svgdoc.Attr{
		{Name: "xmlns", Value: svgdoc.SVGNamespace},
	}, &svgdoc.Node{
		Name:  "text",
		Attrs: []svgdoc.Attr{{Space: svgdoc.XMLNamespace, Name: "space", Value: "preserve"}},
		Text:  "a<b & c",
	})}

	out, err := Render(doc)
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, "<?xml"))
	assert.Contains(t, s, `<svg xmlns="http://www.w3.org/2000/svg">`)
	assert.Contains(t, s, `xml:space="preserve"`)
	assert.Contains(t, s, "a&lt;b &amp; c")

	back := parse(t, s)
	assert.Equal(t, "a<b & c", back.Root.Children[0].Text)
}
