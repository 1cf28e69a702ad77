package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/letter-center-mcp/internal/isolate"
	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

// OverlayGroupID is the id of the group OverlayDocument appends.
const OverlayGroupID = "ellipse-fit-overlay"

var overlayPalette = []string{"#ff3333", "#3366ff", "#33cc33", "#ff9900", "#cc33ff", "#00cccc"}

// OverlayDocument returns a copy of doc with a group drawn on top holding
// every fitted ellipse of res and a dot at its centre, in document units.
// Failed characters are skipped. doc is not modified.
func OverlayDocument(doc *svgdoc.Document, res *DocumentResult) *svgdoc.Document {
	group := svgdoc.NewElement("g", []svgdoc.Attr{
		{Name: "id", Value: OverlayGroupID},
		{Name: "fill", Value: "none"},
	})

	for i, c := range res.Characters {
		if c.Failed() || c.DocEllipse == nil {
			continue
		}
		e := c.DocEllipse
		color := overlayPalette[i%len(overlayPalette)]
		cx, cy := formatCoord(e.CX), formatCoord(e.CY)

		group.Children = append(group.Children, svgdoc.NewElement("g",
			[]svgdoc.Attr{{Name: "id", Value: fmt.Sprintf("fit-%s-%d", c.Character, i)}},
			svgdoc.NewElement("ellipse", []svgdoc.Attr{
				{Name: "cx", Value: cx},
				{Name: "cy", Value: cy},
				{Name: "rx", Value: formatCoord(e.RX)},
				{Name: "ry", Value: formatCoord(e.RY)},
				{Name: "stroke", Value: color},
				{Name: "stroke-width", Value: "0.4"},
				{Name: "stroke-opacity", Value: "0.85"},
				{Name: "fill", Value: "none"},
			}),
			svgdoc.NewElement("circle", []svgdoc.Attr{
				{Name: "cx", Value: cx},
				{Name: "cy", Value: cy},
				{Name: "r", Value: "0.8"},
				{Name: "fill", Value: color},
				{Name: "fill-opacity", Value: "0.8"},
			}),
		))
	}

	root := *doc.Root
	root.Children = append(append([]*svgdoc.Node(nil), doc.Root.Children...), group)
	return &svgdoc.Document{Root: &root}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// WriteOverlay serializes OverlayDocument(doc, res) to w.
func WriteOverlay(w io.Writer, doc *svgdoc.Document, res *DocumentResult) error {
	out, err := isolate.Render(OverlayDocument(doc, res))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// saveOverlay writes <base>_diagnostic.svg under dir and returns its path.
func saveOverlay(dir, base string, doc *svgdoc.Document, res *DocumentResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics directory: %w", err)
	}
	path := filepath.Join(dir, base+"_diagnostic.svg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create overlay document: %w", err)
	}
	if err := WriteOverlay(f, doc, res); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write overlay document: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write overlay document: %w", err)
	}
	return path, nil
}
