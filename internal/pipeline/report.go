package pipeline

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// WriteSummary writes a plain-text report of a batch: totals, then one line
// per character with its document-space centre, radii and mean boundary
// distance.
func WriteSummary(w io.Writer, b *BatchSummary) error {
	var sb strings.Builder
	sb.WriteString("Letter Glyph Ellipse Fitting Summary\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&sb, "Files processed: %d\n", b.FilesProcessed)
	fmt.Fprintf(&sb, "Files failed: %d\n", b.FilesFailed)
	fmt.Fprintf(&sb, "Total characters: %d\n", b.TotalCharacters)
	fmt.Fprintf(&sb, "Successful: %d\n", b.SuccessfulCharacters)
	fmt.Fprintf(&sb, "Failed: %d\n", b.FailedCharacters)

	for _, d := range b.Documents {
		fmt.Fprintf(&sb, "\n%s:\n", d.Source)
		writeCharacters(&sb, d)
	}
	for _, e := range b.Errors {
		fmt.Fprintf(&sb, "\n%s:\n  ERROR - %s\n", e.Path, e.Error)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteDocumentSummary writes the per-character lines of one document.
func WriteDocumentSummary(w io.Writer, d *DocumentResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", d.Source)
	writeCharacters(&sb, d)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeCharacters(sb *strings.Builder, d *DocumentResult) {
	for _, c := range d.Characters {
		if c.Failed() {
			fmt.Fprintf(sb, "  %s #%d: ERROR - %s\n", c.Character, c.Index, c.Error)
			continue
		}
		e := c.DocEllipse
		fmt.Fprintf(sb, "  %s #%d: center=(%.2f, %.2f) rx=%.2f ry=%.2f boundary=%s coverage=%.1f%%\n",
			c.Character, c.Index, e.CX, e.CY, e.RX, e.RY,
			percent(c.Quality.MeanDistancePct), c.Quality.Coverage*100)
	}
}

func percent(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v)
}
