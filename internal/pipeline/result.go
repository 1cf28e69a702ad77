package pipeline

import (
	"github.com/ironsheep/letter-center-mcp/internal/coords"
	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
	"github.com/ironsheep/letter-center-mcp/internal/geometry"
	"github.com/ironsheep/letter-center-mcp/internal/ocr"
	"github.com/ironsheep/letter-center-mcp/internal/scanner"
)

// DocEllipse is a fitted ellipse in document user units.
type DocEllipse struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
}

// HullSummary condenses a convex hull for reporting.
type HullSummary struct {
	Area        float64 `json:"area"`
	Perimeter   float64 `json:"perimeter"`
	NumVertices int     `json:"num_vertices"`
}

// Offset is an integer pixel displacement.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CharacterResult is the outcome for one occurrence. On failure the
// geometry fields are nil and Error/ErrorCode describe what went wrong.
type CharacterResult struct {
	scanner.Occurrence

	// Index counts earlier occurrences of the same letter in the document.
	Index int `json:"index"`

	PixelEllipse *geometry.Ellipse    `json:"pixel_ellipse,omitempty"`
	DocEllipse   *DocEllipse          `json:"svg_ellipse,omitempty"`
	Hull         *HullSummary         `json:"convex_hull,omitempty"`
	Quality      *geometry.FitQuality `json:"fit_quality,omitempty"`

	GlyphPixels    int               `json:"glyph_pixels,omitempty"`
	OutlinePoints  int               `json:"outline_points,omitempty"`
	CropOffset     *Offset           `json:"crop_offset,omitempty"`
	OCR            *ocr.Verification `json:"ocr,omitempty"`
	DiagnosticFile string            `json:"diagnostic_file,omitempty"`
	OverlayFile    string            `json:"overlay_file,omitempty"`

	Error     string             `json:"error,omitempty"`
	ErrorCode glypherr.ErrorCode `json:"error_code,omitempty"`
}

// Failed reports whether the result is an error entry.
func (r CharacterResult) Failed() bool {
	return r.Error != ""
}

// Compose assembles a successful result. The pixel-space centre is mapped
// through the inverse viewport transform and the semi-axes are divided by
// the scale factor.
func Compose(occ scanner.Occurrence, index int, m coords.Mapper, e geometry.Ellipse, hull geometry.Hull, q geometry.FitQuality) CharacterResult {
	cx, cy := m.PixelToDoc(e.Center.X, e.Center.Y)
	return CharacterResult{
		Occurrence:   occ,
		Index:        index,
		PixelEllipse: &e,
		DocEllipse: &DocEllipse{
			CX: cx,
			CY: cy,
			RX: m.LengthToDoc(e.SemiX),
			RY: m.LengthToDoc(e.SemiY),
		},
		Hull: &HullSummary{
			Area:        hull.Area,
			Perimeter:   hull.Perimeter,
			NumVertices: len(hull.Vertices),
		},
		Quality: &q,
	}
}

// Failure builds the error entry for an occurrence.
func Failure(occ scanner.Occurrence, index int, err error) CharacterResult {
	return CharacterResult{
		Occurrence: occ,
		Index:      index,
		Error:      err.Error(),
		ErrorCode:  glypherr.CodeOf(err),
	}
}

// DocumentResult holds every character result of one document in
// document order.
type DocumentResult struct {
	DocumentID    string            `json:"document_id"`
	Source        string            `json:"source,omitempty"`
	Dimensions    coords.Dimensions `json:"dimensions"`
	TargetLetters string            `json:"target_letters"`
	Zoom          float64           `json:"zoom"`
	Characters    []CharacterResult `json:"characters"`
	DiagnosticSVG string            `json:"diagnostic_svg,omitempty"`
}

// Counts returns the number of characters, successes and failures.
func (d *DocumentResult) Counts() (total, successful, failed int) {
	for _, c := range d.Characters {
		if c.Failed() {
			failed++
		} else {
			successful++
		}
	}
	return len(d.Characters), successful, failed
}

// FileError records a document that could not be processed at all.
type FileError struct {
	Path      string             `json:"path"`
	Error     string             `json:"error"`
	ErrorCode glypherr.ErrorCode `json:"error_code,omitempty"`
}

// BatchSummary aggregates a directory run.
type BatchSummary struct {
	FilesProcessed       int               `json:"files_processed"`
	FilesFailed          int               `json:"files_failed"`
	TotalCharacters      int               `json:"total_characters"`
	SuccessfulCharacters int               `json:"successful_characters"`
	FailedCharacters     int               `json:"failed_characters"`
	Documents            []*DocumentResult `json:"documents"`
	Errors               []FileError       `json:"errors,omitempty"`
}

func (b *BatchSummary) add(d *DocumentResult) {
	total, ok, failed := d.Counts()
	b.FilesProcessed++
	b.TotalCharacters += total
	b.SuccessfulCharacters += ok
	b.FailedCharacters += failed
	b.Documents = append(b.Documents, d)
}

func (b *BatchSummary) addError(path string, err error) {
	b.FilesProcessed++
	b.FilesFailed++
	b.Errors = append(b.Errors, FileError{Path: path, Error: err.Error(), ErrorCode: glypherr.CodeOf(err)})
}
