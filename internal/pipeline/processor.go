package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/letter-center-mcp/internal/coords"
	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
	"github.com/ironsheep/letter-center-mcp/internal/geometry"
	"github.com/ironsheep/letter-center-mcp/internal/imaging"
	"github.com/ironsheep/letter-center-mcp/internal/isolate"
	"github.com/ironsheep/letter-center-mcp/internal/logging"
	"github.com/ironsheep/letter-center-mcp/internal/ocr"
	"github.com/ironsheep/letter-center-mcp/internal/render"
	"github.com/ironsheep/letter-center-mcp/internal/scanner"
	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

// DefaultMinGlyphPixels is the smallest mask that counts as an isolated glyph.
const DefaultMinGlyphPixels = 10

// Options control a Processor. Start from DefaultOptions: an empty Letters,
// a non-positive Zoom, CoverageTolerance, ClosingKernel or Workers and empty
// isolation settings take their defaults, while MinGlyphPixels and
// CropPadding are used as given (negative counts as zero).
type Options struct {
	Letters           string
	Zoom              float64
	MinGlyphPixels    int
	CoverageTolerance float64
	ClosingKernel     int
	CropPadding       int
	Workers           int
	RenderTimeout     time.Duration // per character; 0 leaves it to the renderer
	DiagnosticsDir    string        // empty disables diagnostic images
	VerifyOCR         bool
	Isolation         isolate.Options
}

// DefaultOptions returns the options used for unset fields.
func DefaultOptions() Options {
	return Options{
		Letters:           "OC",
		Zoom:              10,
		MinGlyphPixels:    DefaultMinGlyphPixels,
		CoverageTolerance: geometry.DefaultCoverageTolerance,
		ClosingKernel:     imaging.DefaultClosingKernel,
		CropPadding:       imaging.DefaultCropPadding,
		Workers:           1,
		Isolation:         isolate.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Letters == "" {
		o.Letters = d.Letters
	}
	if o.Zoom <= 0 {
		o.Zoom = d.Zoom
	}
	if o.MinGlyphPixels < 0 {
		o.MinGlyphPixels = 0
	}
	if o.CoverageTolerance <= 0 {
		o.CoverageTolerance = d.CoverageTolerance
	}
	if o.ClosingKernel <= 0 {
		o.ClosingKernel = d.ClosingKernel
	}
	if o.CropPadding < 0 {
		o.CropPadding = 0
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.Isolation.Background == "" {
		o.Isolation.Background = d.Isolation.Background
	}
	if o.Isolation.Overscan <= 0 {
		o.Isolation.Overscan = d.Isolation.Overscan
	}
	return o
}

// Processor runs the per-character fitting pipeline:
//
//	scan → isolate → render → mask → outline → hull/ellipse/quality → compose
//
// A Processor holds no per-document state and may be shared between
// goroutines.
type Processor struct {
	renderer render.Renderer
	opts     Options
	log      *logging.Logger
}

// New creates a Processor. A nil logger discards output.
func New(r render.Renderer, opts Options, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{renderer: r, opts: opts.withDefaults(), log: logger}
}

// Options returns the effective options.
func (p *Processor) Options() Options {
	return p.opts
}

// ProcessFile parses and processes the document at path.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*DocumentResult, error) {
	doc, err := svgdoc.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return p.ProcessDocument(ctx, doc, path)
}

// ProcessDocument fits every target character of doc. Document-level
// failures (dimensions, scanning) are returned; character-level failures
// become error entries in the result. Characters are processed on up to
// Options.Workers goroutines and reported in document order.
func (p *Processor) ProcessDocument(ctx context.Context, doc *svgdoc.Document, source string) (*DocumentResult, error) {
	start := time.Now()

	dims, err := doc.Dimensions()
	if err != nil {
		return nil, err
	}
	mapper, err := coords.NewMapper(dims, p.opts.Zoom)
	if err != nil {
		return nil, glypherr.NewParseError("unusable document dimensions", err)
	}
	occs, err := scanner.Scan(doc, p.opts.Letters)
	if err != nil {
		return nil, err
	}

	result := &DocumentResult{
		DocumentID:    uuid.New().String(),
		Source:        source,
		Dimensions:    dims,
		TargetLetters: p.opts.Letters,
		Zoom:          p.opts.Zoom,
		Characters:    make([]CharacterResult, len(occs)),
	}

	indices := letterIndices(occs)
	job := func(i int) {
		result.Characters[i] = p.processCharacter(ctx, doc, mapper, occs[i], indices[i], diagnosticsBase(source, result.DocumentID))
	}

	workers := p.opts.Workers
	if workers > len(occs) {
		workers = len(occs)
	}
	if workers <= 1 {
		for i := range occs {
			job(i)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					job(i)
				}
			}()
		}
		for i := range occs {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	if p.opts.DiagnosticsDir != "" {
		path, err := saveOverlay(p.opts.DiagnosticsDir, diagnosticsBase(source, result.DocumentID), doc, result)
		if err != nil {
			p.log.Warn("overlay document not written", "source", source, "error", err)
		} else {
			result.DiagnosticSVG = path
		}
	}

	total, ok, failed := result.Counts()
	p.log.Info("document processed",
		"source", source,
		"document_id", result.DocumentID,
		"characters", total,
		"successful", ok,
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// ProcessDirectory processes every *.svg file in dir, sorted by name. A
// file that fails to parse is recorded in the summary and the batch
// continues.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (*BatchSummary, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.svg"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no SVG files found in %s", dir)
	}
	sort.Strings(files)

	summary := &BatchSummary{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		doc, err := p.ProcessFile(ctx, f)
		if err != nil {
			p.log.Warn("document skipped", "source", f, "error", err)
			summary.addError(f, err)
			continue
		}
		summary.add(doc)
	}
	return summary, nil
}

// ProcessCharacter runs the pipeline for a single occurrence of doc.
func (p *Processor) ProcessCharacter(ctx context.Context, doc *svgdoc.Document, occ scanner.Occurrence, index int) (CharacterResult, error) {
	dims, err := doc.Dimensions()
	if err != nil {
		return CharacterResult{}, err
	}
	mapper, err := coords.NewMapper(dims, p.opts.Zoom)
	if err != nil {
		return CharacterResult{}, glypherr.NewParseError("unusable document dimensions", err)
	}
	return p.processCharacter(ctx, doc, mapper, occ, index, ""), nil
}

func (p *Processor) processCharacter(ctx context.Context, doc *svgdoc.Document, m coords.Mapper, occ scanner.Occurrence, index int, diagBase string) CharacterResult {
	res, err := p.fit(ctx, doc, m, occ, index, diagBase)
	if err != nil {
		p.log.Debug("character failed",
			"character", occ.Character,
			"index", index,
			"text_index", occ.TextIndex,
			"span_index", occ.SpanIndex,
			"code", glypherr.CodeOf(err),
			"error", err,
		)
		return Failure(occ, index, err)
	}
	if p.log.Enabled(logging.LevelDebug) {
		p.log.Debug("character fitted",
			"character", occ.Character,
			"index", index,
			"cx", fmt.Sprintf("%.3f", res.DocEllipse.CX),
			"cy", fmt.Sprintf("%.3f", res.DocEllipse.CY),
			"method", res.PixelEllipse.Method,
		)
	}
	return res
}

func (p *Processor) fit(ctx context.Context, doc *svgdoc.Document, m coords.Mapper, occ scanner.Occurrence, index int, diagBase string) (CharacterResult, error) {
	iso, err := isolate.Isolate(doc, occ, p.opts.Isolation)
	if err != nil {
		return CharacterResult{}, err
	}
	svg, err := isolate.Render(iso)
	if err != nil {
		return CharacterResult{}, fmt.Errorf("failed to serialize isolation document: %w", err)
	}

	if p.opts.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RenderTimeout)
		defer cancel()
	}
	raster, err := p.renderer.Render(ctx, svg, p.opts.Zoom)
	if err != nil {
		var ge *glypherr.GlyphError
		if !errors.As(err, &ge) {
			err = glypherr.NewRasterizationError("renderer", err)
		}
		return CharacterResult{}, err
	}

	if p.log.Enabled(logging.LevelDebug) {
		info := imaging.Info(raster)
		p.log.Debug("rasterized", "character", occ.Character, "index", index,
			"width", info.Width, "height", info.Height, "mean", fmt.Sprintf("%.1f", info.Mean))
	}

	mask := imaging.ExtractMask(raster, p.opts.ClosingKernel)
	pixels := mask.Count()
	if pixels < p.opts.MinGlyphPixels {
		return CharacterResult{}, glypherr.NewIsolationFailure(pixels, p.opts.MinGlyphPixels)
	}

	crop, ok := imaging.CropGlyph(mask, p.opts.CropPadding)
	if !ok {
		return CharacterResult{}, glypherr.NewEmptyMaskError()
	}
	local, err := imaging.ExtractOutline(crop.Mask)
	if err != nil {
		return CharacterResult{}, err
	}
	pixelOutline := crop.Shift(local)
	outline := geometry.FromImagePoints(pixelOutline)

	hull, err := geometry.ConvexHull(outline)
	if err != nil {
		return CharacterResult{}, err
	}
	ellipse, err := geometry.FitEllipse(geometry.FitPointsFor(occ.Character, outline, hull))
	if err != nil {
		return CharacterResult{}, err
	}
	quality, err := geometry.Quality(outline, ellipse, p.opts.CoverageTolerance)
	if err != nil {
		return CharacterResult{}, err
	}

	res := Compose(occ, index, m, ellipse, hull, quality)
	res.GlyphPixels = pixels
	res.OutlinePoints = len(outline)
	res.CropOffset = &Offset{X: crop.Offset.X, Y: crop.Offset.Y}

	if p.opts.DiagnosticsDir == "" && !p.opts.VerifyOCR {
		return res, nil
	}
	glyph, err := imaging.CropImage(raster, crop.Region())
	if err != nil {
		p.log.Warn("glyph crop failed", "character", occ.Character, "index", index, "error", err)
		return res, nil
	}
	if p.opts.DiagnosticsDir != "" {
		name := fmt.Sprintf("%s_%s_%d", diagBase, occ.Character, index)
		if diagBase == "" {
			name = fmt.Sprintf("%s_%d", occ.Character, index)
		}
		path, err := imaging.SaveDiagnostics(p.opts.DiagnosticsDir, name, glyph, crop.Mask)
		if err != nil {
			p.log.Warn("diagnostics not written", "character", occ.Character, "index", index, "error", err)
		} else {
			res.DiagnosticFile = path
		}
		path, err = imaging.SaveOverlay(p.opts.DiagnosticsDir, name, glyph, overlayFor(crop, pixelOutline, hull, ellipse))
		if err != nil {
			p.log.Warn("overlay not written", "character", occ.Character, "index", index, "error", err)
		} else {
			res.OverlayFile = path
		}
	}
	if p.opts.VerifyOCR {
		v, err := ocr.Verify(glyph, occ.Character, p.opts.Letters)
		if err != nil {
			v = ocr.Skipped(occ.Character, err)
		}
		res.OCR = v
	}
	return res, nil
}

// overlayGrid is the grid spacing of overlay images in raster pixels.
const overlayGrid = 10

func overlayFor(crop imaging.GlyphCrop, outline []image.Point, hull geometry.Hull, e geometry.Ellipse) imaging.Overlay {
	vertices := make([]image.Point, len(hull.Vertices))
	for i, v := range hull.Vertices {
		vertices[i] = image.Pt(int(math.Round(v.X)), int(math.Round(v.Y)))
	}
	return imaging.Overlay{
		Origin:      crop.Offset,
		Outline:     outline,
		Hull:        vertices,
		CenterX:     e.Center.X,
		CenterY:     e.Center.Y,
		SemiX:       e.SemiX,
		SemiY:       e.SemiY,
		GridSpacing: overlayGrid,
	}
}

// letterIndices numbers the occurrences of each letter in document order.
func letterIndices(occs []scanner.Occurrence) []int {
	seen := make(map[string]int)
	out := make([]int, len(occs))
	for i, o := range occs {
		out[i] = seen[o.Character]
		seen[o.Character]++
	}
	return out
}

// diagnosticsBase names diagnostic files after the source document.
func diagnosticsBase(source, id string) string {
	if source == "" {
		return id[:8]
	}
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
