package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/letter-center-mcp/internal/coords"
	"github.com/ironsheep/letter-center-mcp/internal/imaging"
	"github.com/ironsheep/letter-center-mcp/internal/isolate"
	"github.com/ironsheep/letter-center-mcp/internal/pipeline"
	"github.com/ironsheep/letter-center-mcp/internal/scanner"
	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "svg_fit_letters").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Document Information
	case "svg_dimensions":
		return s.handleDimensions(args)
	case "svg_find_letters":
		return s.handleFindLetters(args)

	// Isolation
	case "svg_isolate_letter":
		return s.handleIsolateLetter(ctx, args)

	// Ellipse Fitting
	case "svg_fit_letters":
		return s.handleFitLetters(ctx, args)
	case "svg_fit_letter":
		return s.handleFitLetter(ctx, args)
	case "svg_fit_directory":
		return s.handleFitDirectory(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func (s *Server) zoomOr(zoom float64) float64 {
	if zoom > 0 {
		return zoom
	}
	return s.cfg.Zoom
}

func (s *Server) lettersOr(letters string) string {
	if letters != "" {
		return letters
	}
	return s.cfg.Letters
}

// === Document Information Handlers ===

type svgPathArgs struct {
	Path    string  `json:"path"`
	Letters string  `json:"letters,omitempty"`
	Zoom    float64 `json:"zoom,omitempty"`
}

func (a svgPathArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// DimensionsResult describes a document's geometry at a zoom factor.
type DimensionsResult struct {
	Path         string            `json:"path"`
	Dimensions   coords.Dimensions `json:"dimensions"`
	Zoom         float64           `json:"zoom"`
	Scale        float64           `json:"scale"`
	OffsetX      float64           `json:"offset_x"`
	OffsetY      float64           `json:"offset_y"`
	RasterWidth  int               `json:"raster_width"`
	RasterHeight int               `json:"raster_height"`
}

func (s *Server) handleDimensions(args json.RawMessage) (interface{}, error) {
	var a svgPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	doc, err := svgdoc.ParseFile(a.Path)
	if err != nil {
		return nil, err
	}
	dims, err := doc.Dimensions()
	if err != nil {
		return nil, err
	}
	zoom := s.zoomOr(a.Zoom)
	m, err := coords.NewMapper(dims, zoom)
	if err != nil {
		return nil, err
	}
	ox, oy := m.Offset()
	w, h := m.RasterSize()
	return &DimensionsResult{
		Path:         a.Path,
		Dimensions:   dims,
		Zoom:         zoom,
		Scale:        m.Scale(),
		OffsetX:      ox,
		OffsetY:      oy,
		RasterWidth:  w,
		RasterHeight: h,
	}, nil
}

// FindLettersResult lists the occurrences found in a document.
type FindLettersResult struct {
	Path        string               `json:"path"`
	Letters     string               `json:"letters"`
	Count       int                  `json:"count"`
	Occurrences []scanner.Occurrence `json:"occurrences"`
}

func (s *Server) handleFindLetters(args json.RawMessage) (interface{}, error) {
	var a svgPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	letters := s.lettersOr(a.Letters)
	occs, err := scanner.ScanFile(a.Path, letters)
	if err != nil {
		return nil, err
	}
	if occs == nil {
		occs = []scanner.Occurrence{}
	}
	return &FindLettersResult{
		Path:        a.Path,
		Letters:     letters,
		Count:       len(occs),
		Occurrences: occs,
	}, nil
}

// === Isolation Handlers ===

type svgIndexArgs struct {
	svgPathArgs
	Index   int  `json:"index"`
	Preview bool `json:"preview,omitempty"`
}

// locate parses the document and resolves the indexed occurrence. It also
// returns the occurrence's index among earlier matches of the same letter.
func (s *Server) locate(a svgIndexArgs) (*svgdoc.Document, scanner.Occurrence, int, error) {
	if err := a.validate(); err != nil {
		return nil, scanner.Occurrence{}, 0, err
	}
	doc, err := svgdoc.ParseFile(a.Path)
	if err != nil {
		return nil, scanner.Occurrence{}, 0, err
	}
	occs, err := scanner.Scan(doc, s.lettersOr(a.Letters))
	if err != nil {
		return nil, scanner.Occurrence{}, 0, err
	}
	if a.Index < 0 || a.Index >= len(occs) {
		return nil, scanner.Occurrence{}, 0, fmt.Errorf("index %d out of range (found %d occurrences)", a.Index, len(occs))
	}
	letterIndex := 0
	for _, o := range occs[:a.Index] {
		if o.Character == occs[a.Index].Character {
			letterIndex++
		}
	}
	return doc, occs[a.Index], letterIndex, nil
}

// PreviewResult is a rendered isolation document cropped to the glyph.
type PreviewResult struct {
	Raster     imaging.RasterInfo `json:"raster"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	CropOffset pipeline.Offset    `json:"crop_offset"`
	Empty      bool               `json:"empty,omitempty"`
	PNG        string             `json:"png_base64"`
}

// IsolateResult holds an isolation document and an optional preview.
type IsolateResult struct {
	Occurrence scanner.Occurrence `json:"occurrence"`
	Index      int                `json:"index"`
	SVG        string             `json:"svg"`
	Preview    *PreviewResult     `json:"preview,omitempty"`
}

func (s *Server) handleIsolateLetter(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a svgIndexArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	doc, occ, index, err := s.locate(a)
	if err != nil {
		return nil, err
	}
	iso, err := isolate.Isolate(doc, occ, isolate.DefaultOptions())
	if err != nil {
		return nil, err
	}
	svg, err := isolate.Render(iso)
	if err != nil {
		return nil, err
	}

	result := &IsolateResult{Occurrence: occ, Index: index, SVG: string(svg)}
	if a.Preview {
		if result.Preview, err = s.preview(ctx, svg, s.zoomOr(a.Zoom)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Server) preview(ctx context.Context, svg []byte, zoom float64) (*PreviewResult, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("no renderer configured")
	}
	raster, err := s.renderer.Render(ctx, svg, zoom)
	if err != nil {
		return nil, err
	}

	region := raster.Bounds()
	crop, ok := imaging.CropGlyph(imaging.ExtractMask(raster, s.cfg.ClosingKernel), s.cfg.CropPadding)
	if ok {
		region = crop.Region()
	}
	img, err := imaging.CropImage(raster, region)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Raster:     imaging.Info(raster),
		Width:      region.Dx(),
		Height:     region.Dy(),
		CropOffset: pipeline.Offset{X: region.Min.X, Y: region.Min.Y},
		Empty:      !ok,
		PNG:        encoded,
	}, nil
}

// === Ellipse Fitting Handlers ===

func (s *Server) handleFitLetters(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a svgPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.processor(a.Letters, a.Zoom).ProcessFile(ctx, a.Path)
}

func (s *Server) handleFitLetter(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a svgIndexArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	doc, occ, index, err := s.locate(a)
	if err != nil {
		return nil, err
	}
	return s.processor(a.Letters, a.Zoom).ProcessCharacter(ctx, doc, occ, index)
}

type fitDirectoryArgs struct {
	Dir     string  `json:"dir"`
	Letters string  `json:"letters,omitempty"`
	Zoom    float64 `json:"zoom,omitempty"`
	Report  bool    `json:"report,omitempty"`
}

// FitDirectoryResult is a batch summary with an optional text report.
type FitDirectoryResult struct {
	*pipeline.BatchSummary
	Report string `json:"report,omitempty"`
}

func (s *Server) handleFitDirectory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a fitDirectoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	summary, err := s.processor(a.Letters, a.Zoom).ProcessDirectory(ctx, a.Dir)
	if err != nil {
		return nil, err
	}

	result := &FitDirectoryResult{BatchSummary: summary}
	if a.Report {
		var buf bytes.Buffer
		if err := pipeline.WriteSummary(&buf, summary); err != nil {
			return nil, err
		}
		result.Report = buf.String()
	}
	return result, nil
}
