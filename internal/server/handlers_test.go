package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/letter-center-mcp/internal/config"
	"github.com/ironsheep/letter-center-mcp/internal/render"
)

const twoLetters = `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="30" viewBox="0 0 40 30">` +
	`<text x="5" y="20" font-size="12">O</text>` +
	`<text x="22" y="20" font-size="12">C</text></svg>`

// newTestServer returns a server rendering with the in-process rasterizer.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	r, err := render.NewBuiltin()
	if err != nil {
		t.Fatalf("NewBuiltin failed: %v", err)
	}
	cfg := config.Default()
	cfg.Renderer = render.KindBuiltin
	return New(cfg, r, nil)
}

// writeSVG writes an SVG fixture and returns its path.
func writeSVG(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// callTool issues a tools/call request.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeContent unmarshals the text content of a successful tool response.
func decodeContent(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("tool result is not JSON: %v\n%s", err, text)
	}
}

func expectToolError(t *testing.T, resp *MCPResponse, want string) {
	t.Helper()
	if resp.Error == nil {
		t.Fatal("Expected an error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, want) {
		t.Errorf("error data %q does not mention %q", data, want)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want -32602", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	expectToolError(t, callTool(t, newTestServer(t), "image_load", nil), "unknown tool")
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"svg_dimensions", "svg_find_letters", "svg_isolate_letter", "svg_fit_letters", "svg_fit_letter"} {
		t.Run(name, func(t *testing.T) {
			expectToolError(t, callTool(t, s, name, map[string]interface{}{}), "path is required")
		})
	}
	expectToolError(t, callTool(t, s, "svg_fit_directory", map[string]interface{}{}), "dir is required")
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "svg_fit_letters", map[string]interface{}{"path": "/nonexistent/diagram.svg"})
	if resp.Error == nil {
		t.Fatal("Expected error for a missing file")
	}
}

func TestHandleDimensions(t *testing.T) {
	s := newTestServer(t)
	path := writeSVG(t, t.TempDir(), "d.svg", twoLetters)

	tests := []struct {
		name      string
		zoom      float64
		wantZoom  float64
		wantWidth int
	}{
		{"explicit zoom", 5, 5, 200},
		{"configured zoom", 0, s.cfg.Zoom, int(40 * s.cfg.Zoom)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"path": path}
			if tt.zoom > 0 {
				args["zoom"] = tt.zoom
			}
			var got DimensionsResult
			decodeContent(t, callTool(t, s, "svg_dimensions", args), &got)

			if got.Zoom != tt.wantZoom || got.Scale != tt.wantZoom {
				t.Errorf("zoom/scale: got %v/%v, want %v", got.Zoom, got.Scale, tt.wantZoom)
			}
			if got.RasterWidth != tt.wantWidth || got.RasterHeight != tt.wantWidth*30/40 {
				t.Errorf("raster size: got %dx%d", got.RasterWidth, got.RasterHeight)
			}
			if got.OffsetX != 0 || got.OffsetY != 0 {
				t.Errorf("offset: got (%v, %v), want origin", got.OffsetX, got.OffsetY)
			}
			if got.Dimensions.ViewBox.Width != 40 || got.Dimensions.ViewportHeight != 30 {
				t.Errorf("unexpected dimensions: %+v", got.Dimensions)
			}
		})
	}
}

func TestHandleFindLetters(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	path := writeSVG(t, dir, "d.svg", twoLetters)

	var all FindLettersResult
	decodeContent(t, callTool(t, s, "svg_find_letters", map[string]interface{}{"path": path}), &all)
	if all.Count != 2 || len(all.Occurrences) != 2 {
		t.Fatalf("count: got %d, want 2", all.Count)
	}
	if all.Occurrences[0].Character != "O" || all.Occurrences[1].Character != "C" {
		t.Errorf("order: got %s, %s", all.Occurrences[0].Character, all.Occurrences[1].Character)
	}
	if all.Letters != s.cfg.Letters {
		t.Errorf("letters: got %q, want configured %q", all.Letters, s.cfg.Letters)
	}

	var onlyC FindLettersResult
	decodeContent(t, callTool(t, s, "svg_find_letters", map[string]interface{}{"path": path, "letters": "C"}), &onlyC)
	if onlyC.Count != 1 || onlyC.Occurrences[0].TextIndex != 1 {
		t.Errorf("letters=C: got %+v", onlyC)
	}

	empty := writeSVG(t, dir, "empty.svg", `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><text>H</text></svg>`)
	resp := callTool(t, s, "svg_find_letters", map[string]interface{}{"path": empty})
	var none map[string]interface{}
	decodeContent(t, resp, &none)
	if occ, ok := none["occurrences"].([]interface{}); !ok || len(occ) != 0 {
		t.Errorf("occurrences: got %v, want empty list", none["occurrences"])
	}
}

func TestHandleIsolateLetter(t *testing.T) {
	s := newTestServer(t)
	path := writeSVG(t, t.TempDir(), "d.svg", twoLetters)

	var plain IsolateResult
	decodeContent(t, callTool(t, s, "svg_isolate_letter", map[string]interface{}{"path": path, "index": 1}), &plain)
	if plain.Occurrence.Character != "C" || plain.Index != 0 {
		t.Errorf("occurrence: got %s index %d, want C index 0", plain.Occurrence.Character, plain.Index)
	}
	if !strings.Contains(plain.SVG, "<svg") || !strings.Contains(plain.SVG, ">C</tspan>") {
		t.Errorf("unexpected isolation document: %s", plain.SVG)
	}
	if plain.Preview != nil {
		t.Error("preview should be omitted unless requested")
	}

	var withPreview IsolateResult
	decodeContent(t, callTool(t, s, "svg_isolate_letter", map[string]interface{}{
		"path": path, "index": 0, "preview": true, "zoom": 5,
	}), &withPreview)
	p := withPreview.Preview
	if p == nil {
		t.Fatal("preview missing")
	}
	if p.Empty {
		t.Error("preview reports an empty glyph")
	}
	if p.Raster.Width != 200 || p.Raster.Height != 150 {
		t.Errorf("raster %dx%d, want 200x150", p.Raster.Width, p.Raster.Height)
	}
	raw, err := base64.StdEncoding.DecodeString(p.PNG)
	if err != nil {
		t.Fatalf("preview is not base64: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if cfg.Width != p.Width || cfg.Height != p.Height {
		t.Errorf("PNG %dx%d, reported %dx%d", cfg.Width, cfg.Height, p.Width, p.Height)
	}
	if p.Width >= 200 || p.Height >= 150 {
		t.Errorf("preview %dx%d was not cropped to the glyph", p.Width, p.Height)
	}
}

func TestHandleIsolateLetter_Errors(t *testing.T) {
	s := newTestServer(t)
	path := writeSVG(t, t.TempDir(), "d.svg", twoLetters)

	expectToolError(t, callTool(t, s, "svg_isolate_letter", map[string]interface{}{"path": path, "index": 2}), "out of range")
	expectToolError(t, callTool(t, s, "svg_isolate_letter", map[string]interface{}{"path": path, "index": -1}), "out of range")

	noRenderer := New(config.Default(), nil, nil)
	expectToolError(t, callTool(t, noRenderer, "svg_isolate_letter", map[string]interface{}{
		"path": path, "index": 0, "preview": true,
	}), "no renderer")
}

// fitDocument mirrors the parts of a document result the tests inspect.
type fitDocument struct {
	DocumentID string  `json:"document_id"`
	Zoom       float64 `json:"zoom"`
	Characters []struct {
		Character  string `json:"character"`
		Index      int    `json:"index"`
		Error      string `json:"error"`
		SVGEllipse *struct {
			CX, CY, RX, RY float64
		} `json:"svg_ellipse"`
	} `json:"characters"`
}

func TestHandleFitLetters(t *testing.T) {
	s := newTestServer(t)
	path := writeSVG(t, t.TempDir(), "d.svg", twoLetters)

	var doc fitDocument
	decodeContent(t, callTool(t, s, "svg_fit_letters", map[string]interface{}{"path": path}), &doc)

	if doc.DocumentID == "" {
		t.Error("document_id missing")
	}
	if len(doc.Characters) != 2 {
		t.Fatalf("got %d characters, want 2", len(doc.Characters))
	}
	o := doc.Characters[0]
	if o.Character != "O" || o.Error != "" || o.SVGEllipse == nil {
		t.Fatalf("O was not fitted: %+v", o)
	}
	// the O cell spans roughly x 5..14 and y 11..20
	if o.SVGEllipse.CX < 5 || o.SVGEllipse.CX > 15 || o.SVGEllipse.CY < 10 || o.SVGEllipse.CY > 21 {
		t.Errorf("O centre (%.2f, %.2f) outside its cell", o.SVGEllipse.CX, o.SVGEllipse.CY)
	}

	var onlyO fitDocument
	decodeContent(t, callTool(t, s, "svg_fit_letters", map[string]interface{}{"path": path, "letters": "O", "zoom": 6}), &onlyO)
	if len(onlyO.Characters) != 1 || onlyO.Zoom != 6 {
		t.Errorf("overrides ignored: %d characters at zoom %v", len(onlyO.Characters), onlyO.Zoom)
	}
}

func TestHandleFitLetter(t *testing.T) {
	s := newTestServer(t)
	path := writeSVG(t, t.TempDir(), "d.svg", twoLetters)

	var got struct {
		Character string `json:"character"`
		Index     int    `json:"index"`
		TextIndex int    `json:"text_index"`
	}
	decodeContent(t, callTool(t, s, "svg_fit_letter", map[string]interface{}{"path": path, "index": 1}), &got)
	if got.Character != "C" || got.Index != 0 || got.TextIndex != 1 {
		t.Errorf("got %+v, want the C of the second text", got)
	}
}

func TestHandleFitDirectory(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	writeSVG(t, dir, "a.svg", twoLetters)
	writeSVG(t, dir, "b.svg", strings.Replace(twoLetters, ">C<", ">H<", 1))
	writeSVG(t, dir, "c.svg", "<svg")
	writeSVG(t, dir, "notes.txt", "ignored")

	var got struct {
		FilesProcessed  int    `json:"files_processed"`
		FilesFailed     int    `json:"files_failed"`
		TotalCharacters int    `json:"total_characters"`
		Report          string `json:"report"`
		Errors          []struct {
			Path string `json:"path"`
		} `json:"errors"`
	}
	decodeContent(t, callTool(t, s, "svg_fit_directory", map[string]interface{}{"dir": dir, "report": true}), &got)

	if got.FilesProcessed != 3 || got.FilesFailed != 1 {
		t.Errorf("files: processed %d failed %d, want 3 and 1", got.FilesProcessed, got.FilesFailed)
	}
	if got.TotalCharacters != 3 {
		t.Errorf("total characters: got %d, want 3", got.TotalCharacters)
	}
	if len(got.Errors) != 1 || filepath.Base(got.Errors[0].Path) != "c.svg" {
		t.Errorf("errors: got %+v", got.Errors)
	}
	if !strings.Contains(got.Report, "Letter Glyph Ellipse Fitting Summary") {
		t.Errorf("report missing: %q", got.Report)
	}

	expectToolError(t, callTool(t, s, "svg_fit_directory", map[string]interface{}{"dir": t.TempDir()}), "no SVG files")
}
