package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
)

func TestFunc(t *testing.T) {
	want := image.NewGray(image.Rect(0, 0, 2, 2))
	var gotZoom float64
	r := Func(func(_ context.Context, _ []byte, zoom float64) (*image.Gray, error) {
		gotZoom = zoom
		return want, nil
	})

	got, err := r.Render(context.Background(), nil, 4)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != want || gotZoom != 4 {
		t.Errorf("Render = %p, zoom %v; want %p, zoom 4", got, gotZoom, want)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{"", "*render.Subprocess", false},
		{KindSubprocess, "*render.Subprocess", false},
		{KindBuiltin, "*render.Builtin", false},
		{"cairo", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			r, err := New(Options{Kind: tt.kind})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown kind")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			switch r.(type) {
			case *Subprocess:
				if tt.want != "*render.Subprocess" {
					t.Errorf("got Subprocess, want %s", tt.want)
				}
			case *Builtin:
				if tt.want != "*render.Builtin" {
					t.Errorf("got Builtin, want %s", tt.want)
				}
			}
		})
	}
}

func TestNewSubprocess_Defaults(t *testing.T) {
	s := NewSubprocess("", "", 0)
	if s.Command != DefaultCommand {
		t.Errorf("Command = %q, want %q", s.Command, DefaultCommand)
	}
	if s.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultTimeout)
	}
}

// writeScript creates an executable shell script standing in for the
// rasterizer.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-rsvg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return path
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned up: %d entries left", len(entries))
	}
}

func TestSubprocess_Success(t *testing.T) {
	fixture := image.NewGray(image.Rect(0, 0, 6, 4))
	for i := range fixture.Pix {
		fixture.Pix[i] = 200
	}
	fixture.SetGray(2, 1, color.Gray{Y: 10})
	fixturePath := writePNG(t, fixture)
	argsPath := filepath.Join(t.TempDir(), "args.txt")

	script := writeScript(t, `echo "$@" > `+argsPath+`
cp `+fixturePath+` "$8"`)
	tmp := t.TempDir()
	s := NewSubprocess(script, tmp, 5*time.Second)

	g, err := s.Render(context.Background(), []byte("<svg/>"), 2.5)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if g.Bounds().Dx() != 6 || g.Bounds().Dy() != 4 {
		t.Errorf("raster size = %v, want 6x4", g.Bounds().Size())
	}
	if v := g.GrayAt(2, 1).Y; v > 20 {
		t.Errorf("pixel (2,1) = %d, want dark", v)
	}

	args, err := os.ReadFile(argsPath)
	if err != nil {
		t.Fatalf("script did not record args: %v", err)
	}
	got := strings.Fields(string(args))
	if len(got) != 9 || got[0] != "--zoom" || got[1] != "2.5" || got[3] != "white" || got[5] != "png" {
		t.Errorf("unexpected arguments: %v", got)
	}
	if !strings.HasSuffix(got[8], "isolated.svg") {
		t.Errorf("input path = %q, want isolated.svg", got[8])
	}
	assertEmptyDir(t, tmp)
}

func TestSubprocess_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		wantMsg string
	}{
		{"non-zero exit", `echo "bad svg" >&2; exit 3`, 5 * time.Second, "bad svg"},
		{"no output", `exit 0`, 5 * time.Second, "no output"},
		{"garbage output", `echo nope > "$8"`, 5 * time.Second, "decode"},
		{"timeout", `exec sleep 5`, 100 * time.Millisecond, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			s := NewSubprocess(writeScript(t, tt.body), tmp, tt.timeout)

			_, err := s.Render(context.Background(), []byte("<svg/>"), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, glypherr.ErrRasterization) {
				t.Errorf("error %v is not a RasterizationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
			assertEmptyDir(t, tmp)
		})
	}
}

func TestSubprocess_MissingCommand(t *testing.T) {
	s := NewSubprocess("/nonexistent/rsvg-convert", t.TempDir(), time.Second)
	if s.Available() {
		t.Error("Available should be false for a missing command")
	}
	_, err := s.Render(context.Background(), []byte("<svg/>"), 1)
	if !errors.Is(err, glypherr.ErrRasterization) {
		t.Errorf("expected RasterizationError, got %v", err)
	}
}

func TestSubprocess_InvalidZoom(t *testing.T) {
	s := NewSubprocess("true", t.TempDir(), time.Second)
	if _, err := s.Render(context.Background(), nil, 0); !errors.Is(err, glypherr.ErrRasterization) {
		t.Errorf("expected RasterizationError, got %v", err)
	}
}

const letterDoc = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20" viewBox="0 0 20 20">` +
	`<rect x="-20" y="-20" width="60" height="60" fill="#ffffff"/>` +
	`<text %s>O</text></svg>`

func darkStats(g *image.Gray) (count int, cx, cy float64) {
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y < 128 {
				count++
				cx += float64(x)
				cy += float64(y)
			}
		}
	}
	if count > 0 {
		cx /= float64(count)
		cy /= float64(count)
	}
	return count, cx, cy
}

func renderBuiltin(t *testing.T, svg string, zoom float64) *image.Gray {
	t.Helper()
	b, err := NewBuiltin()
	if err != nil {
		t.Fatalf("NewBuiltin failed: %v", err)
	}
	g, err := b.Render(context.Background(), []byte(svg), zoom)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return g
}

func TestBuiltin_DrawsLetter(t *testing.T) {
	g := renderBuiltin(t, strings.Replace(letterDoc, "%s", `x="5" y="15" font-size="12"`, 1), 5)

	if g.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("raster bounds = %v, want 100x100", g.Bounds())
	}
	n, cx, cy := darkStats(g)
	if n < 100 {
		t.Fatalf("only %d dark pixels rendered", n)
	}
	// "O" sits right of x=5 and above the baseline y=15 (pixels 25 and 75).
	if cx < 25 || cx > 75 {
		t.Errorf("centroid x = %.1f, want within glyph cell", cx)
	}
	if cy < 30 || cy > 75 {
		t.Errorf("centroid y = %.1f, want above baseline", cy)
	}
}

func TestBuiltin_AnchorMiddle(t *testing.T) {
	g := renderBuiltin(t, strings.Replace(letterDoc, "%s", `x="10" y="15" font-size="12" text-anchor="middle"`, 1), 5)

	_, cx, _ := darkStats(g)
	if cx < 42 || cx > 58 {
		t.Errorf("centroid x = %.1f, want about 50", cx)
	}
}

func TestBuiltin_HiddenFill(t *testing.T) {
	for _, attrs := range []string{
		`x="5" y="15" fill="none"`,
		`x="5" y="15" fill="#ffffff"`,
		`x="5" y="15" style="fill:white"`,
	} {
		g := renderBuiltin(t, strings.Replace(letterDoc, "%s", attrs, 1), 5)
		if n, _, _ := darkStats(g); n != 0 {
			t.Errorf("%s: %d dark pixels, want none", attrs, n)
		}
	}
}

func TestBuiltin_FragmentFill(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20" viewBox="0 0 40 20">` +
		`<text x="2" y="15" font-size="12"><tspan fill="#ffffff">C</tspan><tspan fill="#000000">O</tspan></text></svg>`
	g := renderBuiltin(t, svg, 4)

	n, cx, _ := darkStats(g)
	if n == 0 {
		t.Fatal("visible fragment was not drawn")
	}
	// only the second glyph is visible, so the ink sits right of the first cell
	if cx < 2*4+6*4 {
		t.Errorf("centroid x = %.1f, expected ink from the second fragment", cx)
	}
}

func TestBuiltin_Errors(t *testing.T) {
	b, err := NewBuiltin()
	if err != nil {
		t.Fatalf("NewBuiltin failed: %v", err)
	}

	if _, err := b.Render(context.Background(), []byte("<svg"), 1); !errors.Is(err, glypherr.ErrRasterization) {
		t.Errorf("malformed document: expected RasterizationError, got %v", err)
	}
	if _, err := b.Render(context.Background(), []byte(`<svg/>`), 1); !errors.Is(err, glypherr.ErrRasterization) {
		t.Errorf("missing dimensions: expected RasterizationError, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Render(ctx, []byte(`<svg width="1" height="1"/>`), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: expected context.Canceled in chain, got %v", err)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	runs := []run{{text: "  a\n\tb "}, {text: "  c"}, {text: "   "}}
	collapseWhitespace(runs)

	got := []string{runs[0].text, runs[1].text, runs[2].text}
	want := []string{"a b ", "c", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsBold(t *testing.T) {
	tests := map[string]bool{
		"bold": true, "bolder": true, "600": true, "700": true,
		"normal": false, "400": false, "lighter": false, "": false,
	}
	for in, want := range tests {
		if got := isBold(in); got != want {
			t.Errorf("isBold(%q) = %v, want %v", in, got, want)
		}
	}
}
