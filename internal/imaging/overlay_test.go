package imaging

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func whiteGlyph(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

func TestDrawOverlay(t *testing.T) {
	ov := Overlay{
		Origin:  image.Pt(10, 10),
		Outline: []image.Point{{12, 25}},
		Hull:    []image.Point{{11, 11}, {28, 11}, {28, 28}},
		CenterX: 20,
		CenterY: 20,
		SemiX:   5,
		SemiY:   5,
		Scale:   4,
	}
	img := DrawOverlay(whiteGlyph(20, 20), ov)

	if img.Bounds() != image.Rect(0, 0, 80, 80) {
		t.Fatalf("bounds = %v, want 80x80", img.Bounds())
	}

	red := mustColor(EllipseColor)
	blue := mustColor(HullColor)
	green := mustColor(OutlineColor)
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"centre marker", 42, 42, red},
		{"ellipse right edge", 62, 42, red},
		{"hull top edge", 40, 6, blue},
		{"hull right edge", 74, 40, blue},
		{"outline point", 10, 62, green},
		{"background", 20, 75, color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDrawOverlay_DegenerateEllipse(t *testing.T) {
	img := DrawOverlay(whiteGlyph(10, 10), Overlay{
		CenterX: 5, CenterY: 5, SemiX: math.Inf(1), SemiY: 3,
	})

	red := mustColor(EllipseColor)
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.RGBAAt(x, y) == red {
				t.Fatalf("degenerate ellipse was drawn at (%d,%d)", x, y)
			}
		}
	}
}

func TestDrawOverlay_Grid(t *testing.T) {
	img := DrawOverlay(whiteGlyph(20, 20), Overlay{
		Origin:      image.Pt(10, 10),
		Scale:       4,
		GridSpacing: 5,
	})

	grid := mustColor(GridColor)
	// vertical lines at source x 10, 15, 20 and 25
	for _, x := range []int{0, 20, 40, 60} {
		if got := img.RGBAAt(x, 70); got != grid {
			t.Errorf("column %d at y=70 = %v, want grid colour", x, got)
		}
	}
	if got := img.RGBAAt(30, 70); got == grid {
		t.Error("grid drawn between lines")
	}

	// labels are black digits on white
	hasLabel := false
	for y := 2; y < 7; y++ {
		for x := 22; x < 30; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{0, 0, 0, 255}) {
				hasLabel = true
			}
		}
	}
	if !hasLabel {
		t.Error("grid line 15 is not labelled")
	}
}

func TestSaveOverlay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "diag")
	path, err := SaveOverlay(dir, "O_0", whiteGlyph(8, 8), Overlay{CenterX: 4, CenterY: 4, SemiX: 2, SemiY: 2})
	if err != nil {
		t.Fatalf("SaveOverlay failed: %v", err)
	}
	if path != filepath.Join(dir, "O_0_overlay.png") {
		t.Errorf("path = %q", path)
	}
	g, err := LoadGray(path)
	if err != nil {
		t.Fatalf("overlay not readable: %v", err)
	}
	if g.Bounds().Dx() != 8*DefaultOverlayScale {
		t.Errorf("width = %d, want %d", g.Bounds().Dx(), 8*DefaultOverlayScale)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := SaveOverlay(blocker, "x", whiteGlyph(2, 2), Overlay{}); err == nil {
		t.Error("expected error when dir is a file")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff3333", color.RGBA{255, 51, 51, 255}, false},
		{"3366FF", color.RGBA{51, 102, 255, 255}, false},
		{"#fff", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			got, err := parseHexColor(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawLabel_Clipped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	fg := color.RGBA{0, 0, 0, 255}
	bg := color.RGBA{255, 255, 255, 255}

	// must not panic when the label runs off the image
	drawLabel(img, 3, 3, "1234", fg, bg)
	drawLabel(img, -10, -10, "5", fg, bg)

	if img.RGBAAt(3, 3) != fg && img.RGBAAt(3, 3) != bg {
		t.Errorf("label not drawn at its origin: %v", img.RGBAAt(3, 3))
	}
}
