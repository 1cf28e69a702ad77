package coords

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDimensions_FallsBackToViewport(t *testing.T) {
	d := NewDimensions(ViewBox{X: 5, Y: 5, Width: 0, Height: 10}, 200, 100)

	assert.Equal(t, ViewBox{Width: 200, Height: 100}, d.ViewBox)
	assert.True(t, d.Valid())
}

func TestMapper_Scale(t *testing.T) {
	tests := []struct {
		name string
		dims Dimensions
		zoom float64
		want float64
	}{
		{"identity", NewDimensions(ViewBox{Width: 100, Height: 100}, 100, 100), 1, 1},
		{"zoomed", NewDimensions(ViewBox{Width: 100, Height: 100}, 100, 100), 10, 10},
		{"wide viewbox", NewDimensions(ViewBox{Width: 200, Height: 100}, 100, 100), 4, 2},
		{"tall viewbox", NewDimensions(ViewBox{Width: 50, Height: 200}, 100, 100), 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMapper(tt.dims, tt.zoom)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, m.Scale(), 1e-12)
		})
	}
}

func TestMapper_CentersViewBox(t *testing.T) {
	// A 200x100 viewBox in a 100x100 viewport is letterboxed vertically.
	m, err := NewMapper(NewDimensions(ViewBox{Width: 200, Height: 100}, 100, 100), 1)
	require.NoError(t, err)

	px, py := m.DocToPixel(0, 0)
	assert.InDelta(t, 0, px, 1e-12)
	assert.InDelta(t, 25, py, 1e-12)

	px, py = m.DocToPixel(200, 100)
	assert.InDelta(t, 100, px, 1e-12)
	assert.InDelta(t, 75, py, 1e-12)
}

func TestMapper_OffsetViewBoxOrigin(t *testing.T) {
	m, err := NewMapper(NewDimensions(ViewBox{X: -10, Y: 20, Width: 50, Height: 50}, 100, 100), 2)
	require.NoError(t, err)

	px, py := m.DocToPixel(-10, 20)
	assert.InDelta(t, 0, px, 1e-12)
	assert.InDelta(t, 0, py, 1e-12)
}

func TestMapper_RoundTrip(t *testing.T) {
	dims := []Dimensions{
		NewDimensions(ViewBox{Width: 100, Height: 100}, 100, 100),
		NewDimensions(ViewBox{X: -37.5, Y: 12.25, Width: 311, Height: 97}, 640, 480),
		NewDimensions(ViewBox{X: 1e3, Y: -2e3, Width: 0.5, Height: 3}, 20, 90),
	}
	zooms := []float64{0.5, 1, 4, 10, 13.7}
	points := [][2]float64{{0, 0}, {13.72, 16.28}, {-250, 1e4}, {1e-3, -7.77}}

	for _, d := range dims {
		for _, z := range zooms {
			m, err := NewMapper(d, z)
			require.NoError(t, err)
			for _, p := range points {
				px, py := m.DocToPixel(p[0], p[1])
				x, y := m.PixelToDoc(px, py)
				tol := 1e-9 * math.Max(1, math.Max(math.Abs(p[0]), math.Abs(p[1])))
				assert.InDelta(t, p[0], x, tol)
				assert.InDelta(t, p[1], y, tol)
			}
		}
	}
}

func TestMapper_Lengths(t *testing.T) {
	m, err := NewMapper(NewDimensions(ViewBox{Width: 50, Height: 50}, 100, 100), 10)
	require.NoError(t, err)

	assert.InDelta(t, 200, m.LengthToPixel(10), 1e-12)
	assert.InDelta(t, 10, m.LengthToDoc(200), 1e-12)

	w, h := m.RasterSize()
	assert.Equal(t, 1000, w)
	assert.Equal(t, 1000, h)
}

func TestNewMapper_Invalid(t *testing.T) {
	_, err := NewMapper(Dimensions{}, 1)
	assert.Error(t, err)

	_, err = NewMapper(NewDimensions(ViewBox{Width: 1, Height: 1}, 1, 1), 0)
	assert.Error(t, err)
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12", 12, false},
		{" 12.5px ", 12.5, false},
		{"72pt", 96, false},
		{"1in", 96, false},
		{"25.4mm", 96, false},
		{"-3", -3, false},
		{"50%", 0, true},
		{"2em", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLength(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
