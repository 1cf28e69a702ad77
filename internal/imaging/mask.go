package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
)

// DefaultClosingKernel is the side of the square structuring element used
// to close anti-aliasing gaps.
const DefaultClosingKernel = 3

// Foreground and Background are the two values a Mask pixel can hold.
const (
	Foreground uint8 = 255
	Background uint8 = 0
)

// Mask is a binary image. Pix is row-major with stride Width.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask returns an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At reports whether (x,y) is foreground. Out-of-range positions are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] == Foreground
}

// Set marks (x,y) as foreground or background.
func (m *Mask) Set(x, y int, fg bool) {
	v := Background
	if fg {
		v = Foreground
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v == Foreground {
			n++
		}
	}
	return n
}

// Bounds returns the bounding box of the foreground, or false when empty.
func (m *Mask) Bounds() (image.Rectangle, bool) {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v != Foreground {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Gray renders the mask as a grayscale image (foreground white).
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(g.Pix, m.Pix)
	return g
}

// OtsuLevel returns the gray level that maximizes the between-class variance
// of the histogram of g. Pixels at or below the level form the dark class.
// A single-valued image yields 0.
func OtsuLevel(g *image.Gray) uint8 {
	hist := histogram.NewRGBAHistogram(g)
	bins := hist.R.Bins

	var total, sum float64
	for i, c := range bins {
		total += float64(c)
		sum += float64(i) * float64(c)
	}

	var (
		wB, sumB   float64
		best       float64
		level      int
		haveChoice bool
	)
	for t, c := range bins {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(c)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if !haveChoice || between > best {
			best = between
			level = t
			haveChoice = true
		}
	}
	return uint8(level)
}

// Threshold marks pixels of g at or below level as foreground.
func Threshold(g *image.Gray, level uint8) *Mask {
	b := g.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+m.Width]
		dst := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range src {
			if v <= level {
				dst[x] = Foreground
			}
		}
	}
	return m
}

// ExtractMask thresholds g with Otsu's level (dark ink becomes foreground)
// and applies one closing with a kernel×kernel square. kernel < 2 skips
// the closing.
func ExtractMask(g *image.Gray, kernel int) *Mask {
	m := Threshold(g, OtsuLevel(g))
	if kernel >= 2 {
		m = Close(m, kernel)
	}
	return m
}

// Close applies a morphological closing (dilation then erosion) with a
// size×size square. Outside the image counts as background for the dilation
// and as foreground for the erosion, so closing never removes pixels.
func Close(m *Mask, size int) *Mask {
	before := size / 2
	after := size - 1 - before
	dilated := morph(m, -after, before, true)
	return morph(dilated, -before, after, false)
}

// morph runs a separable square max (dilate) or min (erode) filter over the
// window [lo, hi] around each pixel.
func morph(m *Mask, lo, hi int, dilate bool) *Mask {
	w, h := m.Width, m.Height
	// value seen beyond the border
	edge := Foreground
	if dilate {
		edge = Background
	}
	hit := func(v uint8) bool {
		if dilate {
			return v == Foreground
		}
		return v == Background
	}
	set, unset := Background, Foreground
	if dilate {
		set, unset = Foreground, Background
	}

	tmp := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out := unset
			for k := x + lo; k <= x+hi; k++ {
				v := edge
				if k >= 0 && k < w {
					v = m.Pix[y*w+k]
				}
				if hit(v) {
					out = set
					break
				}
			}
			tmp.Pix[y*w+x] = out
		}
	}

	out := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			res := unset
			for k := y + lo; k <= y+hi; k++ {
				v := edge
				if k >= 0 && k < h {
					v = tmp.Pix[k*w+x]
				}
				if hit(v) {
					res = set
					break
				}
			}
			out.Pix[y*w+x] = res
		}
	}
	return out
}
