package geometry

import (
	"math"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
)

// Method identifies how an Ellipse was obtained.
type Method string

const (
	MethodLeastSquares Method = "least_squares"
	MethodBoundingBox  Method = "bounding_box"
)

// MinEllipsePoints is the minimum number of points FitEllipse accepts.
const MinEllipsePoints = 5

// rankTolerance is the relative size below which an R diagonal entry is treated as zero.
const rankTolerance = 1e-10

// Ellipse is an axis-aligned ellipse.
type Ellipse struct {
	Center       Point   `json:"center"`
	SemiX        float64 `json:"semi_x"`
	SemiY        float64 `json:"semi_y"`
	MajorAxis    float64 `json:"major_axis"`
	MinorAxis    float64 `json:"minor_axis"`
	Area         float64 `json:"area"`
	Eccentricity float64 `json:"eccentricity"`
	Method       Method  `json:"method"`
}

// NewEllipse builds an Ellipse and fills in its derived measures.
func NewEllipse(center Point, semiX, semiY float64, method Method) Ellipse {
	major := math.Max(semiX, semiY)
	minor := math.Min(semiX, semiY)
	var ecc float64
	if major > 0 {
		r := minor / major
		ecc = math.Sqrt(math.Max(0, 1-r*r))
	}
	return Ellipse{
		Center:       center,
		SemiX:        semiX,
		SemiY:        semiY,
		MajorAxis:    major,
		MinorAxis:    minor,
		Area:         math.Pi * semiX * semiY,
		Eccentricity: ecc,
		Method:       method,
	}
}

// Degenerate reports whether either semi-axis is zero.
func (e Ellipse) Degenerate() bool {
	return !(e.SemiX > 0) || !(e.SemiY > 0)
}

// FitEllipse fits an axis-aligned ellipse to pts.
//
// Parameters:
//   - pts: Points on the glyph boundary, in pixel coordinates.
//
// Returns:
//   - Ellipse: The fitted ellipse. Method records which estimate produced it.
//   - error: Non-nil only when there are too few points.
//
// # Method
//
// The conic a·x² + b·y² + c·x + d·y = −1 is solved by least squares. With
// a>0, b>0 and R = c²/4a + d²/4b − 1 > 0 it is a real ellipse centred at
// (−c/2a, −d/2b) with semi-axes √(R/a) and √(R/b). A rank-deficient system
// or any other sign pattern falls back to the bounding-box estimate: the
// centroid of pts with half the x and y extents as semi-axes.
//
// # Errors
//
//   - InsufficientPointsError if pts has fewer than MinEllipsePoints points
func FitEllipse(pts []Point) (Ellipse, error) {
	if len(pts) < MinEllipsePoints {
		return Ellipse{}, glypherr.NewInsufficientPointsError("ellipse fit", MinEllipsePoints, len(pts))
	}

	if e, ok := fitConic(pts); ok {
		return e, nil
	}
	return fitBoundingBox(pts), nil
}

func fitConic(pts []Point) (Ellipse, bool) {
	rows := make([][4]float64, len(pts))
	rhs := make([]float64, len(pts))
	for i, p := range pts {
		rows[i] = [4]float64{p.X * p.X, p.Y * p.Y, p.X, p.Y}
		rhs[i] = -1
	}

	coef, ok := solveLeastSquares(rows, rhs)
	if !ok {
		return Ellipse{}, false
	}
	a, b, c, d := coef[0], coef[1], coef[2], coef[3]
	if !(a > 0) || !(b > 0) {
		return Ellipse{}, false
	}

	cx := -c / (2 * a)
	cy := -d / (2 * b)
	r := c*c/(4*a) + d*d/(4*b) - 1
	if !(r > 0) {
		return Ellipse{}, false
	}

	sx := math.Sqrt(r / a)
	sy := math.Sqrt(r / b)
	if math.IsInf(sx, 0) || math.IsInf(sy, 0) || math.IsNaN(cx) || math.IsNaN(cy) {
		return Ellipse{}, false
	}
	return NewEllipse(Point{X: cx, Y: cy}, sx, sy, MethodLeastSquares), true
}

func fitBoundingBox(pts []Point) Ellipse {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return NewEllipse(Centroid(pts), (maxX-minX)/2, (maxY-minY)/2, MethodBoundingBox)
}

// solveLeastSquares minimizes |A·x − b| for a tall n×4 system with Householder
// QR. Columns are scaled to unit maximum magnitude first. It reports false
// when the system is rank deficient.
func solveLeastSquares(rows [][4]float64, rhs []float64) ([4]float64, bool) {
	const n = 4
	m := len(rows)
	var x [n]float64
	if m < n {
		return x, false
	}

	a := make([][n]float64, m)
	copy(a, rows)
	b := make([]float64, m)
	copy(b, rhs)

	var scale [n]float64
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			scale[j] = math.Max(scale[j], math.Abs(a[i][j]))
		}
		if scale[j] == 0 {
			return x, false
		}
		for i := 0; i < m; i++ {
			a[i][j] /= scale[j]
		}
	}

	v := make([]float64, m)
	for k := 0; k < n; k++ {
		var norm float64
		for i := k; i < m; i++ {
			norm = math.Hypot(norm, a[i][k])
		}
		if norm == 0 {
			return x, false
		}
		alpha := -norm
		if a[k][k] < 0 {
			alpha = norm
		}

		var vv float64
		for i := k; i < m; i++ {
			v[i] = a[i][k]
			if i == k {
				v[i] -= alpha
			}
			vv += v[i] * v[i]
		}
		if vv == 0 {
			continue
		}

		for j := k; j < n; j++ {
			var dot float64
			for i := k; i < m; i++ {
				dot += v[i] * a[i][j]
			}
			f := 2 * dot / vv
			for i := k; i < m; i++ {
				a[i][j] -= f * v[i]
			}
		}
		var dot float64
		for i := k; i < m; i++ {
			dot += v[i] * b[i]
		}
		f := 2 * dot / vv
		for i := k; i < m; i++ {
			b[i] -= f * v[i]
		}
	}

	var maxDiag float64
	for k := 0; k < n; k++ {
		maxDiag = math.Max(maxDiag, math.Abs(a[k][k]))
	}
	for k := 0; k < n; k++ {
		if math.Abs(a[k][k]) <= rankTolerance*maxDiag {
			return x, false
		}
	}

	for k := n - 1; k >= 0; k-- {
		s := b[k]
		for j := k + 1; j < n; j++ {
			s -= a[k][j] * x[j]
		}
		x[k] = s / a[k][k]
	}
	for j := 0; j < n; j++ {
		x[j] /= scale[j]
	}
	return x, true
}

// FitPointsFor selects the points an ellipse is fitted to. The open "C"
// letterform is fitted to its hull vertices, which close the gap; every
// other letter uses the raw outline.
func FitPointsFor(letter string, outline []Point, hull Hull) []Point {
	if letter == "C" {
		return hull.Vertices
	}
	return outline
}
