package geometry

import (
	"image"
	"math"
	"sort"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
)

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromImagePoints converts integer pixel positions to Points.
func FromImagePoints(pts []image.Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

// Centroid is the arithmetic mean of pts. It is the zero Point for an empty set.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{X: sx / n, Y: sy / n}
}

// Hull is the convex hull of a point set.
type Hull struct {
	Vertices  []Point `json:"vertices"`
	Area      float64 `json:"area"`
	Perimeter float64 `json:"perimeter"`
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull computes the convex hull of pts with Andrew's monotone chain.
//
// Parameters:
//   - pts: Outline points in pixel coordinates. Duplicates are allowed.
//
// Returns:
//   - Hull: Vertices in counter-clockwise order without repeats or collinear
//     points, with the polygon's shoelace area and closed perimeter.
//   - error: Non-nil when no polygon can be formed.
//
// # Errors
//
//   - InsufficientPointsError if pts has fewer than 3 points
//   - InsufficientPointsError if fewer than 3 of them are non-collinear
func ConvexHull(pts []Point) (Hull, error) {
	if len(pts) < 3 {
		return Hull{}, glypherr.NewInsufficientPointsError("convex hull", 3, len(pts))
	}

	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	uniq := sorted[:1]
	for _, p := range sorted[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}

	lower := make([]Point, 0, len(uniq))
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]Point, 0, len(uniq))
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	vertices := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(vertices) < 3 {
		return Hull{}, glypherr.NewInsufficientPointsError("convex hull", 3, len(vertices))
	}

	return Hull{
		Vertices:  vertices,
		Area:      PolygonArea(vertices),
		Perimeter: perimeter(vertices),
	}, nil
}

// PolygonArea is the shoelace area of a closed polygon, always non-negative.
func PolygonArea(poly []Point) float64 {
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(sum) / 2
}

func perimeter(poly []Point) float64 {
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += math.Hypot(poly[j].X-poly[i].X, poly[j].Y-poly[i].Y)
	}
	return sum
}
