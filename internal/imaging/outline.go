package imaging

import (
	"image"
	"math"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
)

// moore lists the 8 neighbour offsets clockwise (y down), starting east.
var moore = [8]image.Point{
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
}

const dirWest = 4

// Component is one 8-connected foreground region with its outer boundary.
type Component struct {
	// Start is the top-left-most pixel of the region.
	Start image.Point

	// Pixels is the number of pixels in the region.
	Pixels int

	// Boundary is the outer boundary trace, clockwise from Start.
	Boundary []image.Point

	// Area is the shoelace area enclosed by Boundary.
	Area float64
}

// FindComponents labels the 8-connected foreground components of m in raster
// order of their top-left-most pixel and traces each outer boundary.
func FindComponents(m *Mask) []Component {
	visited := make([]bool, m.Width*m.Height)

	var comps []Component
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) || visited[y*m.Width+x] {
				continue
			}
			start := image.Pt(x, y)
			n := floodFill(m, visited, start)
			boundary := TraceBoundary(m, start)
			comps = append(comps, Component{
				Start:    start,
				Pixels:   n,
				Boundary: boundary,
				Area:     traceArea(boundary),
			})
		}
	}
	return comps
}

// floodFill marks the component containing start and returns its size.
func floodFill(m *Mask, visited []bool, start image.Point) int {
	stack := []image.Point{start}
	count := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !m.At(p.X, p.Y) || visited[p.Y*m.Width+p.X] {
			continue
		}

		visited[p.Y*m.Width+p.X] = true
		count++

		// 8-connected neighbors
		for _, d := range moore {
			stack = append(stack, p.Add(d))
		}
	}
	return count
}

// TraceBoundary follows the outer boundary of the component whose
// top-left-most pixel is start, using Moore-neighbour tracing with Jacob's
// stopping criterion: the trace ends when it re-enters start and is about to
// repeat its first move. An isolated pixel yields a single-point trace.
func TraceBoundary(m *Mask, start image.Point) []image.Point {
	trace := []image.Point{start}
	cur := start
	back := dirWest
	first := -1

	// generous bound; each boundary pixel is entered at most 4 times
	limit := 4*m.Width*m.Height + 8
	for step := 0; step < limit; step++ {
		d := -1
		for i := 1; i <= 8; i++ {
			c := (back + i) % 8
			if p := cur.Add(moore[c]); m.At(p.X, p.Y) {
				d = c
				break
			}
		}
		if d < 0 {
			break
		}
		if cur == start && first >= 0 && d == first {
			break
		}
		if first < 0 {
			first = d
		}

		cur = cur.Add(moore[d])
		trace = append(trace, cur)
		if d%2 == 0 {
			back = (d + 6) % 8
		} else {
			back = (d + 5) % 8
		}
	}

	if len(trace) > 1 && trace[len(trace)-1] == start {
		trace = trace[:len(trace)-1]
	}
	return trace
}

func traceArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// ExtractOutline returns the boundary of the foreground component enclosing
// the largest area (ties keep the first in raster order), unsimplified.
// A mask without foreground yields an EmptyMaskError.
func ExtractOutline(m *Mask) ([]image.Point, error) {
	comps := FindComponents(m)
	if len(comps) == 0 {
		return nil, glypherr.NewEmptyMaskError()
	}

	best := 0
	for i := 1; i < len(comps); i++ {
		if comps[i].Area > comps[best].Area {
			best = i
		}
	}
	return comps[best].Boundary, nil
}
