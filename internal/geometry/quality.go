package geometry

import (
	"encoding/json"
	"math"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
)

// DefaultCoverageTolerance is the normalized radius² up to which an outline
// point counts as covered by the ellipse.
const DefaultCoverageTolerance = 1.05

// FitQuality describes how well an ellipse matches an outline.
// Distances are in the units of the outline; percentages are relative to the
// mean semi-axis. Non-finite values encode as JSON null.
type FitQuality struct {
	CenterOffset    float64
	CenterOffsetPct float64
	MeanDistance    float64
	MeanDistancePct float64
	MaxDistance     float64
	MaxDistancePct  float64
	Coverage        float64
}

// MarshalJSON implements json.Marshaler.
func (q FitQuality) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*float64{
		"center_offset":     finite(q.CenterOffset),
		"center_offset_pct": finite(q.CenterOffsetPct),
		"mean_distance":     finite(q.MeanDistance),
		"mean_distance_pct": finite(q.MeanDistancePct),
		"max_distance":      finite(q.MaxDistance),
		"max_distance_pct":  finite(q.MaxDistancePct),
		"coverage":          finite(q.Coverage),
	})
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Quality evaluates e against the full outline. tolerance <= 0 selects
// DefaultCoverageTolerance.
//
// A degenerate ellipse reports every distance as +Inf and zero coverage.
func Quality(outline []Point, e Ellipse, tolerance float64) (FitQuality, error) {
	if len(outline) == 0 {
		return FitQuality{}, glypherr.NewInsufficientPointsError("fit quality", 1, 0)
	}
	if tolerance <= 0 {
		tolerance = DefaultCoverageTolerance
	}

	if e.Degenerate() {
		inf := math.Inf(1)
		return FitQuality{
			CenterOffset:    inf,
			CenterOffsetPct: inf,
			MeanDistance:    inf,
			MeanDistancePct: inf,
			MaxDistance:     inf,
			MaxDistancePct:  inf,
		}, nil
	}

	avgSemi := (e.SemiX + e.SemiY) / 2
	c := Centroid(outline)
	offset := math.Hypot(c.X-e.Center.X, c.Y-e.Center.Y)

	var sum, maxDist float64
	var covered int
	for _, p := range outline {
		dx := p.X - e.Center.X
		dy := p.Y - e.Center.Y
		nx := dx / e.SemiX
		ny := dy / e.SemiY

		theta := math.Atan2(ny, nx)
		boundary := math.Hypot(e.SemiX*math.Cos(theta), e.SemiY*math.Sin(theta))
		d := math.Abs(math.Hypot(dx, dy) - boundary)

		sum += d
		maxDist = math.Max(maxDist, d)
		if nx*nx+ny*ny <= tolerance {
			covered++
		}
	}

	n := float64(len(outline))
	mean := sum / n
	return FitQuality{
		CenterOffset:    offset,
		CenterOffsetPct: offset / avgSemi * 100,
		MeanDistance:    mean,
		MeanDistancePct: mean / avgSemi * 100,
		MaxDistance:     maxDist,
		MaxDistancePct:  maxDist / avgSemi * 100,
		Coverage:        float64(covered) / n,
	}, nil
}
