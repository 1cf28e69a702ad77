// Package geometry fits shapes to glyph outlines.
//
// All functions work on float64 points in pixel space and are pure.
//
// # Convex Hull
//
// ConvexHull uses Andrew's monotone chain. Vertices are returned
// counter-clockwise (in a y-up frame) without repeats or collinear points,
// with the shoelace area and the closed perimeter.
//
// # Ellipse Fit
//
// FitEllipse fits the axis-aligned conic
//
//	a·x² + b·y² + c·x + d·y + 1 = 0
//
// by ordinary least squares on [x² y² x y]·[a b c d]ᵀ = −1, solved with a
// Householder QR factorization of the column-equilibrated design matrix.
// The conic is accepted when a > 0, b > 0 and R = c²/4a + d²/4b − 1 > 0:
//
//	center = (−c/2a, −d/2b)
//	semiX  = √(R/a)
//	semiY  = √(R/b)
//
// Otherwise (including a rank-deficient system) the fit falls back to the
// point centroid and half the bounding-box extents. Ellipse.Method records
// which path produced the result.
//
// # Fit Quality
//
// Quality measures how well an ellipse describes an outline: the offset of
// the outline centroid from the ellipse center, the mean and maximum radial
// distance of outline points from the ellipse boundary, and the fraction of
// points inside the ellipse scaled by a small tolerance.
package geometry
