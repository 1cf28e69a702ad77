// Package pipeline drives the glyph fitting pipeline and composes results.
//
// For every target character found by the scanner, a Processor isolates the
// glyph into its own document, rasterizes it, extracts the glyph outline,
// fits a convex hull and an axis-aligned ellipse, and maps the ellipse back
// into document user units.
//
// # Failure Policy
//
// Problems with the document itself (unreadable markup, unusable dimensions,
// unparseable numeric attributes) are returned as errors and abort that
// document. Problems with a single character are recorded in its
// CharacterResult with an error code and never affect sibling characters.
//
// # Concurrency
//
// Characters of one document share nothing mutable. With Options.Workers
// above one they are processed on a bounded pool of goroutines; results are
// always reported in document order.
package pipeline
