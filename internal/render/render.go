// Package render rasterizes isolation documents.
//
// A Renderer turns standalone SVG text into a grayscale raster at a zoom
// factor. The raster is viewport×zoom pixels with the viewBox fitted by the
// contain/center policy, which is the transform coords.Mapper models.
//
// # Implementations
//
//   - Subprocess runs an external rasterizer (rsvg-convert by default) in a
//     per-call temporary directory under a timeout.
//   - Builtin draws the background rect and text of an isolation document
//     in-process with the Go fonts. It needs no external tool and is
//     deterministic.
//   - Func adapts an ordinary function, mostly for tests.
//
// Rendering is deterministic, so failures are never retried.
package render

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Renderer rasterizes a document at a zoom factor.
type Renderer interface {
	Render(ctx context.Context, svg []byte, zoom float64) (*image.Gray, error)
}

// Func adapts a function to the Renderer interface.
type Func func(ctx context.Context, svg []byte, zoom float64) (*image.Gray, error)

// Render calls f.
func (f Func) Render(ctx context.Context, svg []byte, zoom float64) (*image.Gray, error) {
	return f(ctx, svg, zoom)
}

// Renderer kinds accepted by New.
const (
	KindSubprocess = "rsvg"
	KindBuiltin    = "builtin"
)

// Options configure New.
type Options struct {
	Kind    string
	Command string
	TempDir string
	Timeout time.Duration
}

// New returns the renderer selected by opts.Kind.
func New(opts Options) (Renderer, error) {
	switch opts.Kind {
	case KindSubprocess, "":
		return NewSubprocess(opts.Command, opts.TempDir, opts.Timeout), nil
	case KindBuiltin:
		return NewBuiltin()
	default:
		return nil, fmt.Errorf("unknown renderer %q (want %q or %q)", opts.Kind, KindSubprocess, KindBuiltin)
	}
}
