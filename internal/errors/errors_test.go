package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestGlyphError_Is(t *testing.T) {
	err := fmt.Errorf("processing O #0: %w", NewEmptyMaskError())

	if !stderrors.Is(err, ErrEmptyMask) {
		t.Error("wrapped empty mask error should match ErrEmptyMask")
	}
	if stderrors.Is(err, ErrParse) {
		t.Error("empty mask error should not match ErrParse")
	}
}

func TestGlyphError_Unwrap(t *testing.T) {
	cause := stderrors.New("exit status 1")
	err := NewRasterizationError("rsvg-convert", cause)

	if !stderrors.Is(err, cause) {
		t.Error("rasterization error should unwrap to its cause")
	}
	if got := err.Error(); got == "" {
		t.Error("Error() returned empty string")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"parse", NewParseError("bad xml", nil), ErrorParse},
		{"wrapped index", fmt.Errorf("isolate: %w", NewStructuralIndexError(3, 0, 1, "span out of range")), ErrorStructuralIndex},
		{"points", NewInsufficientPointsError("ellipse fit", 5, 2), ErrorInsufficientPoints},
		{"isolation", NewIsolationFailure(4, 10), ErrorIsolationFailure},
		{"plain", stderrors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToMap(t *testing.T) {
	err := NewIsolationFailure(3, 10)
	m := err.ToMap()

	if m["error_code"] != string(ErrorIsolationFailure) {
		t.Errorf("error_code = %v", m["error_code"])
	}
	if m["glyph_pixels"] != 3 {
		t.Errorf("glyph_pixels = %v, want 3", m["glyph_pixels"])
	}
}
