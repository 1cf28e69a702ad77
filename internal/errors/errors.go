// Package errors defines the failure taxonomy of the glyph fitting pipeline.
//
// Every failure the pipeline can attribute to a stage carries an ErrorCode.
// Document-level failures (ErrorParse) abort the document; every other code is
// scoped to a single character and is recorded in that character's result.
//
// Callers test for a category with the standard library:
//
//	if errors.Is(err, glypherr.ErrEmptyMask) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Document errors
	ErrorParse ErrorCode = "PARSE_ERROR"

	// Character errors
	ErrorStructuralIndex    ErrorCode = "STRUCTURAL_INDEX_ERROR"
	ErrorRasterization      ErrorCode = "RASTERIZATION_ERROR"
	ErrorEmptyMask          ErrorCode = "EMPTY_MASK"
	ErrorInsufficientPoints ErrorCode = "INSUFFICIENT_POINTS"
	ErrorIsolationFailure   ErrorCode = "ISOLATION_FAILURE"
)

// Sentinels for errors.Is. A GlyphError matches a sentinel when the codes agree.
var (
	ErrParse              = &GlyphError{Code: ErrorParse}
	ErrStructuralIndex    = &GlyphError{Code: ErrorStructuralIndex}
	ErrRasterization      = &GlyphError{Code: ErrorRasterization}
	ErrEmptyMask          = &GlyphError{Code: ErrorEmptyMask}
	ErrInsufficientPoints = &GlyphError{Code: ErrorInsufficientPoints}
	ErrIsolationFailure   = &GlyphError{Code: ErrorIsolationFailure}
)

// GlyphError represents a structured pipeline error
type GlyphError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *GlyphError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *GlyphError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GlyphError with the same code.
func (e *GlyphError) Is(target error) bool {
	t, ok := target.(*GlyphError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the ErrorCode of the first GlyphError in err's chain,
// or the empty code when there is none.
func CodeOf(err error) ErrorCode {
	var ge *GlyphError
	if stderrors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// Factory functions for common errors

func NewParseError(message string, cause error) *GlyphError {
	return &GlyphError{
		Code:    ErrorParse,
		Message: message,
		Cause:   cause,
	}
}

func NewStructuralIndexError(textIndex, spanIndex, charOffset int, message string) *GlyphError {
	return &GlyphError{
		Code:    ErrorStructuralIndex,
		Message: message,
		Details: map[string]interface{}{
			"text_index":  textIndex,
			"span_index":  spanIndex,
			"char_offset": charOffset,
		},
	}
}

func NewRasterizationError(tool string, cause error) *GlyphError {
	return &GlyphError{
		Code:    ErrorRasterization,
		Message: fmt.Sprintf("rasterizer %q failed", tool),
		Details: map[string]interface{}{
			"tool": tool,
		},
		Cause: cause,
	}
}

func NewEmptyMaskError() *GlyphError {
	return &GlyphError{
		Code:    ErrorEmptyMask,
		Message: "no foreground pixels in mask",
	}
}

func NewInsufficientPointsError(operation string, need, got int) *GlyphError {
	return &GlyphError{
		Code:    ErrorInsufficientPoints,
		Message: fmt.Sprintf("%s needs at least %d points, got %d", operation, need, got),
		Details: map[string]interface{}{
			"operation": operation,
			"need":      need,
			"got":       got,
		},
	}
}

func NewIsolationFailure(glyphPixels, minimum int) *GlyphError {
	return &GlyphError{
		Code:    ErrorIsolationFailure,
		Message: fmt.Sprintf("too few glyph pixels (%d < %d), isolation may have failed", glyphPixels, minimum),
		Details: map[string]interface{}{
			"glyph_pixels": glyphPixels,
			"minimum":      minimum,
		},
	}
}

// ToMap converts the error to a map for reports
func (e *GlyphError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
