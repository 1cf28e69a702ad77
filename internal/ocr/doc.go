// Package ocr verifies isolated glyph rasters with Tesseract.
//
// Verification is a cross-check, not a stage of the fitting pipeline: the
// cropped raster of one isolated character is recognized in single-character
// page segmentation mode with a whitelist of the target letters, and the
// outcome is attached to the character's result. A mismatch is reported,
// never turned into an error.
//
// # Prerequisites
//
// Tesseract and its English training data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Builds without cgo compile a stub whose Verify returns ErrUnavailable.
//
// # Temporary Files
//
// Tesseract reads from a file path. Each call writes a PNG with a UUID name
// to the temporary directory and removes it before returning.
package ocr
