//go:build !cgo

package ocr

import "image"

// Verify reports ErrUnavailable: this build has no Tesseract bindings.
func Verify(img image.Image, expected, whitelist string) (*Verification, error) {
	return nil, ErrUnavailable
}

// Version reports ErrUnavailable: this build has no Tesseract bindings.
func Version() (string, error) {
	return "", ErrUnavailable
}
