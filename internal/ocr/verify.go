package ocr

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr: tesseract support not available in this build")

// Language is the Tesseract language used for verification.
const Language = "eng"

// Verification is the outcome of recognizing one isolated glyph.
type Verification struct {
	Expected   string  `json:"expected"`
	Recognized string  `json:"recognized"`
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0

	// Skipped explains why recognition did not run. The other result
	// fields are zero when it is set.
	Skipped string `json:"skipped,omitempty"`
}

// Skipped records a verification that could not run.
func Skipped(expected string, err error) *Verification {
	return &Verification{Expected: expected, Skipped: err.Error()}
}

// newVerification compares the recognized text with the expected letter.
// Tesseract output is trimmed and only its first character is considered.
func newVerification(expected, text string, confidence float64) *Verification {
	text = strings.TrimSpace(text)
	recognized := ""
	if r, size := utf8.DecodeRuneInString(text); size > 0 && r != utf8.RuneError {
		recognized = string(r)
	}
	return &Verification{
		Expected:   expected,
		Recognized: recognized,
		Match:      recognized != "" && recognized == expected,
		Confidence: confidence,
	}
}

// SaveImageToTemp writes img as a PNG named <prefix>-<uuid>.png under dir
// (the system temporary directory when dir is empty) and returns its path.
//
// The caller is responsible for removing the file.
func SaveImageToTemp(img image.Image, dir, prefix string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", prefix, uuid.New().String()))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save temp image: %w", err)
	}
	return path, nil
}
