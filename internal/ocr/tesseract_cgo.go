//go:build cgo

package ocr

import (
	"fmt"
	"image"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// Verify recognizes img as a single character restricted to whitelist and
// compares the result with expected.
//
// # Confidence
//
// Confidence is the highest symbol-level confidence Tesseract reports,
// scaled to 0..1. It is zero when no symbol box is available.
func Verify(img image.Image, expected, whitelist string) (*Verification, error) {
	path, err := SaveImageToTemp(img, "", "ocr-glyph")
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	var confidence float64
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_SYMBOL); err == nil {
		for _, box := range boxes {
			if c := box.Confidence / 100.0; c > confidence {
				confidence = c
			}
		}
	}

	return newVerification(expected, text, confidence), nil
}

// Version returns the linked Tesseract version.
func Version() (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version(), nil
}
