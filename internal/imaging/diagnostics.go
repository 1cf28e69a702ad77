package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// SaveDiagnostics writes the glyph raster and its mask as PNG files named
// <name>_glyph.png and <name>_mask.png under dir, creating dir if needed.
// It returns the path of the glyph image.
func SaveDiagnostics(dir, name string, glyph image.Image, mask *Mask) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics directory: %w", err)
	}

	glyphPath := filepath.Join(dir, name+"_glyph.png")
	if err := imaging.Save(glyph, glyphPath); err != nil {
		return "", fmt.Errorf("failed to save glyph image: %w", err)
	}
	if mask != nil {
		if err := imaging.Save(mask.Gray(), filepath.Join(dir, name+"_mask.png")); err != nil {
			return "", fmt.Errorf("failed to save mask image: %w", err)
		}
	}
	return glyphPath, nil
}
