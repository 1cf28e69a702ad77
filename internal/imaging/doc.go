// Package imaging turns rendered glyph rasters into binary masks and outlines.
//
// The stages mirror how a single isolated glyph is analysed:
//
//  1. DecodeGray converts rasterizer output to 8-bit grayscale.
//  2. ExtractMask selects a global Otsu threshold and marks pixels at or below
//     it as foreground (dark ink on a light background), then applies one
//     morphological closing to fill anti-aliasing gaps.
//  3. CropBounds and Mask.Crop restrict work to the glyph plus padding.
//  4. ExtractOutline traces the outer boundary of every 8-connected
//     foreground component and keeps the one enclosing the largest area.
//
// SaveDiagnostics and SaveOverlay write the glyph, its mask and a magnified
// view with the fitted outline, hull and ellipse drawn over it.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Outline points are pixel
// indices; no half-pixel shift is applied.
//
// # Error Handling
//
// ExtractOutline fails with an EmptyMaskError when the mask has no
// foreground. Decoding and file errors are wrapped with context.
package imaging
