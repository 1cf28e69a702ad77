package scanner

import "unicode"

// LetterClass groups letterforms that share an advance-width estimate.
type LetterClass int

const (
	ClassDefault LetterClass = iota
	ClassNarrow
	ClassWide
	ClassRounded
	ClassMid
	ClassDigit
	ClassLower
)

// Advance factors per class, as fractions of the font size.
const (
	advanceNarrow  = 0.38
	advanceWide    = 0.82
	advanceRounded = 0.62
	advanceMid     = 0.58
	advanceDigit   = 0.52
	advanceLower   = 0.50
	advanceDefault = 0.56

	// TrackingFactor is the inter-character gap between consecutive characters.
	TrackingFactor = 0.04

	// minFontSize keeps advances positive for degenerate font sizes.
	minFontSize = 1.0
)

// Vertical bounds relative to the baseline, as fractions of the font size.
const (
	roundedAscent  = 0.78
	roundedDescent = 0.16
	defaultAscent  = 0.80
	defaultDescent = 0.20
)

func (c LetterClass) String() string {
	switch c {
	case ClassNarrow:
		return "narrow"
	case ClassWide:
		return "wide"
	case ClassRounded:
		return "rounded"
	case ClassMid:
		return "mid"
	case ClassDigit:
		return "digit"
	case ClassLower:
		return "lower"
	default:
		return "default"
	}
}

// Classify returns the letterform class of r.
func Classify(r rune) LetterClass {
	switch r {
	case 'I', 'L', '1':
		return ClassNarrow
	case 'W', 'M':
		return ClassWide
	case 'O', 'C', 'S', 'Q', 'G', 'D', 'U', '0', '6', '8', '9':
		return ClassRounded
	case 'H', 'N', 'P', 'T', 'F', 'K', 'E', 'X', 'Y':
		return ClassMid
	}
	switch {
	case r >= '0' && r <= '9':
		return ClassDigit
	case unicode.IsLower(r):
		return ClassLower
	}
	return ClassDefault
}

// AdvanceFactor is the advance width of a class as a fraction of the font size.
func (c LetterClass) AdvanceFactor() float64 {
	switch c {
	case ClassNarrow:
		return advanceNarrow
	case ClassWide:
		return advanceWide
	case ClassRounded:
		return advanceRounded
	case ClassMid:
		return advanceMid
	case ClassDigit:
		return advanceDigit
	case ClassLower:
		return advanceLower
	default:
		return advanceDefault
	}
}

func clampSize(fontSize float64) float64 {
	if fontSize < minFontSize {
		return minFontSize
	}
	return fontSize
}

// Advance estimates the horizontal advance of r at fontSize.
func Advance(fontSize float64, r rune) float64 {
	return clampSize(fontSize) * Classify(r).AdvanceFactor()
}

// Tracking is the gap inserted between two consecutive characters.
func Tracking(fontSize float64) float64 {
	return clampSize(fontSize) * TrackingFactor
}

// RunWidth estimates the width of a run: the sum of advances plus tracking
// between consecutive characters (none after the last).
func RunWidth(text []rune, fontSize float64) float64 {
	if len(text) == 0 {
		return 0
	}
	var w float64
	for _, r := range text {
		w += Advance(fontSize, r)
	}
	return w + float64(len(text)-1)*Tracking(fontSize)
}

// VerticalBounds estimates the top and bottom of r's ink for a baseline at y.
func VerticalBounds(baseline, fontSize float64, r rune) (top, bottom float64) {
	if Classify(r) == ClassRounded {
		return baseline - fontSize*roundedAscent, baseline + fontSize*roundedDescent
	}
	return baseline - fontSize*defaultAscent, baseline + fontSize*defaultDescent
}
