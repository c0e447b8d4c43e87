package analyzer

import "fmt"

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "glyph", "":
		return NewGlyphDetector(), nil
	case "contrast":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
