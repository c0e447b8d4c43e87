package analyzer

import (
	"image"
	"sort"
)

// Block represents a detected ink region of a header raster
type Block struct {
	Rect       image.Rectangle
	Type       string  // "glyph", "block"
	Confidence float64 // 0.0-1.0
}

// Detector is the interface for image analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// SortReadingOrder orders blocks line by line, left to right. Blocks whose
// vertical centre falls inside the current line's span belong to that line.
func SortReadingOrder(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Rect.Min.Y < blocks[j].Rect.Min.Y
	})

	var lines [][]Block
	for _, b := range blocks {
		cy := (b.Rect.Min.Y + b.Rect.Max.Y) / 2
		placed := false
		for k := range lines {
			span := lineSpan(lines[k])
			if cy >= span.Min.Y && cy < span.Max.Y {
				lines[k] = append(lines[k], b)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, []Block{b})
		}
	}

	i := 0
	for _, line := range lines {
		sort.SliceStable(line, func(a, b int) bool {
			return line[a].Rect.Min.X < line[b].Rect.Min.X
		})
		i += copy(blocks[i:], line)
	}
}

func lineSpan(line []Block) image.Rectangle {
	r := line[0].Rect
	for _, b := range line[1:] {
		r = r.Union(b.Rect)
	}
	return r
}
