package analyzer

import (
	"image"
	"image/draw"
	"math"
)

// ContrastDetector finds ink regions with a Sobel edge pass, morphological
// dilation and connected components
type ContrastDetector struct {
	MinBlockArea     int     // Minimum area in pixels²
	EdgeThreshold    float64 // Gradient magnitude threshold
	DilateKernel     int
	DilateIterations int
	BlockType        string
}

// NewContrastDetector merges nearby edges into coarse paragraph-sized blocks
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:     500,
		EdgeThreshold:    30.0,
		DilateKernel:     5,
		DilateIterations: 2,
		BlockType:        "block",
	}
}

// NewGlyphDetector keeps letters apart: a single small dilation closes each
// stroke outline without bridging the gap between letters or an i and its dot.
func NewGlyphDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:     6,
		EdgeThreshold:    60.0,
		DilateKernel:     3,
		DilateIterations: 1,
		BlockType:        "glyph",
	}
}

// Detect returns the blocks in reading order
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	gray := toGrayscale(img)
	edges := sobel(gray, d.EdgeThreshold)
	mask := dilate(edges, d.DilateKernel, d.DilateIterations)

	var blocks []Block
	for _, rect := range components(mask) {
		if rect.Dx()*rect.Dy() < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{
			Rect:       rect,
			Type:       d.BlockType,
			Confidence: 0.7,
		})
	}
	SortReadingOrder(blocks)
	return blocks, nil
}

func toGrayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	return gray
}

// mask is a binary image stored row-major over bounds
type mask struct {
	bounds image.Rectangle
	bits   []bool
}

func newMask(b image.Rectangle) *mask {
	return &mask{bounds: b, bits: make([]bool, b.Dx()*b.Dy())}
}

func (m *mask) at(x, y int) bool {
	if !(image.Point{X: x, Y: y}.In(m.bounds)) {
		return false
	}
	return m.bits[(y-m.bounds.Min.Y)*m.bounds.Dx()+(x-m.bounds.Min.X)]
}

func (m *mask) set(x, y int) {
	m.bits[(y-m.bounds.Min.Y)*m.bounds.Dx()+(x-m.bounds.Min.X)] = true
}

var (
	sobelX = [9]float64{-1, 0, 1, -2, 0, 2, -1, 0, 1}
	sobelY = [9]float64{-1, -2, -1, 0, 0, 0, 1, 2, 1}
)

func sobel(gray *image.Gray, threshold float64) *mask {
	b := gray.Bounds()
	out := newMask(b)
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			var gx, gy float64
			k := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(gray.GrayAt(x+kx, y+ky).Y)
					gx += v * sobelX[k]
					gy += v * sobelY[k]
					k++
				}
			}
			if math.Hypot(gx, gy) > threshold {
				out.set(x, y)
			}
		}
	}
	return out
}

func dilate(in *mask, kernel, iterations int) *mask {
	half := kernel / 2
	cur := in
	for iter := 0; iter < iterations; iter++ {
		next := newMask(cur.bounds)
		b := cur.bounds
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if !cur.at(x, y) {
					continue
				}
				for ky := -half; ky <= half; ky++ {
					for kx := -half; kx <= half; kx++ {
						if (image.Point{X: x + kx, Y: y + ky}).In(b) {
							next.set(x+kx, y+ky)
						}
					}
				}
			}
		}
		cur = next
	}
	return cur
}

// components returns the bounding rectangle of every 4-connected region
func components(m *mask) []image.Rectangle {
	b := m.bounds
	visited := newMask(b)
	var out []image.Rectangle

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !m.at(x, y) || visited.at(x, y) {
				continue
			}
			r := image.Rect(x, y, x+1, y+1)
			stack := []image.Point{{X: x, Y: y}}
			visited.set(x, y)
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				for _, n := range [4]image.Point{{X: p.X + 1, Y: p.Y}, {X: p.X - 1, Y: p.Y}, {X: p.X, Y: p.Y + 1}, {X: p.X, Y: p.Y - 1}} {
					if m.at(n.X, n.Y) && !visited.at(n.X, n.Y) {
						visited.set(n.X, n.Y)
						stack = append(stack, n)
					}
				}
			}
			out = append(out, r)
		}
	}
	return out
}
