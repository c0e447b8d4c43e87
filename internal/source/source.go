// Package source loads header rasters from PDF pages or image files
package source

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrPageRange is returned for a page index outside the source
var ErrPageRange = errors.New("page index out of range")

type Source interface {
	PageCount() int
	PageSize(index int) (width, height float64, err error)
	Render(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks the PDF or image source by extension
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(path)
	}
	return NewImageSource(path)
}

// Header renders the given page of the source at path
func Header(path string, page, dpi int) (image.Image, error) {
	src, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open header %s: %w", path, err)
	}
	defer src.Close()

	if page < 0 || page >= src.PageCount() {
		return nil, fmt.Errorf("header %s page %d of %d: %w", path, page, src.PageCount(), ErrPageRange)
	}
	return src.Render(page, dpi)
}

type PDFSource struct {
	doc  *fitz.Document
	path string
}

func NewPDFSource(path string) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc, path: path}, nil
}

func (s *PDFSource) PageCount() int {
	return s.doc.NumPage()
}

func (s *PDFSource) PageSize(index int) (float64, float64, error) {
	rect, err := s.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (s *PDFSource) Render(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= s.doc.NumPage() {
		return nil, ErrPageRange
	}
	return s.doc.ImageDPI(index, float64(dpi))
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}
