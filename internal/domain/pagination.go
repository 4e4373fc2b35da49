package domain

import "fmt"

// Page is a zero-based page derived from (from, size) offset parameters.
type Page struct {
	Number int
	Size   int
}

// NewPage translates (from, size) to (from/size, size). A non-positive size
// is rejected explicitly rather than dividing by it.
func NewPage(from, size int) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidInput, size)
	}
	if from < 0 {
		return Page{}, fmt.Errorf("%w: from must not be negative, got %d", ErrInvalidInput, from)
	}
	return Page{Number: from / size, Size: size}, nil
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return p.Number * p.Size
}
