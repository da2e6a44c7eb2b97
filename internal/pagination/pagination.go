// Package pagination slices in-memory lists into fixed-size carousel pages.
package pagination

// DefaultPageSize is the number of roster entries shown per lobby page.
const DefaultPageSize = 5

// Page returns items[start:start+size] with both bounds clamped to the slice.
// The result never has negative length.
func Page[T any](items []T, start, size int) []T {
	if size <= 0 {
		return items[:0:0]
	}
	n := len(items)
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := start + size
	if end > n {
		end = n
	}
	return items[start:end]
}

// Pager tracks the start index of a carousel over a list of Len items.
type Pager struct {
	Start int
	Size  int
	Len   int
}

func New(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{Size: size}
}

// SetLen updates the list length and keeps Start inside the valid range.
func (p *Pager) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	p.Len = n
	p.Start = p.clamp(p.Start)
}

func (p *Pager) CanPrev() bool { return p.Start > 0 }

func (p *Pager) CanNext() bool { return p.Start+p.Size < p.Len }

func (p *Pager) Prev() {
	p.Start = p.clamp(p.Start - p.Size)
}

func (p *Pager) Next() {
	p.Start = p.clamp(p.Start + p.Size)
}

// clamp keeps the start index in [0, Len-Size].
func (p *Pager) clamp(start int) int {
	last := p.Len - p.Size
	if start > last {
		start = last
	}
	if start < 0 {
		start = 0
	}
	return start
}

// Visible is Page over items using the pager's current window.
func Visible[T any](p *Pager, items []T) []T {
	return Page(items, p.Start, p.Size)
}
