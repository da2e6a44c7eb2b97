package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageLengthProperty(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	for size := 1; size <= 6; size++ {
		for start := -2; start <= len(items)+2; start++ {
			got := Page(items, start, size)
			s := start
			if s < 0 {
				s = 0
			}
			want := len(items) - s
			if want > size {
				want = size
			}
			if want < 0 {
				want = 0
			}
			assert.Len(t, got, want, "start=%d size=%d", start, size)
		}
	}
}

func TestPageContents(t *testing.T) {
	items := []string{"ana", "pedro", "joao", "bia", "jose", "lucas", "yasmin", "carlos"}
	assert.Equal(t, []string{"ana", "pedro", "joao", "bia", "jose"}, Page(items, 0, 5))
	assert.Equal(t, []string{"lucas", "yasmin", "carlos"}, Page(items, 5, 5))
	assert.Empty(t, Page(items, 8, 5))
	assert.Empty(t, Page(items, 0, 0))
	assert.Empty(t, Page([]string(nil), 0, 5))
}

func TestPagerNavigation(t *testing.T) {
	p := New(5)
	p.SetLen(8)

	assert.False(t, p.CanPrev())
	assert.True(t, p.CanNext())

	p.Next()
	// clamped to len-size, not start+size
	assert.Equal(t, 3, p.Start)
	assert.True(t, p.CanPrev())
	assert.False(t, p.CanNext())

	p.Next()
	assert.Equal(t, 3, p.Start)

	p.Prev()
	assert.Equal(t, 0, p.Start)
	assert.False(t, p.CanPrev())
}

func TestPagerDisabledFlags(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for _, size := range []int{4, 5} {
			p := New(size)
			p.SetLen(n)
			for i := 0; i < 5; i++ {
				assert.Equal(t, p.Start+size >= n, !p.CanNext(), "n=%d size=%d start=%d", n, size, p.Start)
				assert.Equal(t, p.Start == 0, !p.CanPrev())
				p.Next()
			}
		}
	}
}

func TestPagerShorterThanPage(t *testing.T) {
	p := New(5)
	p.SetLen(3)
	p.Next()
	assert.Equal(t, 0, p.Start)
	assert.False(t, p.CanNext())
	assert.Len(t, Visible(p, []int{1, 2, 3}), 3)
}

func TestPagerShrinkingRoster(t *testing.T) {
	p := New(4)
	p.SetLen(12)
	p.Next()
	p.Next()
	assert.Equal(t, 8, p.Start)

	p.SetLen(6)
	assert.Equal(t, 2, p.Start)
}

func TestNewDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, New(0).Size)
}
