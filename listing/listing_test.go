package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate_Defaults(t *testing.T) {
	p := Paginate(13, 0)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, 3, p.Pages())
}

func TestPager_LiteralWithoutSize(t *testing.T) {
	p := Pager{Total: 7}
	assert.Equal(t, 2, p.Pages())
	assert.Equal(t, 2, p.Clamp(5))

	start, end := p.Bounds(2)
	assert.Equal(t, DefaultPageSize, start)
	assert.Equal(t, 7, end)

	start, end = Pager{Total: -3, Size: -1}.Bounds(1)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(0, 6)
	assert.Equal(t, 1, p.Pages())
	start, end := p.Bounds(1)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
	assert.Empty(t, Page([]int{}, 1, 6))
}

func TestPage_Slices(t *testing.T) {
	items := seq(13)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, Page(items, 1, 6))
	assert.Equal(t, []int{6, 7, 8, 9, 10, 11}, Page(items, 2, 6))
	assert.Equal(t, []int{12}, Page(items, 3, 6))
}

func TestPage_ClampsOutOfRange(t *testing.T) {
	items := seq(13)
	assert.Equal(t, Page(items, 1, 6), Page(items, 0, 6))
	assert.Equal(t, Page(items, 3, 6), Page(items, 99, 6))
}

func TestPage_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(rt, "n")
		size := rapid.IntRange(1, 20).Draw(rt, "size")
		items := seq(n)
		p := Paginate(n, size)

		var joined []int
		for page := 1; page <= p.Pages(); page++ {
			got := Page(items, page, size)
			require.LessOrEqual(rt, len(got), size)
			joined = append(joined, got...)
		}
		if n == 0 {
			require.Empty(rt, joined)
			return
		}
		require.Equal(rt, items, joined, "pages must cover the collection exactly once, in order")
	})
}
