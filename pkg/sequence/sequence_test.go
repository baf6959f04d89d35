package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCollect(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, From([]int{1, 2, 3}).Collect())
	assert.Empty(t, From[int](nil).Collect())
}

func TestFromMap(t *testing.T) {
	values := FromMap(map[string]int{"a": 1, "b": 2, "c": 3}).
		Sort(func(a, b int) bool { return a < b }).
		Collect()
	assert.Equal(t, []int{1, 2, 3}, values)
}

func TestFilter(t *testing.T) {
	even := From([]int{1, 2, 3, 4, 5, 6}).
		Filter(func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, even.Collect())

	// Chained filters compose.
	assert.Equal(t, []int{6}, even.Filter(func(v int) bool { return v > 4 }).Collect())
}

func TestEach(t *testing.T) {
	sum := 0
	From([]int{1, 2, 3}).Each(func(v int) { sum += v })
	assert.Equal(t, 6, sum)
}

func TestSortIsStable(t *testing.T) {
	type pair struct{ key, seq int }
	data := []pair{{2, 0}, {1, 1}, {2, 2}, {1, 3}}
	sorted := From(data).Sort(func(a, b pair) bool { return a.key < b.key }).Collect()
	assert.Equal(t, []pair{{1, 1}, {1, 3}, {2, 0}, {2, 2}}, sorted)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 4, From([]string{"a", "b", "c", "d"}).Count())
	assert.Equal(t, 0, From[string](nil).Count())
}

func TestPull(t *testing.T) {
	next, stop := From([]int{10, 20}).Pull()
	defer stop()

	v, ok := next()
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	v, ok = next()
	assert.True(t, ok)
	assert.Equal(t, 20, v)

	_, ok = next()
	assert.False(t, ok)
}

func TestSeqEarlyBreak(t *testing.T) {
	seen := 0
	for range From([]int{1, 2, 3, 4}).Seq() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}
