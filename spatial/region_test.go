package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionEmpty(t *testing.T) {
	r := NewRegion(0, 0, 0, 4, 4, 4)
	assert.False(t, r.Empty())

	empty := NewRegion(0, 0, 0, 0, 4, 4)
	assert.True(t, empty.Empty())

	negative := NewRegionFromBounds(5, 0, 0, 2, 4, 4)
	assert.True(t, negative.Empty())
}

func TestRegionIntersect(t *testing.T) {
	a := NewRegion(0, 0, 0, 10, 10, 10)
	b := NewRegion(5, 5, 5, 10, 10, 10)
	got := a.Intersect(b)
	require.False(t, got.Empty())
	assert.Equal(t, NewRegionFromBounds(5, 5, 5, 10, 10, 10), got)

	disjoint := NewRegion(20, 20, 20, 2, 2, 2)
	assert.True(t, a.Intersect(disjoint).Empty())
	assert.False(t, a.Intersects(disjoint))
}

func TestRegionClamp(t *testing.T) {
	r := NewRegion(-2, -2, -2, 8, 8, 8)
	clamped := r.Clamp(4, 4, 4)
	assert.Equal(t, NewRegionFromBounds(0, 0, 0, 4, 4, 4), clamped)
}

func TestRegionContains(t *testing.T) {
	r := NewRegion(1, 1, 1, 4, 4, 4)
	assert.True(t, r.Contains(1, 1, 1))
	assert.True(t, r.Contains(4, 4, 4))
	assert.False(t, r.Contains(5, 4, 4))
	assert.False(t, r.Contains(0, 1, 1))
}
