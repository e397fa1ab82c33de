package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAddReportsNovelty(t *testing.T) {
	s := New[string]()
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Has("a"))
	assert.Equal(t, 1, s.Len())

	s.Delete("a")
	assert.False(t, s.Has("a"))
}

func TestSortedAndUnion(t *testing.T) {
	s := New("c", "a")
	s.Union(New("b", "a"))
	assert.Equal(t, []string{"a", "b", "c"}, Sorted(s))
}
