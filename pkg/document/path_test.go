package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath_Compare(t *testing.T) {
	tests := []struct {
		a, b     Path
		expected int
	}{
		{Path{0}, Path{1}, -1},
		{Path{1, 2}, Path{1, 2}, 0},
		{Path{1}, Path{1, 0}, -1},
		{Path{2}, Path{1, 5}, 1},
		{Path{}, Path{0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.expected, tt.b.Compare(tt.a))
		})
	}
}

func TestPath_Relations(t *testing.T) {
	p := Path{1, 2, 3}
	assert.True(t, Path{1}.IsAncestorOf(p))
	assert.False(t, p.IsAncestorOf(p))
	assert.True(t, p.Contains(p))
	assert.Equal(t, Path{1, 2}, p.Parent())
	assert.Equal(t, Path{1, 2, 4}, p.Next())
	assert.Equal(t, Path{1, 2, 2}, p.Previous())
	assert.True(t, p.HasPrevious())
	assert.False(t, Path{0}.HasPrevious())
	assert.Equal(t, Path{1, 2, 3, 0}, p.Child(0))
	assert.Equal(t, "[1,2,3]", p.String())

	c := p.Copy()
	c[0] = 9
	assert.Equal(t, 1, p[0])
}

func TestPath_Transforms(t *testing.T) {
	assert.Equal(t, Path{3, 1}, Path{2, 1}.afterInsert(Path{1}))
	assert.Equal(t, Path{0, 1}, Path{0, 1}.afterInsert(Path{1}))
	assert.Equal(t, Path{2}, Path{1}.afterInsert(Path{1}))

	p, ok := Path{2, 1}.afterRemove(Path{1})
	assert.True(t, ok)
	assert.Equal(t, Path{1, 1}, p)

	_, ok = Path{1, 0}.afterRemove(Path{1})
	assert.False(t, ok)

	p, ok = Path{0, 4}.afterRemove(Path{1})
	assert.True(t, ok)
	assert.Equal(t, Path{0, 4}, p)
}

func TestRange(t *testing.T) {
	r := Range{
		Anchor: Point{Path: Path{2, 0}, Offset: 1},
		Focus:  Point{Path: Path{0, 0}, Offset: 3},
	}
	start, end := r.Edges()
	assert.Equal(t, Path{0, 0}, start.Path)
	assert.Equal(t, Path{2, 0}, end.Path)
	assert.False(t, r.IsCollapsed())

	assert.True(t, r.Contains(Path{1}))
	assert.True(t, r.Contains(Path{2}))
	assert.False(t, r.Contains(Path{3}))

	caret := Collapsed(Point{Path: Path{4, 0}})
	assert.True(t, caret.IsCollapsed())
	assert.True(t, caret.IsActive(Path{4}))
	assert.False(t, caret.IsActive(Path{3}))

	var none *Range
	assert.False(t, none.IsActive(Path{4}))
}
