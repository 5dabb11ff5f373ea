package document

import (
	"strconv"
	"strings"
)

// Path addresses a node by child indexes from the root. The root itself
// has the empty path.
type Path []int

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Compare orders paths in document order. An ancestor sorts before its
// descendants.
func (p Path) Compare(other Path) int {
	n := min(len(p), len(other))
	for i := 0; i < n; i++ {
		switch {
		case p[i] < other[i]:
			return -1
		case p[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	}
	return 0
}

// IsAncestorOf reports whether p is a strict ancestor of other.
func (p Path) IsAncestorOf(other Path) bool {
	if len(p) >= len(other) {
		return false
	}
	return p.Equal(other[:len(p)])
}

// Contains reports whether other equals p or lies below it.
func (p Path) Contains(other Path) bool {
	return p.Equal(other) || p.IsAncestorOf(other)
}

func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1].Copy()
}

func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

func (p Path) Child(i int) Path {
	result := make(Path, len(p)+1)
	copy(result, p)
	result[len(p)] = i
	return result
}

func (p Path) Next() Path {
	result := p.Copy()
	if len(result) > 0 {
		result[len(result)-1]++
	}
	return result
}

func (p Path) HasPrevious() bool {
	return len(p) > 0 && p[len(p)-1] > 0
}

func (p Path) Previous() Path {
	result := p.Copy()
	if p.HasPrevious() {
		result[len(result)-1]--
	}
	return result
}

func (p Path) Copy() Path {
	if p == nil {
		return nil
	}
	result := make(Path, len(p))
	copy(result, p)
	return result
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// afterInsert returns where p ends up once a node is inserted at inserted.
func (p Path) afterInsert(inserted Path) Path {
	if len(inserted) == 0 || len(inserted) > len(p) {
		return p
	}
	depth := len(inserted) - 1
	if !inserted[:depth].Equal(p[:depth]) || p[depth] < inserted[depth] {
		return p
	}
	result := p.Copy()
	result[depth]++
	return result
}

// afterRemove returns where p ends up once the node at removed is gone.
// The boolean is false if p was removed with it.
func (p Path) afterRemove(removed Path) (Path, bool) {
	if removed.Contains(p) {
		return nil, false
	}
	if len(removed) == 0 || len(removed) > len(p) {
		return p, true
	}
	depth := len(removed) - 1
	if !removed[:depth].Equal(p[:depth]) || p[depth] < removed[depth] {
		return p, true
	}
	result := p.Copy()
	result[depth]--
	return result, true
}

// Point is a position inside a text leaf.
type Point struct {
	Path   Path `json:"path"`
	Offset int  `json:"offset"`
}

func (p Point) Compare(other Point) int {
	if c := p.Path.Compare(other.Path); c != 0 {
		return c
	}
	switch {
	case p.Offset < other.Offset:
		return -1
	case p.Offset > other.Offset:
		return 1
	}
	return 0
}

func (p Point) Equal(other Point) bool { return p.Compare(other) == 0 }

// Range is the editor selection. Anchor is where it started, Focus where
// it ends; the two are not ordered.
type Range struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Collapsed returns a caret range at point.
func Collapsed(point Point) *Range {
	return &Range{Anchor: point, Focus: point}
}

func (r Range) IsCollapsed() bool { return r.Anchor.Equal(r.Focus) }

// Edges returns the points of the range in document order.
func (r Range) Edges() (Point, Point) {
	if r.Anchor.Compare(r.Focus) <= 0 {
		return r.Anchor, r.Focus
	}
	return r.Focus, r.Anchor
}

// Contains reports whether the range touches the node at path, either
// because one of its points lies inside it or because it spans it.
func (r Range) Contains(path Path) bool {
	start, end := r.Edges()
	if path.Contains(start.Path) || path.Contains(end.Path) {
		return true
	}
	return start.Path.Compare(path) < 0 && path.Compare(end.Path) < 0
}

func (r *Range) clone() *Range {
	if r == nil {
		return nil
	}
	return &Range{
		Anchor: Point{Path: r.Anchor.Path.Copy(), Offset: r.Anchor.Offset},
		Focus:  Point{Path: r.Focus.Path.Copy(), Offset: r.Focus.Offset},
	}
}

// IsActive reports whether a void element at path is under the selection.
// A nil selection is never active.
func (r *Range) IsActive(path Path) bool {
	return r != nil && r.Contains(path)
}
