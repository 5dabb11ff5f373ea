package document

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// SplitText splits the text leaf at point and returns the path of the leaf
// that starts at the point. Splitting at either end does not create nodes.
func (tx *Tx) SplitText(point Point) (Path, error) {
	path, _, err := tx.splitText(point)
	return path, err
}

func (tx *Tx) splitText(point Point) (Path, bool, error) {
	n, err := tx.Node(point.Path)
	if err != nil {
		return nil, false, err
	}
	if !n.IsText() {
		return nil, false, errors.Wrapf(ErrNotText, "split at %s", point.Path)
	}
	offset := clampOffset(n.Text, point.Offset)
	switch offset {
	case 0:
		return point.Path.Copy(), false, nil
	case len(n.Text):
		return point.Path.Next(), false, nil
	}

	right := &Node{Text: n.Text[offset:], Marks: n.Marks}
	n.Text = n.Text[:offset]

	parent, _ := tx.Node(point.Path.Parent())
	idx := point.Path.Last() + 1
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = right

	next := point.Path.Next()
	if tx.selection != nil {
		tx.selection.Anchor = shiftPoint(tx.selection.Anchor, point.Path, offset)
		tx.selection.Focus = shiftPoint(tx.selection.Focus, point.Path, offset)
	}
	tx.record(OpSplitNode, point.Path, "")
	return next, true, nil
}

// shiftPoint moves p across a split of the leaf at split.
func shiftPoint(p Point, split Path, offset int) Point {
	if p.Path.Equal(split) {
		if p.Offset > offset {
			return Point{Path: split.Next(), Offset: p.Offset - offset}
		}
		return p
	}
	return Point{Path: p.Path.afterInsert(split.Next()), Offset: p.Offset}
}

func clampOffset(text string, offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset >= len(text) {
		return len(text)
	}
	for offset > 0 && !utf8.RuneStart(text[offset]) {
		offset--
	}
	return offset
}

// splitRange splits the leaves at both range edges and returns the paths of
// the first leaf inside the range and the first position after it.
func (tx *Tx) splitRange(r Range) (Path, Path, error) {
	start, end := r.Edges()
	endPath, _, err := tx.splitText(end)
	if err != nil {
		return nil, nil, err
	}
	startPath, created, err := tx.splitText(start)
	if err != nil {
		return nil, nil, err
	}
	if created {
		endPath = endPath.afterInsert(startPath)
	}
	return startPath, endPath, nil
}

// TextLeaves returns the paths of all text leaves in [from, to) outside of
// void elements.
func (tx *Tx) TextLeaves(from, to Path) []Path {
	var result []Path
	_ = Walk(tx.root, Path{}, func(n *Node, p Path) error {
		if n.IsVoid() {
			return ErrSkipChildren
		}
		if n.IsText() && p.Compare(from) >= 0 && p.Compare(to) < 0 {
			result = append(result, p)
		}
		return nil
	})
	return result
}

// SetMark adds or removes mark on the text in r and selects the result.
func (tx *Tx) SetMark(r Range, mark Marks, on bool) error {
	if r.IsCollapsed() {
		return nil
	}
	from, to, err := tx.splitRange(r)
	if err != nil {
		return err
	}
	leaves := tx.TextLeaves(from, to)
	if len(leaves) == 0 {
		return nil
	}
	for _, p := range leaves {
		n, _ := tx.Node(p)
		if on {
			n.Marks = n.Marks.With(mark)
		} else {
			n.Marks = n.Marks.Without(mark)
		}
		tx.record(OpSetNode, p, "")
	}
	last := leaves[len(leaves)-1]
	lastNode, _ := tx.Node(last)
	tx.Select(&Range{
		Anchor: Point{Path: leaves[0]},
		Focus:  Point{Path: last, Offset: len(lastNode.Text)},
	})
	return nil
}

// Marks returns the marks shared by every text leaf in r. For a collapsed
// range it returns the marks of the leaf under the caret.
func (tx *Tx) Marks(r Range) Marks {
	start, end := r.Edges()
	if r.IsCollapsed() {
		if n, err := tx.Node(start.Path); err == nil && n.IsText() {
			return n.Marks
		}
		return 0
	}
	leaves := tx.TextLeaves(start.Path, end.Path.Next())
	var result Marks
	counted := 0
	for _, p := range leaves {
		n, _ := tx.Node(p)
		if (p.Equal(start.Path) && start.Offset >= len(n.Text) && len(n.Text) > 0) ||
			(p.Equal(end.Path) && end.Offset == 0 && len(n.Text) > 0) {
			continue
		}
		if counted == 0 {
			result = n.Marks
		} else {
			result &= n.Marks
		}
		counted++
	}
	return result
}

// WrapInline wraps the text in r with the inline element. The range must
// lie inside a single parent. It returns the path of the new element.
func (tx *Tx) WrapInline(r Range, element *Node) (Path, error) {
	if r.IsCollapsed() {
		return nil, errors.New("cannot wrap a collapsed range")
	}
	start, end := r.Edges()
	if !start.Path.Parent().Equal(end.Path.Parent()) {
		return nil, ErrCrossBlock
	}
	from, to, err := tx.splitRange(r)
	if err != nil {
		return nil, err
	}
	parentPath := from.Parent()
	parent, err := tx.Node(parentPath)
	if err != nil {
		return nil, err
	}
	lo, hi := from.Last(), to.Last()
	if hi > len(parent.Children) {
		hi = len(parent.Children)
	}
	if lo >= hi {
		return nil, errors.Wrapf(ErrPathNotFound, "empty range at %s", from)
	}

	wrapped := make([]*Node, hi-lo)
	copy(wrapped, parent.Children[lo:hi])
	element.Children = wrapped
	tx.store.assignKeys(element)

	children := make([]*Node, 0, len(parent.Children)-len(wrapped)+1)
	children = append(children, parent.Children[:lo]...)
	children = append(children, element)
	children = append(children, parent.Children[hi:]...)
	parent.Children = children

	path := parentPath.Child(lo)
	last := wrapped[len(wrapped)-1]
	tx.Select(&Range{
		Anchor: Point{Path: path.Child(0)},
		Focus:  Point{Path: path.Child(len(wrapped) - 1), Offset: len(last.Text)},
	})
	tx.record(OpWrapNode, path, element.Key)
	return path, nil
}

// UnwrapNode replaces the element at path with its children.
func (tx *Tx) UnwrapNode(path Path) error {
	if len(path) == 0 {
		return ErrRootRemoval
	}
	n, err := tx.Node(path)
	if err != nil {
		return err
	}
	if !n.IsElement() {
		return errors.Wrapf(ErrNotElement, "unwrap at %s", path)
	}
	parent, _ := tx.Node(path.Parent())
	idx := path.Last()

	children := make([]*Node, 0, len(parent.Children)+len(n.Children)-1)
	children = append(children, parent.Children[:idx]...)
	children = append(children, n.Children...)
	children = append(children, parent.Children[idx+1:]...)
	parent.Children = children

	if tx.selection != nil {
		tx.selection.Anchor.Path = unwrapPath(tx.selection.Anchor.Path, path, len(n.Children))
		tx.selection.Focus.Path = unwrapPath(tx.selection.Focus.Path, path, len(n.Children))
	}
	tx.record(OpUnwrapNode, path, n.Key)
	return nil
}

func unwrapPath(p, unwrapped Path, count int) Path {
	depth := len(unwrapped) - 1
	switch {
	case unwrapped.IsAncestorOf(p):
		result := make(Path, 0, len(p)-1)
		result = append(result, unwrapped[:depth]...)
		result = append(result, unwrapped[depth]+p[depth+1])
		return append(result, p[depth+2:]...)
	case len(p) > depth && unwrapped[:depth].Equal(p[:depth]) && p[depth] > unwrapped[depth]:
		result := p.Copy()
		result[depth] += count - 1
		return result
	}
	return p
}

// InsertInline inserts the inline element at point, splitting the text
// leaf, and places the caret after it.
func (tx *Tx) InsertInline(point Point, element *Node) (Path, error) {
	if !element.IsInline() {
		return nil, errors.Errorf("%s is not an inline element", element.Type)
	}
	path, err := tx.SplitText(point)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertNode(path, element); err != nil {
		return nil, err
	}
	after := path.Next()
	parent, _ := tx.Node(path.Parent())
	if after.Last() >= len(parent.Children) {
		if err := tx.InsertNode(after, NewText("")); err != nil {
			return nil, err
		}
	}
	tx.Select(Collapsed(Point{Path: after}))
	return path, nil
}

// Ancestor returns the closest element at or above path for which match
// returns true.
func (tx *Tx) Ancestor(path Path, match func(*Node) bool) (*Node, Path, bool) {
	for p := path.Copy(); len(p) > 0; p = p.Parent() {
		n, err := tx.Node(p)
		if err != nil {
			continue
		}
		if n.IsElement() && match(n) {
			return n, p, true
		}
	}
	return nil, nil, false
}

// SetBlockType changes the type of the top-level blocks touched by r.
func (tx *Tx) SetBlockType(r Range, typ string) error {
	start, end := r.Edges()
	if len(start.Path) == 0 || len(end.Path) == 0 {
		return errors.Wrap(ErrPathNotFound, "empty selection path")
	}
	for i := start.Path[0]; i <= end.Path[0]; i++ {
		n, err := tx.Node(Path{i})
		if err != nil {
			return err
		}
		if n.IsVoid() {
			continue
		}
		if err := tx.SetNode(Path{i}, NodeProps{Type: typ}); err != nil {
			return err
		}
	}
	return nil
}
