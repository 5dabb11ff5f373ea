package document

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/pkg/document/identity"
	"github.com/stateful/embedkit/pkg/embed"
)

var (
	ErrPathNotFound = errors.New("path not found")
	ErrNotElement   = errors.New("node is not an element")
	ErrNotText      = errors.New("node is not a text leaf")
	ErrRootRemoval  = errors.New("root cannot be removed or replaced")
	ErrCrossBlock   = errors.New("range spans more than one block")
)

// NodeProps is a partial update for an element. Data is merged shallowly
// into the current data: keys present override, empty values delete.
// Nil fields are left unchanged.
type NodeProps struct {
	Type            string
	Data            embed.Attributes
	IsFirstEdit     *bool
	SelectedForCopy *bool
}

// DocumentStore is the document as seen by block components. Paths go stale
// whenever a sibling is inserted or removed; components keep element keys
// and re-resolve paths with PathOf right before writing.
type DocumentStore interface {
	Node(Path) (*Node, error)
	PathOf(key string) (Path, bool)
	SetNode(Path, NodeProps) error
	RemoveNode(Path) error
	InsertNode(Path, *Node) error
	Selection() *Range
	Select(*Range)
	Subscribe(func(Change)) (unsubscribe func())
}

// Op names a store change.
type Op string

const (
	OpSetNode      Op = "set_node"
	OpInsertNode   Op = "insert_node"
	OpRemoveNode   Op = "remove_node"
	OpSplitNode    Op = "split_node"
	OpWrapNode     Op = "wrap_node"
	OpUnwrapNode   Op = "unwrap_node"
	OpSetSelection Op = "set_selection"
)

type Change struct {
	Op   Op
	Path Path
	Key  string
}

// Store is an in-memory [DocumentStore]. It is safe for concurrent use;
// subscribers run after the lock is released.
type Store struct {
	mu        sync.RWMutex
	root      *Node
	selection *Range
	resolver  *identity.Resolver
	logger    *zap.Logger

	subMu       sync.Mutex
	subscribers map[int]func(Change)
	nextSub     int
}

var _ DocumentStore = (*Store)(nil)

type StoreOption func(*Store)

func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithIdentityResolver(resolver *identity.Resolver) StoreOption {
	return func(s *Store) {
		s.resolver = resolver
	}
}

// NewStore creates a store holding the given top-level blocks. Elements
// without a key get one according to the identity resolver.
func NewStore(blocks []*Node, opts ...StoreOption) *Store {
	s := &Store{
		root:        &Node{Type: TypeRoot},
		subscribers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.resolver == nil {
		s.resolver = identity.NewResolver(identity.DefaultLifecycleIdentity)
	}
	for _, block := range blocks {
		s.root.Children = append(s.root.Children, block)
	}
	s.assignKeys(s.root)
	normalize(s.root)
	return s
}

func (s *Store) assignKeys(node *Node) {
	_ = Walk(node, nil, func(n *Node, _ Path) error {
		if n.IsElement() && n.Type != TypeRoot {
			n.Key, _ = s.resolver.Key(n.Key, n.IsVoid())
		}
		return nil
	})
}

// Root returns a deep copy of the document.
func (s *Store) Root() *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Clone()
}

// Blocks returns deep copies of the top-level blocks.
func (s *Store) Blocks() []*Node {
	return s.Root().Children
}

func (s *Store) Node(path Path) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := nodeAt(s.root, path)
	if err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

func (s *Store) PathOf(key string) (Path, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindPath(s.root, key)
}

func (s *Store) SetNode(path Path, props NodeProps) error {
	return s.Transform(func(tx *Tx) error {
		return tx.SetNode(path, props)
	})
}

func (s *Store) RemoveNode(path Path) error {
	return s.Transform(func(tx *Tx) error {
		return tx.RemoveNode(path)
	})
}

func (s *Store) InsertNode(path Path, node *Node) error {
	return s.Transform(func(tx *Tx) error {
		return tx.InsertNode(path, node)
	})
}

func (s *Store) Selection() *Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.clone()
}

func (s *Store) Select(r *Range) {
	_ = s.Transform(func(tx *Tx) error {
		tx.Select(r)
		return nil
	})
}

// Subscribe registers fn for every change. The returned function removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// Transform runs fn as a single atomic edit. If fn fails, the document
// and selection are left as they were.
func (s *Store) Transform(fn func(*Tx) error) error {
	s.mu.Lock()
	tx := &Tx{
		root:      s.root.Clone(),
		selection: s.selection.clone(),
		store:     s,
	}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		s.logger.Debug("transform rejected", zap.Error(err))
		return err
	}
	normalize(tx.root)
	s.root = tx.root
	s.selection = tx.selection
	s.mu.Unlock()

	s.notify(tx.changes)
	return nil
}

// View runs fn on a snapshot of the document. Changes made by fn are
// discarded.
func (s *Store) View(fn func(*Tx) error) error {
	s.mu.RLock()
	tx := &Tx{
		root:      s.root.Clone(),
		selection: s.selection.clone(),
		store:     s,
	}
	s.mu.RUnlock()
	return fn(tx)
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.subMu.Lock()
	subscribers := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.Unlock()

	for _, change := range changes {
		s.logger.Debug("document changed", zap.String("op", string(change.Op)), zap.Stringer("path", change.Path), zap.String("key", change.Key))
		for _, fn := range subscribers {
			fn(change)
		}
	}
}

// Tx is an in-progress edit of a [Store]. It works on a private copy of the
// document and is only valid inside the Transform callback.
type Tx struct {
	root      *Node
	selection *Range
	store     *Store
	changes   []Change
}

// Node returns the live node at path. Changes to it are kept.
func (tx *Tx) Node(path Path) (*Node, error) {
	return nodeAt(tx.root, path)
}

func (tx *Tx) Root() *Node { return tx.root }

func (tx *Tx) PathOf(key string) (Path, bool) { return FindPath(tx.root, key) }

func (tx *Tx) Selection() *Range { return tx.selection }

func (tx *Tx) Select(r *Range) {
	tx.selection = r.clone()
	tx.record(OpSetSelection, nil, "")
}

func (tx *Tx) record(op Op, path Path, key string) {
	tx.changes = append(tx.changes, Change{Op: op, Path: path.Copy(), Key: key})
}

func (tx *Tx) SetNode(path Path, props NodeProps) error {
	n, err := tx.Node(path)
	if err != nil {
		return err
	}
	if !n.IsElement() {
		return errors.Wrapf(ErrNotElement, "set node at %s", path)
	}
	if props.Type != "" {
		if len(path) == 0 {
			return ErrRootRemoval
		}
		n.Type = props.Type
	}
	if props.Data != nil {
		n.Data = n.Data.Merge(props.Data)
	}
	if props.IsFirstEdit != nil {
		n.IsFirstEdit = *props.IsFirstEdit
	}
	if props.SelectedForCopy != nil {
		n.SelectedForCopy = *props.SelectedForCopy
	}
	tx.record(OpSetNode, path, n.Key)
	return nil
}

func (tx *Tx) InsertNode(path Path, node *Node) error {
	if len(path) == 0 {
		return ErrRootRemoval
	}
	parent, err := tx.Node(path.Parent())
	if err != nil {
		return err
	}
	if parent.IsText() {
		return errors.Wrapf(ErrNotElement, "insert at %s", path)
	}
	idx := path.Last()
	if idx < 0 || idx > len(parent.Children) {
		return errors.Wrapf(ErrPathNotFound, "insert at %s", path)
	}
	tx.store.assignKeys(node)
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = node

	if tx.selection != nil {
		tx.selection.Anchor.Path = tx.selection.Anchor.Path.afterInsert(path)
		tx.selection.Focus.Path = tx.selection.Focus.Path.afterInsert(path)
	}
	tx.record(OpInsertNode, path, node.Key)
	return nil
}

func (tx *Tx) RemoveNode(path Path) error {
	if len(path) == 0 {
		return ErrRootRemoval
	}
	n, err := tx.Node(path)
	if err != nil {
		return err
	}
	parent, _ := tx.Node(path.Parent())
	idx := path.Last()
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	tx.record(OpRemoveNode, path, n.Key)

	if tx.selection == nil {
		return nil
	}
	anchor, anchorOK := tx.selection.Anchor.Path.afterRemove(path)
	focus, focusOK := tx.selection.Focus.Path.afterRemove(path)
	switch {
	case anchorOK && focusOK:
		tx.selection.Anchor.Path = anchor
		tx.selection.Focus.Path = focus
	default:
		tx.selection = tx.pointNear(path)
	}
	return nil
}

// pointNear finds a caret position close to a removed path: the start of
// whatever took its place, the end of the previous sibling, or nothing.
func (tx *Tx) pointNear(removed Path) *Range {
	if p, ok := tx.firstText(removed); ok {
		return Collapsed(Point{Path: p})
	}
	if removed.HasPrevious() {
		if p, text, ok := tx.lastText(removed.Previous()); ok {
			return Collapsed(Point{Path: p, Offset: len(text)})
		}
	}
	return nil
}

func (tx *Tx) firstText(path Path) (Path, bool) {
	n, err := tx.Node(path)
	if err != nil {
		return nil, false
	}
	for n.IsElement() {
		if len(n.Children) == 0 {
			return nil, false
		}
		n = n.Children[0]
		path = path.Child(0)
	}
	return path, true
}

func (tx *Tx) lastText(path Path) (Path, string, bool) {
	n, err := tx.Node(path)
	if err != nil {
		return nil, "", false
	}
	for n.IsElement() {
		if len(n.Children) == 0 {
			return nil, "", false
		}
		last := len(n.Children) - 1
		n = n.Children[last]
		path = path.Child(last)
	}
	return path, n.Text, true
}

func nodeAt(root *Node, path Path) (*Node, error) {
	n := root
	for depth, idx := range path {
		if idx < 0 || idx >= len(n.Children) {
			return nil, errors.Wrapf(ErrPathNotFound, "%s at depth %d", path, depth)
		}
		n = n.Children[idx]
	}
	return n, nil
}

// FindPath returns the current path of the element with the given key.
func FindPath(root *Node, key string) (Path, bool) {
	if key == "" {
		return nil, false
	}
	var found Path
	_ = Walk(root, Path{}, func(n *Node, p Path) error {
		if n.Key == key && n.IsElement() {
			found = p
			return errStop
		}
		return nil
	})
	return found, found != nil
}

var errStop = errors.New("stop")

// normalize restores the structural invariants: void elements hold exactly
// one empty text leaf and other elements have at least one child.
func normalize(n *Node) {
	if n.IsText() {
		return
	}
	if n.IsVoid() {
		n.Children = []*Node{NewText("")}
		return
	}
	if len(n.Children) == 0 && n.Type != TypeRoot {
		n.Children = []*Node{NewText("")}
	}
	for _, child := range n.Children {
		normalize(child)
	}
}
