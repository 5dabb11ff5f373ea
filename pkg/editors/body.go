package editors

import "sync"

type EventType int

const (
	MouseMove EventType = iota + 1
	MouseUp
)

type MouseEvent struct {
	X, Y float64
}

type listener struct {
	typ EventType
	fn  func(MouseEvent)
}

// Body stands in for the document body that gesture listeners attach to
// for the duration of a drag.
type Body struct {
	mu        sync.Mutex
	listeners map[int]listener
	next      int
}

func NewBody() *Body {
	return &Body{listeners: make(map[int]listener)}
}

// AddListener registers fn for events of typ and returns its removal.
func (b *Body) AddListener(typ EventType, fn func(MouseEvent)) (remove func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.listeners[id] = listener{typ: typ, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Listeners returns the number of attached listeners.
func (b *Body) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *Body) Move(x, y float64) { b.dispatch(MouseMove, MouseEvent{X: x, Y: y}) }

func (b *Body) Up(x, y float64) { b.dispatch(MouseUp, MouseEvent{X: x, Y: y}) }

func (b *Body) dispatch(typ EventType, ev MouseEvent) {
	b.mu.Lock()
	var fns []func(MouseEvent)
	for i := 0; i < b.next; i++ {
		if l, ok := b.listeners[i]; ok && l.typ == typ {
			fns = append(fns, l.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// gesture attaches move and up handlers until the first mouse-up.
type gesture struct {
	removeMove func()
	removeUp   func()
}

func startGesture(body *Body, move, up func(MouseEvent)) *gesture {
	g := &gesture{}
	g.removeMove = body.AddListener(MouseMove, move)
	g.removeUp = body.AddListener(MouseUp, func(ev MouseEvent) {
		g.stop()
		up(ev)
	})
	return g
}

func (g *gesture) stop() {
	if g == nil {
		return
	}
	g.removeMove()
	g.removeUp()
}
