package editors

// latest remembers the identity of the newest request of a kind. Results
// for an older identity, or delivered after cancel, are dropped.
type latest[K comparable] struct {
	id     K
	seq    uint64
	active bool
}

func (l *latest[K]) begin(id K) uint64 {
	l.seq++
	l.id = id
	l.active = true
	return l.seq
}

func (l *latest[K]) accept(id K, seq uint64) bool {
	if !l.active || l.seq != seq || l.id != id {
		return false
	}
	l.active = false
	return true
}

func (l *latest[K]) pending() bool { return l.active }

func (l *latest[K]) cancel() { l.active = false }
