package identity

import (
	"fmt"
	"sync/atomic"

	"github.com/stateful/embedkit/internal/ulid"
)

type LifecycleIdentity int

// LifecycleIdentities determine which document elements receive a key.
//
// The following identities are supported:
// - UnspecifiedLifecycleIdentity: No key is generated.
// - AllLifecycleIdentity: Every element gets a key.
// - VoidLifecycleIdentity: Only void elements (embeds, footnotes) get a key.
const (
	UnspecifiedLifecycleIdentity LifecycleIdentity = iota
	AllLifecycleIdentity
	VoidLifecycleIdentity
)

const DefaultLifecycleIdentity = AllLifecycleIdentity

// Generator produces unique element keys.
type Generator interface {
	NewKey() string
}

type ulidGenerator struct{}

func (ulidGenerator) NewKey() string { return ulid.Generate() }

// ULIDGenerator generates lexically sortable keys.
func ULIDGenerator() Generator {
	return ulidGenerator{}
}

// SequenceGenerator generates "prefix-1", "prefix-2", ... keys.
// It is deterministic and meant for tests.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Int64
}

func (g *SequenceGenerator) NewKey() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1))
}

// ValidKey reports whether the key is a valid ULID.
func ValidKey(key string) bool {
	return ulid.Valid(key)
}

type Resolver struct {
	lifecycle LifecycleIdentity
	generator Generator
}

type ResolverOption func(*Resolver)

func WithGenerator(g Generator) ResolverOption {
	return func(r *Resolver) {
		r.generator = g
	}
}

func NewResolver(required LifecycleIdentity, opts ...ResolverOption) *Resolver {
	r := &Resolver{lifecycle: required}
	for _, opt := range opts {
		opt(r)
	}
	if r.generator == nil {
		r.generator = ULIDGenerator()
	}
	return r
}

// Enabled reports whether an element of the given voidness should be keyed.
func (r *Resolver) Enabled(void bool) bool {
	switch r.lifecycle {
	case AllLifecycleIdentity:
		return true
	case VoidLifecycleIdentity:
		return void
	default:
		return false
	}
}

// Key returns the existing key if set, otherwise a new one when the
// lifecycle requires it. The boolean is true when the key is newly generated.
func (r *Resolver) Key(existing string, void bool) (string, bool) {
	if existing != "" {
		return existing, false
	}
	if !r.Enabled(void) {
		return "", false
	}
	return r.generator.NewKey(), true
}
