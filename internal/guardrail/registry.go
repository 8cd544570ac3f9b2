package guardrail

import (
	"sync/atomic"
)

// Registry resolves guardrail names to live instances. It is read on every
// event in every pipeline run and realtime session, while writes happen only
// at startup or config reload, so it holds an immutable snapshot swapped
// atomically rather than a locked map.
type Registry struct {
	snapshot atomic.Pointer[registrySnapshot]
}

type registrySnapshot struct {
	byName map[string]Guardrail
	names  []string
}

// NewRegistry creates a registry populated with the given guardrails.
func NewRegistry(guardrails ...Guardrail) *Registry {
	r := &Registry{}
	r.Replace(guardrails)
	return r
}

// Replace swaps in a new snapshot built from the given guardrails. Intended
// for startup and config reload only, never steady-state request handling.
func (r *Registry) Replace(guardrails []Guardrail) {
	snap := &registrySnapshot{
		byName: make(map[string]Guardrail, len(guardrails)),
		names:  make([]string, 0, len(guardrails)),
	}
	for _, g := range guardrails {
		if _, exists := snap.byName[g.Name()]; !exists {
			snap.names = append(snap.names, g.Name())
		}
		snap.byName[g.Name()] = g
	}
	r.snapshot.Store(snap)
}

// Lookup resolves a guardrail by exact name match.
func (r *Registry) Lookup(name string) (Guardrail, bool) {
	snap := r.snapshot.Load()
	g, ok := snap.byName[name]
	return g, ok
}

// Names returns the registered guardrail names in registration order.
func (r *Registry) Names() []string {
	snap := r.snapshot.Load()
	out := make([]string, len(snap.names))
	copy(out, snap.names)
	return out
}

// All returns every registered guardrail in registration order.
func (r *Registry) All() []Guardrail {
	snap := r.snapshot.Load()
	out := make([]Guardrail, 0, len(snap.names))
	for _, name := range snap.names {
		out = append(out, snap.byName[name])
	}
	return out
}

// Eligible returns the registered guardrails whose descriptors are bound to
// (or unbound and thus eligible for) any of the given hooks. Used by the
// realtime session to precompute its gate set.
func (r *Registry) Eligible(hooks ...EventHook) []Guardrail {
	snap := r.snapshot.Load()
	out := make([]Guardrail, 0, len(snap.names))
	for _, name := range snap.names {
		g := snap.byName[name]
		desc := g.Descriptor()
		if len(desc.Hooks) == 0 {
			out = append(out, g)
			continue
		}
		for _, h := range hooks {
			if desc.BoundTo(h) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// Len returns the number of registered guardrails.
func (r *Registry) Len() int {
	return len(r.snapshot.Load().names)
}
