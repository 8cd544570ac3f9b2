package guardrail

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGuardrail struct {
	Base
}

func newStub(name string, hooks ...EventHook) *stubGuardrail {
	return &stubGuardrail{Base: Base{Desc: Descriptor{Name: name, Hooks: hooks}}}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(newStub("pii"), newStub("moderation", EventHookPreCall))

	g, ok := reg.Lookup("pii")
	require.True(t, ok)
	assert.Equal(t, "pii", g.Name())

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"pii", "moderation"}, reg.Names())
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry(newStub("old"))
	reg.Replace([]Guardrail{newStub("new")})

	_, ok := reg.Lookup("old")
	assert.False(t, ok)
	_, ok = reg.Lookup("new")
	assert.True(t, ok)
}

func TestRegistryDuplicateNamesLastWins(t *testing.T) {
	a := newStub("dup")
	b := newStub("dup", EventHookPreCall)
	reg := NewRegistry(a, b)

	g, ok := reg.Lookup("dup")
	require.True(t, ok)
	assert.True(t, g.Descriptor().BoundTo(EventHookPreCall))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryEligible(t *testing.T) {
	reg := NewRegistry(
		newStub("unbound"),
		newStub("pre", EventHookPreCall),
		newStub("post", EventHookPostCall),
		newStub("voice", EventHookRealtimeInputTranscription),
	)

	eligible := reg.Eligible(EventHookRealtimeInputTranscription, EventHookPreCall)
	names := make([]string, 0, len(eligible))
	for _, g := range eligible {
		names = append(names, g.Name())
	}
	assert.Equal(t, []string{"unbound", "pre", "voice"}, names)
}

func TestRegistryConcurrentReadDuringReplace(t *testing.T) {
	reg := NewRegistry(newStub("a"))

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				reg.Lookup("a")
				reg.Eligible(EventHookPreCall)
			}
		}
	}()

	for i := 0; i < 100; i++ {
		reg.Replace([]Guardrail{newStub("a"), newStub("b")})
	}
	close(done)
	wg.Wait()
}
