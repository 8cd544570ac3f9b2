package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/railguard-ai/railguard/internal/guardrail"
	"github.com/railguard-ai/railguard/internal/observability"
	"github.com/railguard-ai/railguard/internal/types"
)

// realtimeHooks is the eligible hook set for this subsystem. Both forwarding
// loops gate events through the same applicability test over these hooks.
var realtimeHooks = []guardrail.EventHook{
	guardrail.EventHookRealtimeInputTranscription,
	guardrail.EventHookPreCall,
	guardrail.EventHookPostCall,
}

// Session bridges one client-facing and one backend-facing duplex connection
// for the lifetime of a realtime conversation, intercepting gated events
// through the registered guardrails.
//
// Two forwarding loops run concurrently and share the violation counter and
// pending-message flag; both are guarded by a mutex rather than relying on
// the protocol's single-writer timing.
type Session struct {
	client   Conn
	backend  Conn
	registry *guardrail.Registry
	logger   *slog.Logger
	reqCtx   *guardrail.RequestContext

	mu             sync.Mutex
	violationCount int
	pendingMessage string
	audioParts     map[string]bool
	audioBuffers   map[string][]Event

	audit chan auditEntry
}

// auditEntry is a best-effort side-channel log record, decoupled from the
// forwarding path so a slow sink cannot stall message delivery. The raw
// transcript is kept for the sink but redacted before it reaches the logger.
type auditEntry struct {
	kind       string
	guardrail  string
	detail     string
	transcript string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRequestedGuardrails sets the per-session guardrail selection used by
// the applicability test, mirroring a request's metadata.guardrails.
func WithRequestedGuardrails(names []string) SessionOption {
	return func(s *Session) {
		s.reqCtx.Metadata.Guardrails = names
	}
}

// NewSession creates a session over an established client and backend
// connection pair.
func NewSession(client, backend Conn, registry *guardrail.Registry, opts ...SessionOption) *Session {
	s := &Session{
		client:       client,
		backend:      backend,
		registry:     registry,
		logger:       slog.Default(),
		reqCtx:       guardrail.NewRequestContext(nil),
		audioParts:   make(map[string]bool),
		audioBuffers: make(map[string][]Event),
		audit:        make(chan auditEntry, 64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ViolationCount returns the number of guardrail violations so far.
func (s *Session) ViolationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violationCount
}

// Run drives both forwarding loops until either connection closes. Closure
// of one side propagates to the other within one receive cycle; Run returns
// after both loops have terminated.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	auditDone := make(chan struct{})
	go s.drainAudit(auditDone)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.closeBoth("peer loop ended")
		return s.clientToBackend(ctx)
	})
	g.Go(func() error {
		defer s.closeBoth("peer loop ended")
		return s.backendToClient(ctx)
	})

	err := g.Wait()
	close(s.audit)
	<-auditDone

	// A closed connection is the normal way a session ends.
	if errors.Is(err, types.NewError(types.REALTIME_SESSION_CLOSED, "")) {
		return nil
	}
	return err
}

func (s *Session) closeBoth(reason string) {
	_ = s.backend.Close(reason)
	_ = s.client.Close(reason)
}

func (s *Session) drainAudit(done chan struct{}) {
	defer close(done)
	for entry := range s.audit {
		args := observability.RedactArgs([]any{
			"kind", entry.kind,
			"guardrail", entry.guardrail,
			"detail", entry.detail,
			"transcript", entry.transcript,
		})
		s.logger.Info("realtime guardrail event", args...)
	}
}

// record emits a side-channel audit entry, dropping it when the buffer is
// full rather than blocking the forwarding path.
func (s *Session) record(kind, name, detail, transcript string) {
	select {
	case s.audit <- auditEntry{kind: kind, guardrail: name, detail: detail, transcript: transcript}:
	default:
	}
}

// eligibleGuardrails returns the registered guardrails the applicability
// test admits for realtime events.
func (s *Session) eligibleGuardrails() []guardrail.Guardrail {
	var out []guardrail.Guardrail
	for _, g := range s.registry.All() {
		desc := g.Descriptor()
		for _, hook := range realtimeHooks {
			if guardrail.ShouldRun(desc, s.reqCtx, hook) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// checkText runs the eligible guardrails against one utterance. It returns
// the blocking guardrail and result when intervened; (nil, pass) otherwise.
// An errored check is logged and skipped: the realtime path has no on_fail
// ladder, and dropping every utterance on a vendor outage would end the
// conversation rather than protect it.
func (s *Session) checkText(ctx context.Context, text string) (guardrail.Guardrail, guardrail.CheckResult) {
	for _, g := range s.eligibleGuardrails() {
		_, result := g.Apply(ctx, guardrail.Inputs{Texts: []string{text}}, s.reqCtx, guardrail.DirectionRequest)
		switch result.Outcome {
		case guardrail.OutcomeBlocked:
			s.record("blocked", g.Name(), result.Reason, text)
			return g, result
		case guardrail.OutcomeErrored:
			observability.WithTrace(ctx, s.logger).WarnContext(ctx, "realtime guardrail check errored",
				"guardrail", g.Name(),
				"error", result.Detail(),
			)
			s.record("errored", g.Name(), result.Detail(), text)
		}
	}
	return nil, guardrail.Pass()
}

// readEvent reads the next event from a connection, skipping (and logging)
// single malformed messages rather than ending the session for them.
func (s *Session) readEvent(ctx context.Context, conn Conn, side string) (Event, error) {
	for {
		ev, err := conn.Read(ctx)
		if err == nil {
			return ev, nil
		}
		if errors.Is(err, types.NewError(types.REALTIME_PROTOCOL, "")) {
			s.logger.WarnContext(ctx, "skipping malformed realtime message",
				"side", side,
				"error", err.Error(),
			)
			continue
		}
		return nil, err
	}
}

// backendToClient forwards backend events to the client, injecting guardrail
// control messages toward the backend where the protocol requires it.
func (s *Session) backendToClient(ctx context.Context) error {
	for {
		ev, err := s.readEvent(ctx, s.backend, "backend")
		if err != nil {
			return err
		}

		switch ev.Type() {
		case EventTypeSessionCreated:
			if err := s.handleSessionCreated(ctx, ev); err != nil {
				return err
			}

		case EventTypeTranscriptionCompleted:
			if err := s.handleTranscription(ctx, ev); err != nil {
				return err
			}

		case EventTypeContentPartAdded:
			if ev.IsAudioContentPart() {
				s.mu.Lock()
				s.audioParts[ev.partKey()] = true
				s.mu.Unlock()
			}
			if err := s.client.Write(ctx, ev); err != nil {
				return err
			}

		case EventTypeAudioTranscriptDelta, EventTypeAudioDelta:
			if !s.bufferAudioEvent(ev) {
				if err := s.client.Write(ctx, ev); err != nil {
					return err
				}
			}

		case EventTypeAudioTranscriptDone:
			if err := s.flushAudioBuffer(ctx, ev); err != nil {
				return err
			}

		default:
			if err := s.client.Write(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// handleSessionCreated forwards the session-ready event, then disables the
// backend's automatic responses when any eligible guardrail is registered so
// nothing is generated before a guardrail has seen the utterance.
func (s *Session) handleSessionCreated(ctx context.Context, ev Event) error {
	if err := s.client.Write(ctx, ev); err != nil {
		return err
	}
	if len(s.eligibleGuardrails()) == 0 {
		return nil
	}
	return s.backend.Write(ctx, NewSessionUpdateDisableAutoResponse())
}

// handleTranscription forwards a completed transcription to the client so
// the user sees what was heard, then gates response generation on the
// guardrail verdict.
func (s *Session) handleTranscription(ctx context.Context, ev Event) error {
	if err := s.client.Write(ctx, ev); err != nil {
		return err
	}

	blockedBy, result := s.checkText(ctx, ev.Transcript())
	if blockedBy == nil {
		return s.backend.Write(ctx, NewResponseCreate())
	}

	return s.intercept(ctx, blockedBy, result)
}

// intercept runs the shared block sequence: cancel any in-flight response,
// surface the violation to the client, have the model speak the violation
// message, and count the violation toward session termination.
func (s *Session) intercept(ctx context.Context, blockedBy guardrail.Guardrail, result guardrail.CheckResult) error {
	// Covers the race where the backend auto-started generating before the
	// guardrail finished, despite auto-response being disabled at setup.
	if err := s.backend.Write(ctx, NewResponseCancel()); err != nil {
		return err
	}
	if err := s.client.Write(ctx, NewGuardrailViolationError(result.Reason)); err != nil {
		return err
	}

	instruction := fmt.Sprintf(
		"The user's last message was blocked by a safety guardrail. Briefly tell the user their message was blocked, including this reason: %s",
		result.Reason,
	)
	if err := s.backend.Write(ctx, NewSyntheticInstruction(instruction)); err != nil {
		return err
	}
	if err := s.backend.Write(ctx, NewResponseCreate()); err != nil {
		return err
	}

	s.mu.Lock()
	s.violationCount++
	count := s.violationCount
	s.mu.Unlock()

	desc := blockedBy.Descriptor()
	if desc.OnViolation == guardrail.ViolationPolicyEndSession ||
		(desc.EndSessionAfterNFails > 0 && count >= desc.EndSessionAfterNFails) {
		s.logger.InfoContext(ctx, "ending realtime session after guardrail violation",
			"guardrail", blockedBy.Name(),
			"violations", count,
		)
		// Closing the backend cascades to the client through loop teardown.
		_ = s.backend.Close("guardrail violation limit reached")
	}

	return nil
}

// bufferAudioEvent appends an audio event to its part's buffer, returning
// false when the part is not being buffered.
func (s *Session) bufferAudioEvent(ev Event) bool {
	key := ev.partKey()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.audioParts[key] {
		return false
	}
	s.audioBuffers[key] = append(s.audioBuffers[key], ev)
	return true
}

// flushAudioBuffer releases a part's buffered events in original order,
// immediately followed by the done event.
func (s *Session) flushAudioBuffer(ctx context.Context, done Event) error {
	key := done.partKey()
	s.mu.Lock()
	buffered := s.audioBuffers[key]
	delete(s.audioBuffers, key)
	delete(s.audioParts, key)
	s.mu.Unlock()

	for _, ev := range buffered {
		if err := s.client.Write(ctx, ev); err != nil {
			return err
		}
	}
	return s.client.Write(ctx, done)
}

// clientToBackend forwards client events to the backend, gating user text
// messages and suppressing the response request that follows a block.
func (s *Session) clientToBackend(ctx context.Context) error {
	for {
		ev, err := s.readEvent(ctx, s.client, "client")
		if err != nil {
			return err
		}

		switch ev.Type() {
		case EventTypeConversationItemCreate:
			text, isUserMessage := ev.UserMessageText()
			if !isUserMessage {
				if err := s.backend.Write(ctx, ev); err != nil {
					return err
				}
				continue
			}

			blockedBy, result := s.checkText(ctx, text)
			if blockedBy == nil {
				if err := s.backend.Write(ctx, ev); err != nil {
					return err
				}
				continue
			}

			// Remember the blocked text so the client's follow-up response
			// request is suppressed: the synthetic warning already triggered
			// its own generation.
			s.mu.Lock()
			s.pendingMessage = text
			s.mu.Unlock()

			if err := s.intercept(ctx, blockedBy, result); err != nil {
				return err
			}

		case EventTypeResponseCreate:
			s.mu.Lock()
			suppress := s.pendingMessage != ""
			s.pendingMessage = ""
			s.mu.Unlock()
			if suppress {
				continue
			}
			if err := s.backend.Write(ctx, ev); err != nil {
				return err
			}

		default:
			if err := s.backend.Write(ctx, ev); err != nil {
				return err
			}
		}
	}
}
