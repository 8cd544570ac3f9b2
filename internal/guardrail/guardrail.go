package guardrail

import "context"

// EventHook identifies the lifecycle point at which a guardrail may run.
type EventHook string

const (
	EventHookPreCall                    EventHook = "pre_call"
	EventHookDuringCall                 EventHook = "during_call"
	EventHookPostCall                   EventHook = "post_call"
	EventHookPreMCPCall                 EventHook = "pre_mcp_call"
	EventHookDuringMCPCall              EventHook = "during_mcp_call"
	EventHookRealtimeInputTranscription EventHook = "realtime_input_transcription"
	EventHookLoggingOnly                EventHook = "logging_only"
)

// ViolationPolicy controls what a realtime session does after a guardrail
// blocks an utterance.
type ViolationPolicy string

const (
	// ViolationPolicyContinue keeps the session open after a violation.
	ViolationPolicyContinue ViolationPolicy = ""

	// ViolationPolicyEndSession closes the session on the first violation.
	ViolationPolicyEndSession ViolationPolicy = "end_session"
)

// Direction indicates whether Apply is inspecting request or response content.
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

// ToolDef describes a tool exposed to the model, passed through Apply so
// guardrails can inspect tool schemas alongside text.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Inputs is the normalized content bundle handed to Apply.
type Inputs struct {
	Texts  []string  `json:"texts"`
	Images []string  `json:"images,omitempty"`
	Tools  []ToolDef `json:"tools,omitempty"`
}

// Descriptor is the immutable configuration of a guardrail instance.
// Created once at config-load time; never mutated afterward except for
// tunables surfaced as plain fields.
type Descriptor struct {
	// Name is the unique key this guardrail is registered and resolved by.
	Name string

	// SupportedHooks lists every hook this guardrail implementation can serve.
	SupportedHooks []EventHook

	// Hooks is the set of hooks this instance is bound to. A nil slice means
	// "run whenever explicitly named", at any hook.
	Hooks []EventHook

	// DefaultOn makes the guardrail run for every request without requiring
	// per-request selection.
	DefaultOn bool

	// OnViolation controls realtime session handling after a block.
	OnViolation ViolationPolicy

	// EndSessionAfterNFails terminates a realtime session once the violation
	// count reaches this threshold. Zero disables the threshold.
	EndSessionAfterNFails int

	// Tunables.
	NumRetries            int
	StreamingSamplingRate float64
}

// BoundTo reports whether the descriptor is bound to the given hook.
func (d *Descriptor) BoundTo(hook EventHook) bool {
	for _, h := range d.Hooks {
		if h == hook {
			return true
		}
	}
	return false
}

// Guardrail defines the capability contract every guardrail plugin implements.
// Hook methods return a tagged CheckResult rather than signaling blocks
// through errors; an error return is reserved for the Errored outcome inside
// the result itself.
type Guardrail interface {
	Name() string
	Descriptor() *Descriptor

	// PreCall inspects the request before it is sent upstream. It may rewrite
	// the context and report the rewrite via a modified result.
	PreCall(ctx context.Context, rc *RequestContext) CheckResult

	// DuringCall runs in parallel with the upstream call.
	DuringCall(ctx context.Context, rc *RequestContext) CheckResult

	// PostCall inspects the upstream response.
	PostCall(ctx context.Context, rc *RequestContext, resp *Response) CheckResult

	// Apply runs the guardrail against a normalized content bundle. It returns
	// the (possibly rewritten) inputs together with the check outcome.
	Apply(ctx context.Context, in Inputs, rc *RequestContext, dir Direction) (Inputs, CheckResult)
}

// Base provides pass-through hook implementations so concrete guardrails only
// implement the hooks they care about. Embed it and override as needed.
type Base struct {
	Desc Descriptor
}

func (b *Base) Name() string {
	return b.Desc.Name
}

func (b *Base) Descriptor() *Descriptor {
	return &b.Desc
}

func (b *Base) PreCall(ctx context.Context, rc *RequestContext) CheckResult {
	return Pass()
}

func (b *Base) DuringCall(ctx context.Context, rc *RequestContext) CheckResult {
	return Pass()
}

func (b *Base) PostCall(ctx context.Context, rc *RequestContext, resp *Response) CheckResult {
	return Pass()
}

func (b *Base) Apply(ctx context.Context, in Inputs, rc *RequestContext, dir Direction) (Inputs, CheckResult) {
	return in, Pass()
}
