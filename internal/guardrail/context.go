package guardrail

import "github.com/railguard-ai/railguard/internal/types"

// Message is one role/content entry in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Metadata carries per-request guardrail selection and free-form extras.
type Metadata struct {
	// Guardrails is the ordered set of guardrail names explicitly requested
	// for this call. Empty means "no explicit selection".
	Guardrails []string `json:"guardrails,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// RequestContext is the mutable per-call state handed to guardrail checks.
// It is created per inbound call and destroyed at call completion. Pipeline
// steps that rewrite content operate on a clone, never the caller's original.
type RequestContext struct {
	CallID   types.ID  `json:"call_id"`
	Messages []Message `json:"messages"`
	Metadata Metadata  `json:"metadata"`
}

// NewRequestContext creates a context with a fresh call ID.
func NewRequestContext(messages []Message) *RequestContext {
	return &RequestContext{
		CallID:   types.NewID(),
		Messages: messages,
	}
}

// Clone returns a shallow copy of the context with its message slice and
// metadata copied, so mutations on the clone never reach the original.
func (rc *RequestContext) Clone() *RequestContext {
	if rc == nil {
		return nil
	}

	clone := &RequestContext{
		CallID:   rc.CallID,
		Messages: make([]Message, len(rc.Messages)),
		Metadata: Metadata{},
	}
	copy(clone.Messages, rc.Messages)

	if rc.Metadata.Guardrails != nil {
		clone.Metadata.Guardrails = make([]string, len(rc.Metadata.Guardrails))
		copy(clone.Metadata.Guardrails, rc.Metadata.Guardrails)
	}
	if rc.Metadata.Extra != nil {
		clone.Metadata.Extra = make(map[string]any, len(rc.Metadata.Extra))
		for k, v := range rc.Metadata.Extra {
			clone.Metadata.Extra[k] = v
		}
	}

	return clone
}

// Merge folds a modified context into the receiver. Messages are replaced
// wholesale when the modified context carries any; extra metadata keys merge
// last-write-wins. The call ID and guardrail selection are left untouched.
func (rc *RequestContext) Merge(mod *RequestContext) {
	if mod == nil {
		return
	}

	if mod.Messages != nil {
		rc.Messages = make([]Message, len(mod.Messages))
		copy(rc.Messages, mod.Messages)
	}
	if mod.Metadata.Extra != nil {
		if rc.Metadata.Extra == nil {
			rc.Metadata.Extra = make(map[string]any, len(mod.Metadata.Extra))
		}
		for k, v := range mod.Metadata.Extra {
			rc.Metadata.Extra[k] = v
		}
	}
}

// CombinedText joins all message content, newline separated. Used where a
// guardrail wants one blob of text rather than structured messages.
func (rc *RequestContext) CombinedText() string {
	var out string
	for i, m := range rc.Messages {
		if i > 0 {
			out += "\n"
		}
		out += m.Content
	}
	return out
}

// RequestedGuardrails returns the explicitly selected guardrail names, never
// nil.
func (rc *RequestContext) RequestedGuardrails() []string {
	if rc == nil || rc.Metadata.Guardrails == nil {
		return []string{}
	}
	return rc.Metadata.Guardrails
}

// Response is the upstream completion handed to post-call checks.
type Response struct {
	Choices []Message      `json:"choices"`
	Raw     map[string]any `json:"raw,omitempty"`
}

// CombinedText joins all choice content, newline separated.
func (r *Response) CombinedText() string {
	if r == nil {
		return ""
	}
	var out string
	for i, m := range r.Choices {
		if i > 0 {
			out += "\n"
		}
		out += m.Content
	}
	return out
}
