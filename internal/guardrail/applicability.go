package guardrail

// ShouldRun decides whether a guardrail instance participates in the given
// event for the given request. It is a pure predicate over the descriptor,
// the request's guardrail selection, and the event type — no side effects,
// cheap enough for a realtime session's hot loop.
//
// Decision order:
//  1. A guardrail bound to specific hooks only runs when the caller opted
//     into it by name, unless the event is logging_only (telemetry always
//     fires) or the guardrail is default-on.
//  2. A guardrail bound to specific hooks never runs for a different hook,
//     even when explicitly named.
//  3. Otherwise it runs.
func ShouldRun(desc *Descriptor, rc *RequestContext, event EventHook) bool {
	requested := rc.RequestedGuardrails()

	if len(desc.Hooks) > 0 && !desc.DefaultOn && event != EventHookLoggingOnly {
		if !containsName(requested, desc.Name) {
			return false
		}
	}

	if len(desc.Hooks) > 0 && !desc.BoundTo(event) {
		return false
	}

	return true
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
