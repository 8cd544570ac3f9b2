package builtin

import (
	"context"

	"github.com/railguard-ai/railguard/internal/guardrail"
)

func allHooks() []guardrail.EventHook {
	return []guardrail.EventHook{
		guardrail.EventHookPreCall,
		guardrail.EventHookDuringCall,
		guardrail.EventHookPostCall,
		guardrail.EventHookRealtimeInputTranscription,
		guardrail.EventHookLoggingOnly,
	}
}

func parseHooks(hooks []string) []guardrail.EventHook {
	if len(hooks) == 0 {
		return nil
	}
	out := make([]guardrail.EventHook, 0, len(hooks))
	for _, h := range hooks {
		out = append(out, guardrail.EventHook(h))
	}
	return out
}

// checkMessages funnels a request's message contents through the guardrail's
// Apply method and lifts any rewrite back into a modified request context.
func checkMessages(ctx context.Context, g guardrail.Guardrail, rc *guardrail.RequestContext, dir guardrail.Direction) guardrail.CheckResult {
	texts := make([]string, len(rc.Messages))
	for i, m := range rc.Messages {
		texts[i] = m.Content
	}

	out, result := g.Apply(ctx, guardrail.Inputs{Texts: texts}, rc, dir)
	if !result.IsPass() {
		return result
	}

	changed := false
	for i := range texts {
		if out.Texts[i] != texts[i] {
			changed = true
			break
		}
	}
	if !changed {
		return result
	}

	mod := rc.Clone()
	for i := range mod.Messages {
		mod.Messages[i].Content = out.Texts[i]
	}
	modified := guardrail.PassModified(mod)
	modified.Details = result.Details
	return modified
}

// checkResponse funnels response choice contents through Apply. Response
// rewrites are not threaded back; only the verdict matters post-call.
func checkResponse(ctx context.Context, g guardrail.Guardrail, rc *guardrail.RequestContext, resp *guardrail.Response) guardrail.CheckResult {
	if resp == nil {
		return guardrail.Pass()
	}

	texts := make([]string, len(resp.Choices))
	for i, m := range resp.Choices {
		texts[i] = m.Content
	}

	_, result := g.Apply(ctx, guardrail.Inputs{Texts: texts}, rc, guardrail.DirectionResponse)
	return result
}
