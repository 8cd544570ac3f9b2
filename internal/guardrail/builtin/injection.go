package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/railguard-ai/railguard/internal/guardrail"
)

// PromptInjectionConfig configures the prompt-injection heuristic guardrail.
type PromptInjectionConfig struct {
	Name string `mapstructure:"name"`

	// Phrases extends the built-in injection marker list.
	Phrases []string `mapstructure:"phrases"`

	// ReplaceDefaults drops the built-in list and uses only Phrases.
	ReplaceDefaults bool `mapstructure:"replace_defaults"`

	Hooks     []string `mapstructure:"hooks"`
	DefaultOn bool     `mapstructure:"default_on"`
}

// Marker phrases commonly seen in prompt-injection attempts. Matching is
// case-insensitive substring containment, deliberately cheap.
var defaultInjectionPhrases = []string{
	"ignore previous instructions",
	"ignore all previous instructions",
	"disregard your instructions",
	"disregard the above",
	"you are now dan",
	"pretend you are",
	"system prompt",
	"reveal your instructions",
	"repeat your instructions",
	"print your prompt",
	"jailbreak",
	"do anything now",
}

// PromptInjectionHeuristic blocks content that resembles a prompt-injection
// attempt. It is the cheap first rung of an escalation ladder; pair it with
// a vendor or judge guardrail for inconclusive cases.
type PromptInjectionHeuristic struct {
	guardrail.Base
	phrases []string
}

// NewPromptInjectionHeuristic creates the heuristic with the given config.
func NewPromptInjectionHeuristic(config PromptInjectionConfig) *PromptInjectionHeuristic {
	name := config.Name
	if name == "" {
		name = "prompt-injection"
	}

	var phrases []string
	if !config.ReplaceDefaults {
		phrases = append(phrases, defaultInjectionPhrases...)
	}
	for _, p := range config.Phrases {
		phrases = append(phrases, strings.ToLower(p))
	}

	return &PromptInjectionHeuristic{
		Base: guardrail.Base{Desc: guardrail.Descriptor{
			Name:           name,
			SupportedHooks: allHooks(),
			Hooks:          parseHooks(config.Hooks),
			DefaultOn:      config.DefaultOn,
		}},
		phrases: phrases,
	}
}

// PreCall checks request messages for injection markers.
func (p *PromptInjectionHeuristic) PreCall(ctx context.Context, rc *guardrail.RequestContext) guardrail.CheckResult {
	return checkMessages(ctx, p, rc, guardrail.DirectionRequest)
}

// Apply blocks any text containing a known injection phrase.
func (p *PromptInjectionHeuristic) Apply(ctx context.Context, in guardrail.Inputs, rc *guardrail.RequestContext, dir guardrail.Direction) (guardrail.Inputs, guardrail.CheckResult) {
	for _, text := range in.Texts {
		lowered := strings.ToLower(text)
		for _, phrase := range p.phrases {
			if strings.Contains(lowered, phrase) {
				return in, guardrail.Blocked(
					fmt.Sprintf("possible prompt injection detected: %q", phrase),
					guardrail.ViolationDetail{Rule: "prompt_injection", Matched: phrase},
				)
			}
		}
	}
	return in, guardrail.Pass()
}
