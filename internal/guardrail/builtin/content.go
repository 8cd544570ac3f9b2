// Package builtin provides guardrail implementations shipped with Railguard:
// regex content filtering, PII masking, a prompt-injection heuristic, a
// generic remote vendor API client, and an LLM judge.
package builtin

import (
	"context"
	"fmt"
	"regexp"

	"github.com/railguard-ai/railguard/internal/guardrail"
)

// ContentAction is what a matched pattern does to the content.
type ContentAction string

const (
	ContentActionBlock ContentAction = "block"
	ContentActionMask  ContentAction = "mask"
)

// ContentPattern defines a pattern to match and the action to take.
type ContentPattern struct {
	Pattern string        `mapstructure:"pattern"`
	Action  ContentAction `mapstructure:"action"`
	Replace string        `mapstructure:"replace"`
}

// ContentFilterConfig configures the content filter guardrail.
type ContentFilterConfig struct {
	Name          string           `mapstructure:"name"`
	Patterns      []ContentPattern `mapstructure:"patterns"`
	DefaultAction ContentAction    `mapstructure:"default_action"`
	Hooks         []string         `mapstructure:"hooks"`
	DefaultOn     bool             `mapstructure:"default_on"`
}

// ContentFilter implements content-based guardrails using regex patterns.
type ContentFilter struct {
	guardrail.Base
	patterns []compiledPattern
}

type compiledPattern struct {
	regex   *regexp.Regexp
	action  ContentAction
	replace string
}

// NewContentFilter creates a new content filter guardrail.
func NewContentFilter(config ContentFilterConfig) (*ContentFilter, error) {
	name := config.Name
	if name == "" {
		name = "content-filter"
	}

	cf := &ContentFilter{
		Base: guardrail.Base{Desc: guardrail.Descriptor{
			Name:           name,
			SupportedHooks: allHooks(),
			Hooks:          parseHooks(config.Hooks),
			DefaultOn:      config.DefaultOn,
		}},
		patterns: make([]compiledPattern, 0, len(config.Patterns)),
	}

	for i, pattern := range config.Patterns {
		regex, err := regexp.Compile(pattern.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern at index %d: %w", i, err)
		}

		action := pattern.Action
		if action == "" {
			action = config.DefaultAction
		}
		if action == "" {
			action = ContentActionBlock
		}

		cf.patterns = append(cf.patterns, compiledPattern{
			regex:   regex,
			action:  action,
			replace: pattern.Replace,
		})
	}

	return cf, nil
}

// PreCall checks request messages against the configured patterns.
func (c *ContentFilter) PreCall(ctx context.Context, rc *guardrail.RequestContext) guardrail.CheckResult {
	return checkMessages(ctx, c, rc, guardrail.DirectionRequest)
}

// PostCall checks the upstream response against the configured patterns.
func (c *ContentFilter) PostCall(ctx context.Context, rc *guardrail.RequestContext, resp *guardrail.Response) guardrail.CheckResult {
	return checkResponse(ctx, c, rc, resp)
}

// Apply checks each text and applies masking in place.
func (c *ContentFilter) Apply(ctx context.Context, in guardrail.Inputs, rc *guardrail.RequestContext, dir guardrail.Direction) (guardrail.Inputs, guardrail.CheckResult) {
	var (
		details  []guardrail.ViolationDetail
		rewrote  bool
		outTexts = make([]string, len(in.Texts))
	)
	copy(outTexts, in.Texts)

	for i, text := range outTexts {
		for _, cp := range c.patterns {
			if !cp.regex.MatchString(text) {
				continue
			}

			if cp.action == ContentActionBlock {
				return in, guardrail.Blocked(
					fmt.Sprintf("content matched blocked pattern: %s", cp.regex.String()),
					guardrail.ViolationDetail{Rule: cp.regex.String(), Matched: cp.regex.FindString(text)},
				)
			}

			replacement := cp.replace
			if replacement == "" {
				replacement = "[REDACTED]"
			}
			details = append(details, guardrail.ViolationDetail{Rule: cp.regex.String()})
			text = cp.regex.ReplaceAllString(text, replacement)
			rewrote = true
		}
		outTexts[i] = text
	}

	if !rewrote {
		return in, guardrail.Pass()
	}

	out := in
	out.Texts = outTexts
	result := guardrail.Pass()
	result.Details = details
	return out, result
}
