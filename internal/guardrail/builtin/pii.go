package builtin

import (
	"context"
	"fmt"
	"regexp"

	"github.com/railguard-ai/railguard/internal/guardrail"
)

// PIIPattern represents a predefined PII detection pattern type.
type PIIPattern string

const (
	PIIPatternSSN        PIIPattern = "ssn"
	PIIPatternEmail      PIIPattern = "email"
	PIIPatternPhone      PIIPattern = "phone"
	PIIPatternCreditCard PIIPattern = "credit_card"
	PIIPatternIPAddress  PIIPattern = "ip_address"
)

// PIIMaskerConfig configures PII detection behavior.
type PIIMaskerConfig struct {
	Name string `mapstructure:"name"`

	// Block turns detection into a hard block instead of masking.
	Block bool `mapstructure:"block"`

	// EnabledPatterns specifies which built-in patterns to detect. Empty
	// enables all of them.
	EnabledPatterns []string `mapstructure:"enabled_patterns"`

	// CustomPatterns allows custom regex patterns keyed by rule name.
	CustomPatterns map[string]string `mapstructure:"custom_patterns"`

	// Replacement is the mask text. Defaults to "[REDACTED]".
	Replacement string `mapstructure:"replacement"`

	Hooks     []string `mapstructure:"hooks"`
	DefaultOn bool     `mapstructure:"default_on"`
}

// PIIMasker detects personally identifiable information and masks or blocks it.
type PIIMasker struct {
	guardrail.Base
	block       bool
	replacement string
	patterns    map[string]*regexp.Regexp
	order       []string
}

// Predefined PII regex patterns.
var piiPatterns = map[PIIPattern]string{
	PIIPatternSSN:        `\b\d{3}-\d{2}-\d{4}\b`,
	PIIPatternEmail:      `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`,
	PIIPatternPhone:      `(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`,
	PIIPatternCreditCard: `\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`,
	PIIPatternIPAddress:  `\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`,
}

var piiPatternOrder = []PIIPattern{
	PIIPatternSSN,
	PIIPatternEmail,
	PIIPatternPhone,
	PIIPatternCreditCard,
	PIIPatternIPAddress,
}

// NewPIIMasker creates a new PII masker with the given configuration.
// Returns an error if custom patterns are invalid regex.
func NewPIIMasker(config PIIMaskerConfig) (*PIIMasker, error) {
	name := config.Name
	if name == "" {
		name = "pii-masker"
	}
	replacement := config.Replacement
	if replacement == "" {
		replacement = "[REDACTED]"
	}

	m := &PIIMasker{
		Base: guardrail.Base{Desc: guardrail.Descriptor{
			Name:           name,
			SupportedHooks: allHooks(),
			Hooks:          parseHooks(config.Hooks),
			DefaultOn:      config.DefaultOn,
		}},
		block:       config.Block,
		replacement: replacement,
		patterns:    make(map[string]*regexp.Regexp),
	}

	if len(config.EnabledPatterns) == 0 {
		for _, p := range piiPatternOrder {
			m.patterns[string(p)] = regexp.MustCompile(piiPatterns[p])
			m.order = append(m.order, string(p))
		}
	} else {
		for _, patternName := range config.EnabledPatterns {
			regex, ok := piiPatterns[PIIPattern(patternName)]
			if !ok {
				return nil, fmt.Errorf("unknown PII pattern '%s'", patternName)
			}
			m.patterns[patternName] = regexp.MustCompile(regex)
			m.order = append(m.order, patternName)
		}
	}

	for ruleName, pattern := range config.CustomPatterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid custom pattern '%s': %w", ruleName, err)
		}
		m.patterns[ruleName] = compiled
		m.order = append(m.order, ruleName)
	}

	return m, nil
}

// PreCall masks or blocks PII in request messages.
func (m *PIIMasker) PreCall(ctx context.Context, rc *guardrail.RequestContext) guardrail.CheckResult {
	return checkMessages(ctx, m, rc, guardrail.DirectionRequest)
}

// PostCall checks the upstream response for PII.
func (m *PIIMasker) PostCall(ctx context.Context, rc *guardrail.RequestContext, resp *guardrail.Response) guardrail.CheckResult {
	return checkResponse(ctx, m, rc, resp)
}

// Apply scans each text for PII, masking matches or blocking outright.
func (m *PIIMasker) Apply(ctx context.Context, in guardrail.Inputs, rc *guardrail.RequestContext, dir guardrail.Direction) (guardrail.Inputs, guardrail.CheckResult) {
	var (
		details  []guardrail.ViolationDetail
		rewrote  bool
		outTexts = make([]string, len(in.Texts))
	)
	copy(outTexts, in.Texts)

	for i, text := range outTexts {
		for _, ruleName := range m.order {
			regex := m.patterns[ruleName]
			match := regex.FindString(text)
			if match == "" {
				continue
			}

			if m.block {
				return in, guardrail.Blocked(
					fmt.Sprintf("detected %s in content", ruleName),
					guardrail.ViolationDetail{Rule: ruleName, Matched: match},
				)
			}

			details = append(details, guardrail.ViolationDetail{Rule: ruleName})
			text = regex.ReplaceAllString(text, m.replacement)
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
