package builtin

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/tmc/langchaingo/llms"

	"github.com/railguard-ai/railguard/internal/guardrail"
)

// Config represents one guardrail configuration entry from YAML.
type Config struct {
	Type   string         `yaml:"type" json:"type" mapstructure:"type"`
	Name   string         `yaml:"name,omitempty" json:"name,omitempty" mapstructure:"name"`
	Config map[string]any `yaml:"config" json:"config" mapstructure:"config"`
}

// Options carries dependencies some guardrail types need at construction.
type Options struct {
	// JudgeModel backs guardrails of type "judge". Required when any judge
	// guardrail is configured.
	JudgeModel llms.Model
}

// ParseConfigs creates Guardrail instances from configurations.
func ParseConfigs(configs []Config, opts Options) ([]guardrail.Guardrail, error) {
	guardrails := make([]guardrail.Guardrail, 0, len(configs))

	for i, config := range configs {
		g, err := ParseConfig(config, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse guardrail config at index %d: %w", i, err)
		}
		guardrails = append(guardrails, g)
	}

	return guardrails, nil
}

// ParseConfig creates a single Guardrail from configuration.
func ParseConfig(config Config, opts Options) (guardrail.Guardrail, error) {
	switch config.Type {
	case "content":
		var cfg ContentFilterConfig
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, err
		}
		return NewContentFilter(cfg)

	case "pii":
		var cfg PIIMaskerConfig
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, err
		}
		return NewPIIMasker(cfg)

	case "prompt_injection":
		var cfg PromptInjectionConfig
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, err
		}
		return NewPromptInjectionHeuristic(cfg), nil

	case "remote":
		var cfg RemoteConfig
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, err
		}
		return NewRemote(cfg)

	case "judge":
		var cfg JudgeConfig
		if err := decodeConfig(config, &cfg); err != nil {
			return nil, err
		}
		if opts.JudgeModel == nil {
			return nil, fmt.Errorf("guardrail type 'judge' requires a configured model")
		}
		return NewJudge(cfg, opts.JudgeModel)

	default:
		return nil, fmt.Errorf("unknown guardrail type: %s", config.Type)
	}
}

// decodeConfig decodes the free-form config map into a typed config struct,
// carrying the top-level name down when the map does not set one.
func decodeConfig(config Config, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		TagName:    "mapstructure",
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	raw := config.Config
	if raw == nil {
		raw = map[string]any{}
	}
	if config.Name != "" {
		if _, set := raw["name"]; !set {
			raw = copyWithName(raw, config.Name)
		}
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode %s config: %w", config.Type, err)
	}
	return nil
}

func copyWithName(raw map[string]any, name string) map[string]any {
	out := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	out["name"] = name
	return out
}
