package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/railguard-ai/railguard/internal/types"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads, interpolates, decodes and validates a configuration file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
			fmt.Sprintf("config file not found: %s", path), err)
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED,
			fmt.Sprintf("failed to parse config file: %s", path), err)
	}

	settings := interpolateValue(v.AllSettings())

	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to build config decoder", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to decode config", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct validation plus the cross-field rules the tag
// language cannot express: unique policy names and step guardrail
// references that resolve to a configured guardrail.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "config validation failed", err)
	}

	known := make(map[string]bool, len(cfg.Guardrails))
	for _, g := range cfg.Guardrails {
		name := g.Name
		if name == "" {
			name = g.Type
		}
		known[name] = true
	}

	seen := make(map[string]bool, len(cfg.Policies))
	for _, p := range cfg.Policies {
		if seen[p.Name] {
			return types.NewError(types.PIPELINE_CONFIG_INVALID,
				fmt.Sprintf("duplicate policy name: %s", p.Name))
		}
		seen[p.Name] = true

		for _, step := range p.Steps {
			if !known[step.Guardrail] {
				return types.NewError(types.PIPELINE_CONFIG_INVALID,
					fmt.Sprintf("policy %s references unknown guardrail: %s", p.Name, step.Guardrail))
			}
		}
	}
	return nil
}

// interpolateValue walks a decoded settings tree and expands ${VAR} and
// ${VAR:-default} references in every string it finds.
func interpolateValue(value any) any {
	switch v := value.(type) {
	case string:
		return interpolateString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = interpolateValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = interpolateValue(elem)
		}
		return out
	default:
		return value
	}
}

func interpolateString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(groups[1]); ok {
			return val
		}
		return groups[2]
	})
}
