// Package config loads and validates Railguard policy configuration:
// guardrail instances and the named pipeline policies that sequence them.
package config

import (
	"github.com/railguard-ai/railguard/internal/guardrail/builtin"
)

// Config is the root configuration document.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Guardrails []builtin.Config `mapstructure:"guardrails" validate:"dive"`
	Policies   []PipelinePolicy `mapstructure:"policies" validate:"dive"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// PipelinePolicy binds a mode and an ordered step list under a unique name.
type PipelinePolicy struct {
	Name  string       `mapstructure:"name" validate:"required"`
	Mode  string       `mapstructure:"mode" validate:"required,oneof=pre_call post_call"`
	Steps []StepConfig `mapstructure:"steps" validate:"required,min=1,dive"`
}

// StepConfig is one pipeline step as written in YAML. Actions are validated
// against the four-action enum at load time; anything else is a hard
// configuration error, never a runtime failure.
type StepConfig struct {
	Guardrail             string `mapstructure:"guardrail" validate:"required"`
	OnPass                string `mapstructure:"on_pass" validate:"omitempty,oneof=allow block next modify_response"`
	OnFail                string `mapstructure:"on_fail" validate:"omitempty,oneof=allow block next modify_response"`
	PassData              bool   `mapstructure:"pass_data"`
	ModifyResponseMessage string `mapstructure:"modify_response_message"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
