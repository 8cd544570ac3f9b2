package config

import (
	"fmt"

	"github.com/railguard-ai/railguard/internal/guardrail"
	"github.com/railguard-ai/railguard/internal/guardrail/builtin"
	"github.com/railguard-ai/railguard/internal/guardrail/pipeline"
	"github.com/railguard-ai/railguard/internal/types"
)

// Policy is a compiled pipeline policy ready for execution.
type Policy struct {
	Name  string
	Mode  pipeline.Mode
	Steps []pipeline.Step
}

// Runtime is the compiled form of a validated Config: the guardrail
// registry plus the named policies that execute against it.
type Runtime struct {
	Registry *guardrail.Registry
	Policies map[string]Policy
}

// Build compiles a validated configuration into a Runtime. Action strings
// and guardrail references were already checked by Validate; Build re-parses
// actions so a Runtime can never hold an out-of-enum action.
func Build(cfg *Config, opts builtin.Options) (*Runtime, error) {
	guardrails, err := builtin.ParseConfigs(cfg.Guardrails, opts)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "failed to build guardrails", err)
	}

	policies := make(map[string]Policy, len(cfg.Policies))
	for _, p := range cfg.Policies {
		steps := make([]pipeline.Step, 0, len(p.Steps))
		for _, sc := range p.Steps {
			step := pipeline.Step{
				GuardrailName:         sc.Guardrail,
				PassData:              sc.PassData,
				ModifyResponseMessage: sc.ModifyResponseMessage,
			}
			if sc.OnPass != "" {
				action, err := pipeline.ParseStepAction(sc.OnPass)
				if err != nil {
					return nil, types.WrapError(types.PIPELINE_CONFIG_INVALID,
						fmt.Sprintf("policy %s: invalid on_pass", p.Name), err)
				}
				step.OnPass = action
			}
			if sc.OnFail != "" {
				action, err := pipeline.ParseStepAction(sc.OnFail)
				if err != nil {
					return nil, types.WrapError(types.PIPELINE_CONFIG_INVALID,
						fmt.Sprintf("policy %s: invalid on_fail", p.Name), err)
				}
				step.OnFail = action
			}
			steps = append(steps, step)
		}

		policies[p.Name] = Policy{
			Name:  p.Name,
			Mode:  pipeline.Mode(p.Mode),
			Steps: steps,
		}
	}

	return &Runtime{
		Registry: guardrail.NewRegistry(guardrails...),
		Policies: policies,
	}, nil
}

// Policy returns the named policy or a PIPELINE_CONFIG_INVALID error.
func (r *Runtime) Policy(name string) (Policy, error) {
	p, ok := r.Policies[name]
	if !ok {
		return Policy{}, types.NewError(types.PIPELINE_CONFIG_INVALID,
			fmt.Sprintf("unknown policy: %s", name))
	}
	return p, nil
}
