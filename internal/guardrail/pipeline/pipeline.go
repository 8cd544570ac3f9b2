// Package pipeline executes ordered guardrail step lists with conditional
// escalation semantics: each step resolves a pass/fail action that either
// terminates the run (allow, block, modify_response) or advances to the next
// step, optionally threading rewritten content forward.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/railguard-ai/railguard/internal/guardrail"
	"github.com/railguard-ai/railguard/internal/observability"
)

// Mode selects which guardrail capability method a pipeline run invokes.
type Mode string

const (
	ModePreCall  Mode = "pre_call"
	ModePostCall Mode = "post_call"
)

// Hook returns the event hook corresponding to the mode.
func (m Mode) Hook() guardrail.EventHook {
	if m == ModePostCall {
		return guardrail.EventHookPostCall
	}
	return guardrail.EventHookPreCall
}

// StepAction is the action resolved after a step's outcome.
type StepAction string

const (
	ActionAllow          StepAction = "allow"
	ActionBlock          StepAction = "block"
	ActionNext           StepAction = "next"
	ActionModifyResponse StepAction = "modify_response"
)

// ParseStepAction validates an action string at config-load time. Anything
// outside the four-action set is a hard configuration error.
func ParseStepAction(s string) (StepAction, error) {
	switch StepAction(s) {
	case ActionAllow, ActionBlock, ActionNext, ActionModifyResponse:
		return StepAction(s), nil
	}
	return "", fmt.Errorf("invalid step action %q: must be one of allow, block, next, modify_response", s)
}

// Step is one entry in a pipeline's ordered step list.
type Step struct {
	// GuardrailName must resolve to a registered guardrail at execution time.
	GuardrailName string

	// OnPass is the action taken when the guardrail passes. Defaults to allow.
	OnPass StepAction

	// OnFail is the action taken when the guardrail blocks or errors.
	// Defaults to block.
	OnFail StepAction

	// PassData merges the step's rewritten content into the working context
	// before the next step runs.
	PassData bool

	// ModifyResponseMessage overrides the message surfaced by the
	// modify_response terminal action.
	ModifyResponseMessage string
}

func (s Step) onPass() StepAction {
	if s.OnPass == "" {
		return ActionAllow
	}
	return s.OnPass
}

func (s Step) onFail() StepAction {
	if s.OnFail == "" {
		return ActionBlock
	}
	return s.OnFail
}

// StepOutcome classifies a single step's result.
type StepOutcome string

const (
	StepOutcomePass  StepOutcome = "pass"
	StepOutcomeFail  StepOutcome = "fail"
	StepOutcomeError StepOutcome = "error"
)

// StepResult records one step invocation. Appended in order, never mutated.
type StepResult struct {
	GuardrailName string                    `json:"guardrail_name"`
	Outcome       StepOutcome               `json:"outcome"`
	ActionTaken   StepAction                `json:"action_taken"`
	ModifiedData  *guardrail.RequestContext `json:"modified_data,omitempty"`
	ErrorDetail   string                    `json:"error_detail,omitempty"`
	Duration      time.Duration             `json:"duration"`
}

// ExecutionResult is the single terminal decision of one pipeline run.
type ExecutionResult struct {
	TerminalAction        StepAction                `json:"terminal_action"`
	StepResults           []StepResult              `json:"step_results"`
	ModifiedData          *guardrail.RequestContext `json:"modified_data,omitempty"`
	ErrorMessage          string                    `json:"error_message,omitempty"`
	ModifyResponseMessage string                    `json:"modify_response_message,omitempty"`
}

// Executor runs pipelines against an injected guardrail registry. One
// executor serves many concurrent runs; each run works on its own clone of
// the request context and shares nothing but the read-only registry.
type Executor struct {
	registry *guardrail.Registry
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewExecutor creates an executor bound to the given registry.
func NewExecutor(registry *guardrail.Registry) *Executor {
	return &Executor{
		registry: registry,
		logger:   slog.Default(),
	}
}

// WithTracer sets the OpenTelemetry tracer for the executor.
func (e *Executor) WithTracer(tracer trace.Tracer) *Executor {
	e.tracer = tracer
	return e
}

// WithLogger sets the logger for the executor.
func (e *Executor) WithLogger(logger *slog.Logger) *Executor {
	e.logger = logger
	return e
}

// ExecuteSteps runs the step list sequentially and resolves a terminal
// action. It never returns an error on behalf of a guardrail: blocks,
// missing guardrails, and unexpected check failures all become part of the
// result. resp is the upstream response for post_call mode, nil otherwise.
func (e *Executor) ExecuteSteps(ctx context.Context, steps []Step, mode Mode, rc *guardrail.RequestContext, resp *guardrail.Response) ExecutionResult {
	working := rc.Clone()
	if working == nil {
		working = guardrail.NewRequestContext(nil)
	}

	result := ExecutionResult{
		TerminalAction: ActionAllow,
		StepResults:    make([]StepResult, 0, len(steps)),
	}
	mutated := false

	for _, step := range steps {
		stepResult, check := e.runStep(ctx, step, mode, working, resp)
		result.StepResults = append(result.StepResults, stepResult)

		if step.PassData && check.Modified != nil {
			working.Merge(check.Modified)
			mutated = true
		}

		switch stepResult.ActionTaken {
		case ActionAllow:
			if mutated {
				result.ModifiedData = working
			}
			return result

		case ActionBlock:
			result.TerminalAction = ActionBlock
			result.ErrorMessage = stepResult.ErrorDetail
			return result

		case ActionModifyResponse:
			result.TerminalAction = ActionModifyResponse
			if step.ModifyResponseMessage != "" {
				result.ModifyResponseMessage = step.ModifyResponseMessage
			} else {
				result.ModifyResponseMessage = stepResult.ErrorDetail
			}
			return result

		case ActionNext:
			continue
		}
	}

	// Every step resolved to next: default allow with the final working data.
	result.ModifiedData = working
	return result
}

// runStep resolves and invokes a single step's guardrail, classifying the
// outcome and resolving the step action.
func (e *Executor) runStep(ctx context.Context, step Step, mode Mode, working *guardrail.RequestContext, resp *guardrail.Response) (StepResult, guardrail.CheckResult) {
	start := time.Now()

	g, ok := e.registry.Lookup(step.GuardrailName)
	if !ok {
		// Fail safe: a missing guardrail is a failure, not a silent pass.
		detail := guardrail.NewNotFoundError(step.GuardrailName).Message
		observability.WithTrace(ctx, e.logger).WarnContext(ctx, "pipeline step guardrail not registered",
			"guardrail", step.GuardrailName,
		)
		return StepResult{
			GuardrailName: step.GuardrailName,
			Outcome:       StepOutcomeError,
			ActionTaken:   step.onFail(),
			ErrorDetail:   detail,
			Duration:      time.Since(start),
		}, guardrail.CheckResult{Outcome: guardrail.OutcomeErrored}
	}

	// A step's membership in the list is itself sufficient authorization to
	// run: inject its name as the singleton selection so the applicability
	// check admits it regardless of the original caller's selection.
	working.Metadata.Guardrails = []string{step.GuardrailName}

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "guardrail.pipeline_step",
			trace.WithAttributes(
				attribute.String("guardrail.name", g.Name()),
				attribute.String("pipeline.mode", string(mode)),
			),
		)
	}

	check := e.invoke(ctx, g, mode, working, resp)

	stepResult := StepResult{
		GuardrailName: step.GuardrailName,
		Duration:      time.Since(start),
		ModifiedData:  check.Modified,
	}

	// Correlate step logs with the step span when one is recording.
	logger := observability.WithTrace(ctx, e.logger)

	switch check.Outcome {
	case guardrail.OutcomePass:
		stepResult.Outcome = StepOutcomePass
		stepResult.ActionTaken = step.onPass()

	case guardrail.OutcomeBlocked:
		stepResult.Outcome = StepOutcomeFail
		stepResult.ActionTaken = step.onFail()
		stepResult.ErrorDetail = check.Detail()
		logger.InfoContext(ctx, "guardrail blocked content",
			"guardrail", g.Name(),
			"reason", check.Reason,
			"action", string(stepResult.ActionTaken),
		)

	case guardrail.OutcomeErrored:
		// An unevaluable check must not silently default to allow; it
		// resolves through on_fail like a policy failure.
		stepResult.Outcome = StepOutcomeError
		stepResult.ActionTaken = step.onFail()
		stepResult.ErrorDetail = check.Detail()
		logger.WarnContext(ctx, "guardrail check errored",
			"guardrail", g.Name(),
			"error", stepResult.ErrorDetail,
		)
	}

	if span != nil {
		span.SetAttributes(
			attribute.String("guardrail.outcome", string(stepResult.Outcome)),
			attribute.String("guardrail.action", string(stepResult.ActionTaken)),
		)
		span.End()
	}

	return stepResult, check
}

// invoke dispatches the hook method selected by mode, honoring the
// applicability test. A guardrail bound exclusively to other hooks is a
// no-op pass for this run.
func (e *Executor) invoke(ctx context.Context, g guardrail.Guardrail, mode Mode, working *guardrail.RequestContext, resp *guardrail.Response) guardrail.CheckResult {
	if !guardrail.ShouldRun(g.Descriptor(), working, mode.Hook()) {
		return guardrail.Pass()
	}

	if mode == ModePostCall {
		return g.PostCall(ctx, working, resp)
	}
	return g.PreCall(ctx, working)
}
