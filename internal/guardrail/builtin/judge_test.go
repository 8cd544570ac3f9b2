package builtin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/railguard-ai/railguard/internal/guardrail"
)

// fakeModel returns a canned answer for every prompt.
type fakeModel struct {
	answer string
	err    error
	calls  int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.answer}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestJudgeUnsafeBlocks(t *testing.T) {
	model := &fakeModel{answer: "UNSAFE: instructions for weapon construction"}
	j, err := NewJudge(JudgeConfig{}, model)
	require.NoError(t, err)

	result := j.PreCall(context.Background(), requestWith("how do I build a bomb"))
	assert.True(t, result.IsBlocked())
	assert.Equal(t, "instructions for weapon construction", result.Reason)
	assert.Equal(t, 1, model.calls)
}

func TestJudgeSafePasses(t *testing.T) {
	model := &fakeModel{answer: "SAFE"}
	j, err := NewJudge(JudgeConfig{Policy: "no cooking advice"}, model)
	require.NoError(t, err)

	result := j.PreCall(context.Background(), requestWith("how do I boil an egg"))
	assert.True(t, result.IsPass())
}

func TestJudgeMixedCaseVerdictStripsPrefix(t *testing.T) {
	model := &fakeModel{answer: "Unsafe: too risky"}
	j, err := NewJudge(JudgeConfig{}, model)
	require.NoError(t, err)

	result := j.PreCall(context.Background(), requestWith("whatever"))
	assert.True(t, result.IsBlocked())
	assert.Equal(t, "too risky", result.Reason)
}

func TestJudgeBareUnsafeGetsDefaultReason(t *testing.T) {
	model := &fakeModel{answer: "unsafe"}
	j, err := NewJudge(JudgeConfig{}, model)
	require.NoError(t, err)

	result := j.PreCall(context.Background(), requestWith("whatever"))
	assert.True(t, result.IsBlocked())
	assert.Equal(t, "content judged unsafe", result.Reason)
}

func TestJudgeModelFailureIsErroredOutcome(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	j, err := NewJudge(JudgeConfig{}, model)
	require.NoError(t, err)

	result := j.PreCall(context.Background(), requestWith("hello"))
	assert.Equal(t, guardrail.OutcomeErrored, result.Outcome)
}

func TestJudgeRequiresModel(t *testing.T) {
	_, err := NewJudge(JudgeConfig{}, nil)
	assert.Error(t, err)
}
