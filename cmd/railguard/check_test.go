package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
guardrails:
  - type: content
    name: profanity
    config:
      patterns:
        - pattern: "badword"

policies:
  - name: strict-input
    mode: pre_call
    steps:
      - guardrail: profanity
`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "railguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func TestCheckAllowsCleanRequest(t *testing.T) {
	cfgPath := writeTestConfig(t)
	stdin := `{"messages":[{"role":"user","content":"hello there"}]}`

	out, err := runCLI(t, stdin, "--config", cfgPath, "check", "--policy", "strict-input")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "allow", result["terminal_action"])
}

func TestCheckBlocksFlaggedRequest(t *testing.T) {
	cfgPath := writeTestConfig(t)
	stdin := `{"messages":[{"role":"user","content":"this has a badword in it"}]}`

	out, err := runCLI(t, stdin, "--config", cfgPath, "check", "--policy", "strict-input")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBlocked))

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "block", result["terminal_action"])
}

func TestCheckUnknownPolicy(t *testing.T) {
	cfgPath := writeTestConfig(t)
	stdin := `{"messages":[{"role":"user","content":"hello"}]}`

	_, err := runCLI(t, stdin, "--config", cfgPath, "check", "--policy", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown policy")
}

func TestPoliciesValidate(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "", "--config", cfgPath, "policies", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestPoliciesList(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "", "--config", cfgPath, "policies", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "strict-input (pre_call)")
	assert.Contains(t, out, "profanity")
}
