package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/railguard-ai/railguard/internal/guardrail"
	"github.com/railguard-ai/railguard/internal/guardrail/pipeline"
)

// errBlocked signals a block decision to main without an error message;
// the decision itself was already printed as JSON.
var errBlocked = errors.New("request blocked")

var (
	checkPolicy string
	checkFile   string
)

// checkRequest is the JSON document accepted on stdin or via --file.
type checkRequest struct {
	Messages   []guardrail.Message `json:"messages"`
	Guardrails []string            `json:"guardrails,omitempty"`
	Response   *guardrail.Response `json:"response,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a named pipeline policy against a request",
	Long: `Check reads a JSON request from stdin (or --file), executes the
named pipeline policy against it, and prints the execution result as JSON.

Exits 0 when the terminal action is allow or modify_response, 2 on block.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkPolicy, "policy", "p", "", "Pipeline policy to execute (required)")
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "Read the request from a file instead of stdin")
	_ = checkCmd.MarkFlagRequired("policy")
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	policy, err := rt.Policy(checkPolicy)
	if err != nil {
		return err
	}

	req, err := readCheckRequest(cmd)
	if err != nil {
		return err
	}
	if policy.Mode == pipeline.ModePostCall && req.Response == nil {
		return fmt.Errorf("policy %s runs post_call and requires a response in the request document", checkPolicy)
	}

	rc := guardrail.NewRequestContext(req.Messages)
	rc.Metadata.Guardrails = req.Guardrails

	executor := pipeline.NewExecutor(rt.Registry).
		WithTracer(otel.Tracer("railguard/check")).
		WithLogger(logger)

	result := executor.ExecuteSteps(cmd.Context(), policy.Steps, policy.Mode, rc, req.Response)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if result.TerminalAction == pipeline.ActionBlock {
		return errBlocked
	}
	return nil
}

func readCheckRequest(cmd *cobra.Command) (*checkRequest, error) {
	var r io.Reader = cmd.InOrStdin()
	if checkFile != "" {
		f, err := os.Open(checkFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open request file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req checkRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request JSON: %w", err)
	}
	if len(req.Messages) == 0 && req.Response == nil {
		return nil, fmt.Errorf("request document has neither messages nor a response")
	}
	return &req, nil
}
