package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/railguard-ai/railguard/internal/guardrail"
	"github.com/railguard-ai/railguard/internal/types"
)

// RemoteConfig configures a vendor moderation API guardrail.
type RemoteConfig struct {
	Name string `mapstructure:"name"`

	// Endpoint receives a POST with the content bundle and returns a verdict.
	Endpoint string `mapstructure:"endpoint"`

	// APIKey is sent as a bearer token when set.
	APIKey string `mapstructure:"api_key"`

	Timeout    time.Duration `mapstructure:"timeout"`
	NumRetries int           `mapstructure:"num_retries"`

	Hooks     []string `mapstructure:"hooks"`
	DefaultOn bool     `mapstructure:"default_on"`
}

// remoteRequest is the wire payload sent to the vendor endpoint.
type remoteRequest struct {
	Texts     []string `json:"texts"`
	Images    []string `json:"images,omitempty"`
	Direction string   `json:"direction"`
	CallID    string   `json:"call_id,omitempty"`
}

// remoteVerdict is the vendor's JSON response.
type remoteVerdict struct {
	Flagged    bool     `json:"flagged"`
	Reason     string   `json:"reason,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Remote is a generic vendor-API guardrail: extract text, POST it to the
// vendor, interpret the JSON verdict. Every hosted moderation vendor fits
// this shape at the capability boundary.
type Remote struct {
	guardrail.Base
	client   *resty.Client
	endpoint string
}

// NewRemote creates a vendor API guardrail.
func NewRemote(config RemoteConfig) (*Remote, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("remote guardrail requires an endpoint")
	}
	name := config.Name
	if name == "" {
		name = "remote"
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(config.NumRetries).
		SetHeader("Content-Type", "application/json")
	if config.APIKey != "" {
		client.SetAuthToken(config.APIKey)
	}

	return &Remote{
		Base: guardrail.Base{Desc: guardrail.Descriptor{
			Name:           name,
			SupportedHooks: allHooks(),
			Hooks:          parseHooks(config.Hooks),
			DefaultOn:      config.DefaultOn,
			NumRetries:     config.NumRetries,
		}},
		client:   client,
		endpoint: config.Endpoint,
	}, nil
}

// PreCall sends request messages to the vendor for a verdict.
func (r *Remote) PreCall(ctx context.Context, rc *guardrail.RequestContext) guardrail.CheckResult {
	return checkMessages(ctx, r, rc, guardrail.DirectionRequest)
}

// PostCall sends the upstream response to the vendor for a verdict.
func (r *Remote) PostCall(ctx context.Context, rc *guardrail.RequestContext, resp *guardrail.Response) guardrail.CheckResult {
	return checkResponse(ctx, r, rc, resp)
}

// Apply POSTs the content bundle and maps the verdict to an outcome. A
// transport or non-2xx failure is an errored outcome, never a silent pass.
func (r *Remote) Apply(ctx context.Context, in guardrail.Inputs, rc *guardrail.RequestContext, dir guardrail.Direction) (guardrail.Inputs, guardrail.CheckResult) {
	payload := remoteRequest{
		Texts:     in.Texts,
		Images:    in.Images,
		Direction: string(dir),
	}
	if rc != nil {
		payload.CallID = rc.CallID.String()
	}

	var verdict remoteVerdict
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&verdict).
		Post(r.endpoint)
	if err != nil {
		return in, guardrail.Errored(types.WrapError(types.GUARDRAIL_EXECUTION,
			fmt.Sprintf("vendor call to %s failed", r.Name()), err))
	}
	if resp.IsError() {
		return in, guardrail.Errored(types.NewRetryableError(types.GUARDRAIL_EXECUTION,
			fmt.Sprintf("vendor %s returned status %d", r.Name(), resp.StatusCode())))
	}

	if verdict.Flagged {
		reason := verdict.Reason
		if reason == "" {
			reason = fmt.Sprintf("content flagged by %s", r.Name())
		}
		details := make([]guardrail.ViolationDetail, 0, len(verdict.Categories))
		for _, cat := range verdict.Categories {
			details = append(details, guardrail.ViolationDetail{Rule: cat})
		}
		if len(verdict.Categories) > 0 {
			reason = fmt.Sprintf("%s (categories: %s)", reason, strings.Join(verdict.Categories, ", "))
		}
		return in, guardrail.Blocked(reason, details...)
	}

	return in, guardrail.Pass()
}
