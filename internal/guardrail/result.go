package guardrail

// Outcome classifies a single guardrail check.
type Outcome string

const (
	// OutcomePass means the guardrail permitted the content, possibly after
	// rewriting it.
	OutcomePass Outcome = "pass"

	// OutcomeBlocked means the guardrail made a deliberate policy decision to
	// stop the request.
	OutcomeBlocked Outcome = "blocked"

	// OutcomeErrored means the check could not be evaluated (vendor API
	// failure, programming error). Callers must not treat this as a pass.
	OutcomeErrored Outcome = "errored"
)

// ViolationDetail names a rule a guardrail matched against.
type ViolationDetail struct {
	Rule    string `json:"rule"`
	Matched string `json:"matched,omitempty"`
}

// CheckResult is the discriminated outcome of a guardrail check. Exactly one
// of the outcome-specific fields is meaningful for each Outcome value.
type CheckResult struct {
	Outcome Outcome

	// Reason is the human-readable violation message for OutcomeBlocked.
	Reason string

	// Details carries structured violation information for OutcomeBlocked.
	Details []ViolationDetail

	// Err is the underlying failure for OutcomeErrored.
	Err error

	// Modified is the rewritten request context for a pass that changed
	// content (PII masking and similar). Nil when nothing changed.
	Modified *RequestContext
}

// Pass returns a result permitting the content unchanged.
func Pass() CheckResult {
	return CheckResult{Outcome: OutcomePass}
}

// PassModified returns a passing result carrying a rewritten context.
func PassModified(rc *RequestContext) CheckResult {
	return CheckResult{Outcome: OutcomePass, Modified: rc}
}

// Blocked returns a deliberate policy block with a human-readable reason.
func Blocked(reason string, details ...ViolationDetail) CheckResult {
	return CheckResult{Outcome: OutcomeBlocked, Reason: reason, Details: details}
}

// Errored returns a result for a check that could not be evaluated.
func Errored(err error) CheckResult {
	return CheckResult{Outcome: OutcomeErrored, Err: err}
}

// IsBlocked reports whether the guardrail deliberately blocked the content.
func (r CheckResult) IsBlocked() bool {
	return r.Outcome == OutcomeBlocked
}

// IsPass reports whether the content may continue.
func (r CheckResult) IsPass() bool {
	return r.Outcome == OutcomePass
}

// Detail returns the human-readable failure message for a non-pass outcome.
func (r CheckResult) Detail() string {
	switch r.Outcome {
	case OutcomeBlocked:
		return r.Reason
	case OutcomeErrored:
		if r.Err != nil {
			return r.Err.Error()
		}
		return "guardrail check failed"
	}
	return ""
}
