package sync

import (
	"fmt"
	"strings"
	"time"
)

// Failure is one recovered per-person or per-segment error. The run
// continues past these; they surface together in the aggregate RunError.
type Failure struct {
	// Scope is "member", "person" or "segment".
	Scope string `json:"scope"`
	// Subject identifies the affected record (email or segment name).
	Subject string `json:"subject"`
	// Message is the rendered cause.
	Message string `json:"message"`

	err error
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (f Failure) Unwrap() error {
	return f.err
}

// Result is the explicit accumulator threaded through a run. It is the
// run's only externally observable outcome, and is what gets archived.
type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Synced counts people successfully pushed to the remote list.
	Synced int `json:"synced"`
	// Removed counts remote records deleted because the local side opted
	// out or the email drifted.
	Removed int `json:"removed"`
	// Onboarded counts people auto-created from unknown remote members.
	Onboarded int `json:"onboarded"`
	// Deferred counts unknown remote members handed to the workflow.
	Deferred int `json:"deferred"`

	SegmentsCreated int `json:"segments_created"`
	SegmentsUpdated int `json:"segments_updated"`
	SegmentsDeleted int `json:"segments_deleted"`

	Failures []Failure `json:"failures,omitempty"`
}

// fail records a recovered failure and moves on.
func (r *Result) fail(scope, subject string, err error) {
	r.Failures = append(r.Failures, Failure{
		Scope:   scope,
		Subject: subject,
		Message: err.Error(),
		err:     err,
	})
}

// Summary renders the operator-facing outcome line. It always states the
// synced count, with the failure count alongside when present.
func (r *Result) Summary() string {
	if len(r.Failures) == 0 {
		return fmt.Sprintf("Synced a total of %d people", r.Synced)
	}
	return fmt.Sprintf("Synced a total of %d people, %d failures", r.Synced, len(r.Failures))
}

// Err returns the aggregate run error, or nil for a clean run. A non-nil
// error still accompanies a meaningful Result: "some succeeded, report says
// failed" is the expected shape of a partially degraded run.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return &RunError{Synced: r.Synced, Causes: r.Failures}
}

// RunError is the aggregate failure of a partially successful run. It names
// every cause without discarding the success count.
type RunError struct {
	Synced int
	Causes []Failure
}

// Error implements error.
func (e *RunError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "one or more syncs failed (%d synced, %d failed)", e.Synced, len(e.Causes))
	for _, cause := range e.Causes {
		fmt.Fprintf(&sb, "; %s %s: %s", cause.Scope, cause.Subject, cause.Message)
	}
	return sb.String()
}

// Unwrap exposes every cause for errors.Is/As.
func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Causes))
	for i := range e.Causes {
		errs[i] = e.Causes[i]
	}
	return errs
}

// Error implements error so Failure can participate in unwrapping.
func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %s", f.Scope, f.Subject, f.Message)
}
