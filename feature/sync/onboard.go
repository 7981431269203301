package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/arranf/MailChimpSync/feature/directory"
	"github.com/arranf/MailChimpSync/feature/mailchimp"

	"github.com/go-resty/resty/v2"
)

// placeholderName is stamped on auto-created people when the remote member
// carries no usable name.
const placeholderName = "Unknown"

// Onboarder handles first contact with a remote member that has no local
// identity. Exactly one of the two implementations runs per unmatched
// member, selected once per run by configuration.
type Onboarder interface {
	// Onboard returns the person now representing the member locally, or
	// nil when handling was deferred to an external process.
	Onboard(ctx context.Context, member mailchimp.Member) (*directory.Person, error)
}

// LocalCreator onboards by creating a placeholder person in the directory.
type LocalCreator struct {
	directory Directory
	status    string
}

// NewLocalCreator creates an onboarder that writes to the directory,
// stamping new people with the given connection status.
func NewLocalCreator(dir Directory, newPersonStatus string) *LocalCreator {
	return &LocalCreator{directory: dir, status: newPersonStatus}
}

// Onboard implements Onboarder.
func (o *LocalCreator) Onboard(ctx context.Context, member mailchimp.Member) (*directory.Person, error) {
	firstName := member.Merge.FirstName
	if firstName == "" {
		firstName = placeholderName
	}
	lastName := member.Merge.LastName
	if lastName == "" {
		lastName = placeholderName
	}

	person := &directory.Person{
		FirstName:        firstName,
		LastName:         lastName,
		Email:            member.Email,
		IsEmailActive:    true,
		EmailPreference:  directory.EmailPreferenceAllowed,
		RecordStatus:     directory.RecordStatusActive,
		ConnectionStatus: o.status,
		BirthDate:        member.Merge.BirthDate,
	}
	if err := o.directory.CreatePerson(ctx, person); err != nil {
		return nil, fmt.Errorf("onboard %s: %w", member.Email, err)
	}
	return person, nil
}

// WorkflowNotifier onboards by posting the member's contact details to an
// external workflow endpoint instead of touching the directory.
type WorkflowNotifier struct {
	http *resty.Client
	url  string
}

// workflowPayload is the webhook body for a deferred onboarding.
type workflowPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewWorkflowNotifier creates an onboarder that defers to the workflow at
// the given URL.
func NewWorkflowNotifier(url string) *WorkflowNotifier {
	return &WorkflowNotifier{
		http: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
		url: url,
	}
}

// Onboard implements Onboarder. The idempotency key is derived from the
// member's email so duplicate triggers of the same run collapse on the
// receiving side.
func (o *WorkflowNotifier) Onboard(ctx context.Context, member mailchimp.Member) (*directory.Person, error) {
	resp, err := o.http.R().
		SetContext(ctx).
		SetHeader("X-Idempotency-Key", mailchimp.SubscriberHash(member.Email)).
		SetBody(workflowPayload{
			FirstName: member.Merge.FirstName,
			LastName:  member.Merge.LastName,
			Email:     member.Email,
		}).
		Post(o.url)
	if err != nil {
		return nil, fmt.Errorf("workflow onboard %s: %w", member.Email, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("workflow onboard %s: unexpected status %d", member.Email, resp.StatusCode())
	}
	// Deferred: the workflow owns the rest of this member's onboarding.
	return nil, nil
}
