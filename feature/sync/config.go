package sync

import "fmt"

// Onboarding modes for remote members with no local identity.
const (
	// OnboardAutoCreate creates a placeholder person in the directory.
	OnboardAutoCreate = "auto_create"
	// OnboardWorkflow defers to an external workflow via webhook instead
	// of touching the directory.
	OnboardWorkflow = "workflow"
)

// Config holds configuration for a reconciliation run.
type Config struct {
	// ApiKey is the Mailchimp API key, including the datacenter suffix.
	ApiKey string `mapstructure:"api_key" default:""`
	// ListID is the Mailchimp list (audience) to sync against.
	ListID string `mapstructure:"list_id" default:""`
	// GroupTypeID selects which directory group type is in scope.
	GroupTypeID int64 `mapstructure:"group_type_id" default:"0"`
	// TimeoutSeconds is the local-query timeout for the run. Overrides the
	// database connection default when set.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"720"`
	// OnboardingMode selects how unknown remote members are handled:
	// auto_create or workflow.
	OnboardingMode string `mapstructure:"onboarding_mode" default:"auto_create"`
	// NewPersonStatus is the connection status stamped on auto-created
	// people.
	NewPersonStatus string `mapstructure:"new_person_status" default:"web_prospect"`
	// WorkflowURL is the webhook endpoint notified in workflow mode.
	WorkflowURL string `mapstructure:"workflow_url" default:""`
}

// Validate checks the configuration before any remote call is made.
// Configuration errors are fatal for the run.
func (c Config) Validate() error {
	if c.ApiKey == "" {
		return fmt.Errorf("no API key is set, unable to sync")
	}
	if c.ListID == "" {
		return fmt.Errorf("no list id is set, unable to sync")
	}
	if c.GroupTypeID <= 0 {
		return fmt.Errorf("no group type is set, unable to sync")
	}
	switch c.OnboardingMode {
	case OnboardAutoCreate:
		if c.NewPersonStatus == "" {
			return fmt.Errorf("no new person status is set, unable to sync")
		}
	case OnboardWorkflow:
		if c.WorkflowURL == "" {
			return fmt.Errorf("onboarding mode %q requires a workflow URL", c.OnboardingMode)
		}
	default:
		return fmt.Errorf("unknown onboarding mode %q", c.OnboardingMode)
	}
	return nil
}
