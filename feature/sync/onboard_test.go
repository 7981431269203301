package sync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arranf/MailChimpSync/feature/mailchimp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCreator_UsesPlaceholderNames(t *testing.T) {
	dir := newFakeDirectory()
	creator := NewLocalCreator(dir, "web_prospect")

	person, err := creator.Onboard(context.Background(), mailchimp.Member{
		Email: "anon@x.com",
		Merge: mailchimp.MergeFields{Age: -1},
	})
	require.NoError(t, err)
	require.NotNil(t, person)

	assert.Equal(t, "Unknown", person.FirstName)
	assert.Equal(t, "Unknown", person.LastName)
	assert.Equal(t, "anon@x.com", person.Email)
	assert.Equal(t, "web_prospect", person.ConnectionStatus)
	assert.NotZero(t, person.ID)
	assert.True(t, person.EligibleForSync())
}

func TestLocalCreator_KeepsProvidedNames(t *testing.T) {
	dir := newFakeDirectory()
	creator := NewLocalCreator(dir, "web_prospect")

	person, err := creator.Onboard(context.Background(), mailchimp.Member{
		Email: "nina@x.com",
		Merge: mailchimp.MergeFields{FirstName: "Nina", LastName: "Simone", Age: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, "Nina", person.FirstName)
	assert.Equal(t, "Simone", person.LastName)
}

func TestWorkflowNotifier_PostsAndDefers(t *testing.T) {
	var gotKey string
	var gotBody workflowPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Idempotency-Key")
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	notifier := NewWorkflowNotifier(srv.URL)
	person, err := notifier.Onboard(context.Background(), mailchimp.Member{
		Email: "Nina@X.com",
		Merge: mailchimp.MergeFields{FirstName: "Nina", LastName: "Simone", Age: -1},
	})
	require.NoError(t, err)
	assert.Nil(t, person)

	assert.Equal(t, workflowPayload{FirstName: "Nina", LastName: "Simone", Email: "Nina@X.com"}, gotBody)
	// Key is the subscriber hash, so retries for the same address collapse.
	assert.Equal(t, mailchimp.SubscriberHash("Nina@X.com"), gotKey)
}

func TestWorkflowNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewWorkflowNotifier(srv.URL)
	_, err := notifier.Onboard(context.Background(), mailchimp.Member{Email: "x@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}
