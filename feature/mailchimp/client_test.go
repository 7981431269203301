package mailchimp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *APIClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewAPIClient("secret-us14", "abc123", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return client
}

// writeJSON responds like the real API does. The content type matters: the
// client only unmarshals result and error bodies declared as JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNewAPIClient_Validation(t *testing.T) {
	_, err := NewAPIClient("", "abc123")
	assert.Error(t, err)

	_, err = NewAPIClient("secret-us14", "")
	assert.Error(t, err)

	// No datacenter suffix
	_, err = NewAPIClient("secretwithoutdc", "abc123")
	assert.Error(t, err)
}

func TestSubscriberHash(t *testing.T) {
	// Known value: md5("urist.mcvankab@freddiesjokes.com")
	assert.Equal(t, "62eeb292278cc15f5817cb78f7790b08", SubscriberHash("Urist.McVankab@freddiesjokes.com"))
}

func TestListMembers_Paginated(t *testing.T) {
	total := pageSize + 2
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lists/abc123/members", r.URL.Path)

		offset := 0
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
		count := pageSize
		if offset+count > total {
			count = total - offset
		}

		members := make([]wireMember, count)
		for i := range members {
			members[i] = wireMember{
				EmailAddress:  fmt.Sprintf("p%d@example.com", offset+i),
				UniqueEmailID: fmt.Sprintf("uid-%d", offset+i),
				Status:        StatusSubscribed,
				MergeFields:   map[string]any{PersonKeyKey: float64(offset + i + 1)},
			}
		}
		writeJSON(w, http.StatusOK, wireMemberList{Members: members, TotalItems: total})
	}))

	members, err := client.ListMembers(context.Background())
	require.NoError(t, err)
	assert.Len(t, members, total)
	assert.Equal(t, "p0@example.com", members[0].Email)
	// Numeric merge field coerced through the wire boundary
	assert.Equal(t, int64(1), members[0].Merge.PersonKey)
}

func TestUpsertMember(t *testing.T) {
	var gotPath string
	var gotBody wireMember
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		writeJSON(w, http.StatusOK, wireMember{
			EmailAddress:  gotBody.EmailAddress,
			UniqueEmailID: "uid-new",
			Status:        StatusSubscribed,
			MergeFields:   gotBody.MergeFields,
		})
	}))

	born := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	member := Member{
		Email: "A@Example.com",
		Merge: MergeFields{FirstName: "Ada", PersonKey: 42, Age: 34, BirthDate: &born, Hash: "ABCD"},
	}

	result, err := client.UpsertMember(context.Background(), member)
	require.NoError(t, err)

	// Keyed by subscriber hash of the lowercased email
	assert.Equal(t, "/lists/abc123/members/"+SubscriberHash("a@example.com"), gotPath)
	assert.Equal(t, StatusSubscribed, gotBody.StatusIfNew)
	assert.Equal(t, "42", gotBody.MergeFields[PersonKeyKey])
	assert.Equal(t, "1990-01-02", gotBody.MergeFields[BirthDateKey])
	assert.Equal(t, "ABCD", gotBody.MergeFields[MergeHashKey])
	assert.Equal(t, "uid-new", result.UniqueID)
}

func TestRemoveMember_NotFoundTolerated(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusNotFound, wireError{Title: "Resource Not Found", Status: 404})
	}))

	// Removing an already-absent member is not an error; the desired state
	// is reached either way.
	assert.NoError(t, client.RemoveMember(context.Background(), "gone@example.com"))
}

func TestSegmentWrites(t *testing.T) {
	var createBody, updateBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			writeJSON(w, http.StatusOK, wireSegment{ID: 7, Name: createBody["name"].(string)})
		case r.Method == http.MethodPatch:
			assert.Equal(t, "/lists/abc123/segments/7", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updateBody))
			writeJSON(w, http.StatusOK, wireSegment{ID: 7, Name: updateBody["name"].(string)})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	seg, err := client.CreateSegment(context.Background(), "Volunteers-7", []string{"p1@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 7, seg.ID)

	// Empty membership must still serialize the static_segment key
	_, err = client.UpdateSegment(context.Background(), 7, "Volunteers-7", nil)
	require.NoError(t, err)
	emails, present := updateBody["static_segment"]
	assert.True(t, present)
	assert.Empty(t, emails)

	assert.NoError(t, client.DeleteSegment(context.Background(), 7))
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, wireError{Title: "Invalid Resource", Status: 400, Detail: "merge fields were invalid"})
	}))

	_, err := client.UpsertMember(context.Background(), Member{Email: "x@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge fields were invalid")
}
