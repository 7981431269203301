package sync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSummary(t *testing.T) {
	clean := &Result{Synced: 12}
	assert.Equal(t, "Synced a total of 12 people", clean.Summary())

	degraded := &Result{Synced: 12}
	degraded.fail("person", "p@x.com", errors.New("boom"))
	assert.Equal(t, "Synced a total of 12 people, 1 failures", degraded.Summary())
}

func TestResultErr(t *testing.T) {
	clean := &Result{Synced: 3}
	assert.NoError(t, clean.Err())

	cause := errors.New("remote said no")
	degraded := &Result{Synced: 3}
	degraded.fail("person", "p@x.com", cause)
	degraded.fail("segment", "Volunteers-7", errors.New("gone"))

	err := degraded.Err()
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 3, runErr.Synced)
	require.Len(t, runErr.Causes, 2)

	// Every cause stays reachable through unwrapping.
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "3 synced, 2 failed")
	assert.Contains(t, err.Error(), "person p@x.com: remote said no")
	assert.Contains(t, err.Error(), "segment Volunteers-7: gone")
}
