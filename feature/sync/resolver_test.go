package sync

import (
	"context"
	"testing"

	"github.com/arranf/MailChimpSync/feature/mailchimp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMember_KeyBeatsEmail(t *testing.T) {
	// The member names person 42 via its merge field but its email matches
	// person 7. The key attribute is authoritative.
	byKey := eligiblePerson(42, "Ada", "Lovelace", "b@x.com")
	byEmail := eligiblePerson(7, "Grace", "Hopper", "a@x.com")
	dir := newFakeDirectory(byKey, byEmail)
	resolver := NewResolver(newFakeLinks(), dir)

	res, err := resolver.ResolveMember(context.Background(), mailchimp.Member{
		Email: "a@x.com",
		Merge: mailchimp.MergeFields{PersonKey: 42, Age: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, MatchedByKey, res.Kind)
	assert.Equal(t, int64(42), res.Person.ID)
	assert.Nil(t, res.Link)
}

func TestResolveMember_RemoteIDWhenNoKey(t *testing.T) {
	person := eligiblePerson(42, "Ada", "Lovelace", "ada@x.com")
	dir := newFakeDirectory(person)
	links := newFakeLinks(&Link{PersonKey: 42, RemoteID: "uid-1", Email: "ada@x.com"})
	resolver := NewResolver(links, dir)

	res, err := resolver.ResolveMember(context.Background(), mailchimp.Member{
		Email:    "ada@x.com",
		UniqueID: "uid-1",
		Merge:    mailchimp.MergeFields{Age: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, MatchedByRemoteID, res.Kind)
	assert.Equal(t, int64(42), res.Person.ID)
	require.NotNil(t, res.Link)
	assert.Equal(t, "uid-1", res.Link.RemoteID)
}

func TestResolveMember_StaleKeyFallsThrough(t *testing.T) {
	// The key merge field points at a deleted person, but a link by remote
	// unique id still resolves a live one.
	person := eligiblePerson(42, "Ada", "Lovelace", "ada@x.com")
	dir := newFakeDirectory(person)
	links := newFakeLinks(&Link{PersonKey: 42, RemoteID: "uid-1"})
	resolver := NewResolver(links, dir)

	res, err := resolver.ResolveMember(context.Background(), mailchimp.Member{
		Email:    "ada@x.com",
		UniqueID: "uid-1",
		Merge:    mailchimp.MergeFields{PersonKey: 9999, Age: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, MatchedByRemoteID, res.Kind)
	assert.Equal(t, int64(42), res.Person.ID)
}

func TestResolveMember_EmailIsFirstContactOnly(t *testing.T) {
	person := eligiblePerson(7, "Grace", "Hopper", "grace@x.com")
	dir := newFakeDirectory(person)
	resolver := NewResolver(newFakeLinks(), dir)

	res, err := resolver.ResolveMember(context.Background(), mailchimp.Member{
		Email: "grace@x.com",
		Merge: mailchimp.MergeFields{Age: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, MatchedByEmail, res.Kind)
	assert.Equal(t, int64(7), res.Person.ID)
	assert.Nil(t, res.Link)
}

func TestResolveMember_Unmatched(t *testing.T) {
	resolver := NewResolver(newFakeLinks(), newFakeDirectory())

	res, err := resolver.ResolveMember(context.Background(), mailchimp.Member{
		Email:    "stranger@x.com",
		UniqueID: "uid-unknown",
		Merge:    mailchimp.MergeFields{Age: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, Unmatched, res.Kind)
	assert.Nil(t, res.Person)
}
