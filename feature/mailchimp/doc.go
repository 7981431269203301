// Package mailchimp is the boundary adapter for the remote mailing-list API.
//
// It exposes the narrow Client interface the sync core consumes (member and
// segment CRUD) and keeps every wire concern on this side of the line:
// datacenter routing from the API key suffix, basic auth, subscriber hashes,
// offset pagination, and the conversion between the API's loosely-typed
// merge field object and the typed MergeFields record.
//
// # Idempotent upserts
//
// UpsertMember PUTs against the subscriber hash, so the same call creates a
// missing member or full-replaces an existing one. The sync engine relies on
// this for its at-least-once delivery contract.
//
// # Reserved merge fields
//
// Two merge field tags are reserved for the sync itself: MERGEHASH carries
// the change hash used for drift detection, and PERSONALIA carries the
// directory person key used for direct identity linkage.
package mailchimp
