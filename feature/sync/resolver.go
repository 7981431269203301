package sync

import (
	"context"
	"fmt"

	"github.com/arranf/MailChimpSync/feature/directory"
	"github.com/arranf/MailChimpSync/feature/mailchimp"
)

// Directory is the slice of the local directory the sync core consumes.
type Directory interface {
	// EligibleGroups returns every active group of the given type with its
	// sync-eligible members.
	EligibleGroups(ctx context.Context, groupTypeID int64) ([]directory.GroupSnapshot, error)
	// PersonByKey returns the person with the given id, or nil.
	PersonByKey(ctx context.Context, id int64) (*directory.Person, error)
	// PersonByEmail returns the first person with the given email, or nil.
	PersonByEmail(ctx context.Context, email string) (*directory.Person, error)
	// CreatePerson persists a newly onboarded person.
	CreatePerson(ctx context.Context, person *directory.Person) error
}

// ResolutionKind tags how (or whether) a remote member was matched to a
// local identity.
type ResolutionKind int

const (
	// Unmatched means no local identity could be found.
	Unmatched ResolutionKind = iota
	// MatchedByKey means the member's PERSONALIA merge field named a
	// directory person. Authoritative once an account has synced at least
	// once.
	MatchedByKey
	// MatchedByRemoteID means the persisted link table matched the
	// member's remote unique id. Survives remote email changes.
	MatchedByRemoteID
	// MatchedByEmail means a directory person shares the member's email
	// address. Weakest signal, used only on first contact; resolving this
	// way creates a link rather than flagging a conflict.
	MatchedByEmail
)

// String implements fmt.Stringer for logging.
func (k ResolutionKind) String() string {
	switch k {
	case MatchedByKey:
		return "key"
	case MatchedByRemoteID:
		return "remote_id"
	case MatchedByEmail:
		return "email"
	default:
		return "unmatched"
	}
}

// Resolution is the outcome of resolving one remote member. Person is set
// for every matched kind; Link may still be nil on first contact.
type Resolution struct {
	Kind   ResolutionKind
	Person *directory.Person
	Link   *Link
}

// Resolver maps remote members to local identities.
type Resolver struct {
	links     LinkStore
	directory Directory
}

// NewResolver creates a resolver over the given stores.
func NewResolver(links LinkStore, dir Directory) *Resolver {
	return &Resolver{links: links, directory: dir}
}

// ResolveMember classifies a remote member against the local side using the
// fixed precedence: key merge field, persisted link by remote unique id,
// email match, unmatched. A lookup that points at a person no longer in the
// directory falls through to the next signal rather than failing the member.
func (r *Resolver) ResolveMember(ctx context.Context, member mailchimp.Member) (Resolution, error) {
	// 1. Explicit person key carried in the member's merge fields.
	if key := member.Merge.PersonKey; key > 0 {
		person, err := r.directory.PersonByKey(ctx, key)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve %s: %w", member.Email, err)
		}
		if person != nil {
			link, err := r.links.ByPersonKey(ctx, key)
			if err != nil {
				return Resolution{}, fmt.Errorf("resolve %s: %w", member.Email, err)
			}
			return Resolution{Kind: MatchedByKey, Person: person, Link: link}, nil
		}
	}

	// 2. Persisted link by remote unique id.
	link, err := r.links.ByRemoteID(ctx, member.UniqueID)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s: %w", member.Email, err)
	}
	if link != nil {
		person, err := r.directory.PersonByKey(ctx, link.PersonKey)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve %s: %w", member.Email, err)
		}
		if person != nil {
			return Resolution{Kind: MatchedByRemoteID, Person: person, Link: link}, nil
		}
		// Stale link to a deleted person; tolerated, fall through.
	}

	// 3. First-contact email match.
	person, err := r.directory.PersonByEmail(ctx, member.Email)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s: %w", member.Email, err)
	}
	if person != nil {
		link, err := r.links.ByPersonKey(ctx, person.ID)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve %s: %w", member.Email, err)
		}
		return Resolution{Kind: MatchedByEmail, Person: person, Link: link}, nil
	}

	return Resolution{Kind: Unmatched}, nil
}
