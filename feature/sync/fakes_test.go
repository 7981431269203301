package sync

import (
	"context"
	"fmt"

	"github.com/arranf/MailChimpSync/feature/directory"
	"github.com/arranf/MailChimpSync/feature/mailchimp"
)

// fakeAPI is an in-memory mailchimp.Client recording every mutation.
type fakeAPI struct {
	members  []mailchimp.Member
	segments []mailchimp.Segment

	upserts         []mailchimp.Member
	removals        []string
	createdSegments []mailchimp.Segment
	updatedSegments []mailchimp.Segment
	deletedSegments []int

	listMembersErr error
	upsertErr      map[string]error // keyed by email
	segmentErr     map[string]error // keyed by segment name

	nextSegmentID int
}

func (f *fakeAPI) ListMembers(context.Context) ([]mailchimp.Member, error) {
	if f.listMembersErr != nil {
		return nil, f.listMembersErr
	}
	return f.members, nil
}

func (f *fakeAPI) UpsertMember(_ context.Context, member mailchimp.Member) (mailchimp.Member, error) {
	if err := f.upsertErr[member.Email]; err != nil {
		return mailchimp.Member{}, err
	}
	member.UniqueID = "uid-" + member.Email
	f.upserts = append(f.upserts, member)
	return member, nil
}

func (f *fakeAPI) RemoveMember(_ context.Context, email string) error {
	f.removals = append(f.removals, email)
	return nil
}

func (f *fakeAPI) ListSegments(context.Context) ([]mailchimp.Segment, error) {
	return f.segments, nil
}

func (f *fakeAPI) CreateSegment(_ context.Context, name string, emails []string) (mailchimp.Segment, error) {
	if err := f.segmentErr[name]; err != nil {
		return mailchimp.Segment{}, err
	}
	f.nextSegmentID++
	seg := mailchimp.Segment{ID: f.nextSegmentID, Name: name, Emails: emails}
	f.createdSegments = append(f.createdSegments, seg)
	return seg, nil
}

func (f *fakeAPI) UpdateSegment(_ context.Context, id int, name string, emails []string) (mailchimp.Segment, error) {
	if err := f.segmentErr[name]; err != nil {
		return mailchimp.Segment{}, err
	}
	seg := mailchimp.Segment{ID: id, Name: name, Emails: emails}
	f.updatedSegments = append(f.updatedSegments, seg)
	return seg, nil
}

func (f *fakeAPI) DeleteSegment(_ context.Context, id int) error {
	if err := f.segmentErr[fmt.Sprintf("#%d", id)]; err != nil {
		return err
	}
	f.deletedSegments = append(f.deletedSegments, id)
	return nil
}

// fakeDirectory is an in-memory Directory.
type fakeDirectory struct {
	people  map[int64]*directory.Person
	groups  []directory.GroupSnapshot
	created []*directory.Person
	nextID  int64
}

func newFakeDirectory(people ...*directory.Person) *fakeDirectory {
	d := &fakeDirectory{people: make(map[int64]*directory.Person), nextID: 1000}
	for _, p := range people {
		d.people[p.ID] = p
	}
	return d
}

func (d *fakeDirectory) EligibleGroups(context.Context, int64) ([]directory.GroupSnapshot, error) {
	return d.groups, nil
}

func (d *fakeDirectory) PersonByKey(_ context.Context, id int64) (*directory.Person, error) {
	return d.people[id], nil
}

func (d *fakeDirectory) PersonByEmail(_ context.Context, email string) (*directory.Person, error) {
	if email == "" {
		return nil, nil
	}
	for _, p := range d.people {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) CreatePerson(_ context.Context, person *directory.Person) error {
	d.nextID++
	person.ID = d.nextID
	d.people[person.ID] = person
	d.created = append(d.created, person)
	return nil
}

// fakeLinks is an in-memory LinkStore.
type fakeLinks struct {
	links  map[int64]*Link
	nextID int64
	saves  int
}

func newFakeLinks(links ...*Link) *fakeLinks {
	s := &fakeLinks{links: make(map[int64]*Link)}
	for _, l := range links {
		s.nextID++
		if l.ID == 0 {
			l.ID = s.nextID
		}
		s.links[l.PersonKey] = l
	}
	return s
}

func (s *fakeLinks) ByPersonKey(_ context.Context, personKey int64) (*Link, error) {
	return s.links[personKey], nil
}

func (s *fakeLinks) ByRemoteID(_ context.Context, remoteID string) (*Link, error) {
	if remoteID == "" {
		return nil, nil
	}
	for _, l := range s.links {
		if l.RemoteID == remoteID {
			return l, nil
		}
	}
	return nil, nil
}

func (s *fakeLinks) Save(_ context.Context, link *Link) error {
	if link.ID == 0 {
		s.nextID++
		link.ID = s.nextID
	}
	s.links[link.PersonKey] = link
	s.saves++
	return nil
}

// deferringOnboarder simulates the workflow path: nothing local happens.
type deferringOnboarder struct {
	notified []string
}

func (o *deferringOnboarder) Onboard(_ context.Context, member mailchimp.Member) (*directory.Person, error) {
	o.notified = append(o.notified, member.Email)
	return nil, nil
}

// eligiblePerson builds a person that passes the sync eligibility filter.
func eligiblePerson(id int64, first, last, email string) *directory.Person {
	return &directory.Person{
		ID:              id,
		FirstName:       first,
		LastName:        last,
		Email:           email,
		IsEmailActive:   true,
		EmailPreference: directory.EmailPreferenceAllowed,
		RecordStatus:    directory.RecordStatusActive,
	}
}

// validConfig returns a config that passes validation in auto-create mode.
func validConfig() Config {
	return Config{
		ApiKey:          "secret-us14",
		ListID:          "abc123",
		GroupTypeID:     5,
		OnboardingMode:  OnboardAutoCreate,
		NewPersonStatus: "web_prospect",
	}
}
