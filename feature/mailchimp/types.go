package mailchimp

import (
	"strconv"
	"time"

	"github.com/arranf/MailChimpSync/core/utils"
)

// Merge field tags understood by the sync. These are the wire keys of the
// list's merge fields; the reserved MERGEHASH tag carries the change hash
// and PERSONALIA carries the directory person key for direct identity
// linkage.
const (
	MergeHashKey = "MERGEHASH"
	PersonKeyKey = "PERSONALIA"
	FirstNameKey = "FNAME"
	LastNameKey  = "LNAME"
	AgeKey       = "AGE"
	BirthDateKey = "DOB"
	GenderKey    = "GENDER"
	CityKey      = "CITY"
)

// Subscription statuses a list member can carry.
const (
	StatusSubscribed   = "subscribed"
	StatusUnsubscribed = "unsubscribed"
	StatusCleaned      = "cleaned"
	StatusPending      = "pending"
	StatusArchived     = "archived"
)

// birthDateLayout is the wire format for the DOB merge field.
const birthDateLayout = "2006-01-02"

// MergeFields is the typed form of a member's merge field bag. The wire's
// flat string mapping is converted to and from this record only at the
// client boundary, keeping hashing and comparison logic type-safe.
type MergeFields struct {
	FirstName string
	LastName  string
	// PersonKey is the directory person id, 0 when the member has never
	// been linked.
	PersonKey int64
	// Age in whole years, -1 when unknown.
	Age int
	// BirthDate is nil when unknown.
	BirthDate *time.Time
	Gender    string
	City      string
	// Hash is the change hash stored under MergeHashKey. It is computed by
	// the sync core, never parsed back into anything.
	Hash string
}

// Bag flattens the merge fields into the wire's string mapping. Absent
// values serialize to the empty string. The hash is included only when set.
func (m MergeFields) Bag() map[string]string {
	bag := map[string]string{
		FirstNameKey: m.FirstName,
		LastNameKey:  m.LastName,
		PersonKeyKey: "",
		AgeKey:       "",
		BirthDateKey: "",
		GenderKey:    m.Gender,
		CityKey:      m.City,
	}
	if m.PersonKey > 0 {
		bag[PersonKeyKey] = strconv.FormatInt(m.PersonKey, 10)
	}
	if m.Age >= 0 {
		bag[AgeKey] = strconv.Itoa(m.Age)
	}
	if m.BirthDate != nil {
		bag[BirthDateKey] = m.BirthDate.Format(birthDateLayout)
	}
	if m.Hash != "" {
		bag[MergeHashKey] = m.Hash
	}
	return bag
}

// MergeFieldsFromBag parses the wire's loosely-typed merge field object.
// Values may arrive as strings, numbers or null depending on how the field
// was last written, so everything goes through the utils coercions.
func MergeFieldsFromBag(bag map[string]any) MergeFields {
	m := MergeFields{Age: -1}
	if bag == nil {
		return m
	}

	m.FirstName = utils.ToString(bag[FirstNameKey])
	m.LastName = utils.ToString(bag[LastNameKey])
	m.Gender = utils.ToString(bag[GenderKey])
	m.City = utils.ToString(bag[CityKey])
	m.Hash = utils.ToString(bag[MergeHashKey])

	if raw := utils.ToString(bag[PersonKeyKey]); raw != "" {
		if key, err := strconv.ParseInt(raw, 10, 64); err == nil && key > 0 {
			m.PersonKey = key
		}
	}
	if raw := utils.ToString(bag[AgeKey]); raw != "" {
		m.Age = utils.ToInt(raw)
	}
	if raw := utils.ToString(bag[BirthDateKey]); raw != "" {
		if d, err := time.Parse(birthDateLayout, raw); err == nil {
			m.BirthDate = &d
		}
	}
	return m
}

// Member is a list member as seen by the sync core. Ephemeral: it is
// reconstructed from the remote API on every run.
type Member struct {
	Email    string
	UniqueID string
	Status   string
	Merge    MergeFields
}

// Segment is a remote list segment. Emails is only populated when the
// segment is being written; the list endpoint does not expand membership.
type Segment struct {
	ID     int
	Name   string
	Emails []string
}
