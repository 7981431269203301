package sync

import (
	"time"

	"github.com/arranf/MailChimpSync/feature/directory"
	"github.com/arranf/MailChimpSync/feature/mailchimp"
)

// MergeFieldsFor builds the canonical synchronized-attribute set for a
// person and stamps it with its own change hash. Every code path that
// pushes or compares a person goes through this single constructor so the
// hash input is identical everywhere.
func MergeFieldsFor(person *directory.Person, now time.Time) mailchimp.MergeFields {
	m := mailchimp.MergeFields{
		FirstName: person.FirstName,
		LastName:  person.LastName,
		PersonKey: person.ID,
		Age:       person.Age(now),
		BirthDate: person.BirthDate,
		Gender:    person.Gender,
		City:      person.MailingCity(),
	}
	m.Hash = HashBag(m.Bag())
	return m
}

// memberFor builds the upsert payload for a person.
func memberFor(person *directory.Person, now time.Time) mailchimp.Member {
	return mailchimp.Member{
		Email:  person.Email,
		Status: mailchimp.StatusSubscribed,
		Merge:  MergeFieldsFor(person, now),
	}
}
