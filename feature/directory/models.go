package directory

import "time"

// Email preference values for a person.
const (
	EmailPreferenceAllowed    = "allowed"
	EmailPreferenceNoMass     = "no_mass_emails"
	EmailPreferenceDoNotEmail = "do_not_email"
)

// Record status values for a person.
const (
	RecordStatusActive   = "active"
	RecordStatusInactive = "inactive"
	RecordStatusPending  = "pending"
)

// Person is a directory person record. The sync engine treats it as an
// immutable-for-the-run projection; the only write path is onboarding of
// people first seen on the remote list.
type Person struct {
	ID               int64      `gorm:"primaryKey;autoIncrement"`
	FirstName        string     `gorm:"size:100"`
	LastName         string     `gorm:"size:100"`
	Email            string     `gorm:"size:254;index"`
	IsEmailActive    bool       `gorm:"default:true"`
	EmailPreference  string     `gorm:"size:20;default:allowed"`
	IsDeceased       bool       `gorm:"default:false"`
	RecordStatus     string     `gorm:"size:20;default:active"`
	ConnectionStatus string     `gorm:"size:50"`
	Gender           string     `gorm:"size:10"`
	BirthDate        *time.Time `gorm:"type:date"`
	Addresses        []Address  `gorm:"foreignKey:PersonID"`
}

// TableName maps Person to the directory's people table.
func (Person) TableName() string {
	return "people"
}

// Address is a postal address attached to a person. A person may have
// several; at most one is flagged as the mailing address.
type Address struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	PersonID   int64 `gorm:"index"`
	Street     string
	City       string `gorm:"size:100"`
	PostalCode string `gorm:"size:20"`
	IsMailing  bool   `gorm:"default:false"`
}

// TableName maps Address to the directory's addresses table.
func (Address) TableName() string {
	return "addresses"
}

// Group is a directory group. Groups of the configured group type drive
// which people are in scope for a sync run.
type Group struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	Name        string
	GroupTypeID int64         `gorm:"index"`
	IsActive    bool          `gorm:"default:true"`
	Members     []GroupMember `gorm:"foreignKey:GroupID"`
}

// TableName maps Group to the directory's groups table.
func (Group) TableName() string {
	return "groups"
}

// GroupMember joins a person to a group.
type GroupMember struct {
	ID       int64 `gorm:"primaryKey;autoIncrement"`
	GroupID  int64 `gorm:"index"`
	PersonID int64 `gorm:"index"`
	Person   Person
}

// TableName maps GroupMember to the directory's group_members table.
func (GroupMember) TableName() string {
	return "group_members"
}

// EligibleForSync reports whether the person should be pushed to the
// mailing list: alive, active record, working address and mass email
// allowed.
func (p *Person) EligibleForSync() bool {
	return !p.IsDeceased &&
		p.RecordStatus == RecordStatusActive &&
		p.IsEmailActive &&
		p.Email != "" &&
		p.EmailPreference == EmailPreferenceAllowed
}

// MailingCity returns the city of the person's mailing address, or "" when
// no mailing address is on file.
func (p *Person) MailingCity() string {
	for i := range p.Addresses {
		if p.Addresses[i].IsMailing {
			return p.Addresses[i].City
		}
	}
	return ""
}

// Age returns the person's age in whole years at the given time, or -1
// when no birth date is on file.
func (p *Person) Age(now time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	age := now.Year() - p.BirthDate.Year()
	// Birthday not yet reached this year
	if now.Month() < p.BirthDate.Month() ||
		(now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		age--
	}
	return age
}

// FullName returns "First Last" for logs and workflow payloads.
func (p *Person) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
