package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// memberBatchSize bounds how many group member rows are hydrated per query
// while walking the directory. Keeps memory flat on very large directories.
const memberBatchSize = 200

// GroupSnapshot is a run-scoped projection of one eligible group: its
// identity plus the people in it that pass the sync eligibility filter.
type GroupSnapshot struct {
	ID     int64
	Name   string
	People []Person
}

// Store provides read-mostly access to the directory database.
type Store struct {
	db *gorm.DB
}

// NewStore creates a directory store on top of an existing connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// EligibleGroups returns every active group of the given type together with
// its sync-eligible members. Members are hydrated in fixed-size batches with
// non-tracking sessions so no long-lived transaction spans the walk.
func (s *Store) EligibleGroups(ctx context.Context, groupTypeID int64) ([]GroupSnapshot, error) {
	var groups []Group
	err := s.session(ctx).
		Where("group_type_id = ? AND is_active = ?", groupTypeID, true).
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load groups of type %d: %w", groupTypeID, err)
	}

	snapshots := make([]GroupSnapshot, 0, len(groups))
	for _, g := range groups {
		snapshot := GroupSnapshot{ID: g.ID, Name: g.Name}

		var batch []GroupMember
		err := s.session(ctx).
			Where("group_id = ?", g.ID).
			Preload("Person").
			Preload("Person.Addresses").
			FindInBatches(&batch, memberBatchSize, func(tx *gorm.DB, _ int) error {
				for i := range batch {
					person := batch[i].Person
					if person.EligibleForSync() {
						snapshot.People = append(snapshot.People, person)
					}
				}
				return nil
			}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load members of group %d: %w", g.ID, err)
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

// PersonByKey returns the person with the given id, or nil when absent.
func (s *Store) PersonByKey(ctx context.Context, id int64) (*Person, error) {
	var person Person
	err := s.session(ctx).
		Preload("Addresses").
		First(&person, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load person %d: %w", id, err)
	}
	return &person, nil
}

// PersonByEmail returns the first person with the given email address, or
// nil when none matches. Email is not unique in the directory; first match
// wins, mirroring how first-contact identity is resolved.
func (s *Store) PersonByEmail(ctx context.Context, email string) (*Person, error) {
	if email == "" {
		return nil, nil
	}
	var person Person
	err := s.session(ctx).
		Preload("Addresses").
		Where("email = ?", email).
		Order("id").
		First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up person by email: %w", err)
	}
	return &person, nil
}

// CreatePerson persists a newly onboarded person inside a short-lived
// transaction and fills in its generated id.
func (s *Store) CreatePerson(ctx context.Context, person *Person) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(person).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

// session returns a fresh non-tracking session for read queries.
func (s *Store) session(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Session(&gorm.Session{NewDB: true})
}
