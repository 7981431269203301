package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Link is the persisted join between a directory person and their remote
// list record. At most one link exists per person; the remote unique id is
// stable even when the remote email changes. Links are created on first
// successful upsert, updated on every successful upsert, and never deleted
// automatically: stale links are tolerated, not purged.
type Link struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	PersonKey    int64     `gorm:"uniqueIndex"`
	RemoteID     string    `gorm:"size:64;index"`
	Email        string    `gorm:"size:254"`
	LastSyncedAt time.Time `gorm:"index"`
}

// TableName maps Link to its dedicated table.
func (Link) TableName() string {
	return "mailchimp_person_links"
}

// LinkStore is the persisted link table as consumed by the engine.
type LinkStore interface {
	// ByPersonKey returns the link for a person, or nil when absent.
	ByPersonKey(ctx context.Context, personKey int64) (*Link, error)
	// ByRemoteID returns the link with the given remote unique id, or nil.
	ByRemoteID(ctx context.Context, remoteID string) (*Link, error)
	// Save persists a new or updated link in a short-lived transaction.
	Save(ctx context.Context, link *Link) error
}

// GormLinkStore is the MySQL-backed LinkStore.
type GormLinkStore struct {
	db *gorm.DB
}

// NewLinkStore creates a link store on top of an existing connection.
func NewLinkStore(db *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: db}
}

// Migrate creates or updates the link table schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Link{}); err != nil {
		return fmt.Errorf("failed to migrate link table: %w", err)
	}
	return nil
}

// ByPersonKey implements LinkStore.
func (s *GormLinkStore) ByPersonKey(ctx context.Context, personKey int64) (*Link, error) {
	var link Link
	err := s.db.WithContext(ctx).
		Where("person_key = ?", personKey).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load link for person %d: %w", personKey, err)
	}
	return &link, nil
}

// ByRemoteID implements LinkStore.
func (s *GormLinkStore) ByRemoteID(ctx context.Context, remoteID string) (*Link, error) {
	if remoteID == "" {
		return nil, nil
	}
	var link Link
	err := s.db.WithContext(ctx).
		Where("remote_id = ?", remoteID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load link for remote id %s: %w", remoteID, err)
	}
	return &link, nil
}

// Save implements LinkStore.
func (s *GormLinkStore) Save(ctx context.Context, link *Link) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if link.ID == 0 {
			return tx.Create(link).Error
		}
		return tx.Save(link).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save link for person %d: %w", link.PersonKey, err)
	}
	return nil
}
