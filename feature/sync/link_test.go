package sync

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestLinkByPersonKey(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewLinkStore(db)

	syncedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "person_key", "remote_id", "email", "last_synced_at"}).
		AddRow(1, 42, "uid-1", "ada@example.com", syncedAt)
	mock.ExpectQuery("SELECT \\* FROM `mailchimp_person_links`").WillReturnRows(rows)

	link, err := store.ByPersonKey(context.Background(), 42)
	assert.NoError(t, err)
	assert.NotNil(t, link)
	assert.Equal(t, "uid-1", link.RemoteID)
	assert.True(t, link.LastSyncedAt.Equal(syncedAt))
}

func TestLinkByPersonKey_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewLinkStore(db)

	mock.ExpectQuery("SELECT \\* FROM `mailchimp_person_links`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	link, err := store.ByPersonKey(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, link)
}

func TestLinkByRemoteID_EmptyShortCircuits(t *testing.T) {
	db, _ := setupMockDB(t)
	store := NewLinkStore(db)

	link, err := store.ByRemoteID(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, link)
}

func TestLinkSave_CreatesNew(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewLinkStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `mailchimp_person_links`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	link := &Link{PersonKey: 42, RemoteID: "uid-1", Email: "ada@example.com", LastSyncedAt: time.Now()}
	err := store.Save(context.Background(), link)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), link.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkSave_UpdatesExisting(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewLinkStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `mailchimp_person_links`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	link := &Link{ID: 7, PersonKey: 42, RemoteID: "uid-1", Email: "new@example.com", LastSyncedAt: time.Now()}
	err := store.Save(context.Background(), link)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
