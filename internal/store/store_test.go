package store

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fellowship-backend/internal/model"
)

// newMockDB creates a sqlmock-backed GORM connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB creates a migrated in-memory database unique to the test.
func newSQLiteDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Account{}, &model.DeviceToken{}, &model.Event{}, &model.RSVP{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, id string) {
	require.NoError(t, db.Create(&model.Account{
		ID:    id,
		Name:  "Member " + id,
		Email: id + "@fellowship.test",
	}).Error)
}

func TestUpsertDeviceToken_RegisterThenUpdate(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	seedAccount(t, db, "user-a")

	tokenID, action, err := s.UpsertDeviceToken(ctx, "user-a", "tok-1", model.DeviceInfo{Platform: "Linux"})
	require.NoError(t, err)
	assert.Equal(t, ActionRegistered, action)
	assert.NotEmpty(t, tokenID)

	// Backdate last_used so the refresh is observable.
	require.NoError(t, db.Model(&model.DeviceToken{}).
		Where("token = ?", "tok-1").
		Updates(map[string]any{"last_used": time.Now().UTC().Add(-time.Hour), "is_active": false}).Error)

	var before model.DeviceToken
	require.NoError(t, db.Where("token = ?", "tok-1").First(&before).Error)

	tokenID2, action2, err := s.UpsertDeviceToken(ctx, "user-a", "tok-1", model.DeviceInfo{Platform: "Android", Mobile: true})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, action2)
	assert.Equal(t, tokenID, tokenID2, "re-registration must not mint a new row id")

	var count int64
	db.Model(&model.DeviceToken{}).Where("token = ?", "tok-1").Count(&count)
	assert.Equal(t, int64(1), count, "exactly one row per token")

	var after model.DeviceToken
	require.NoError(t, db.Where("token = ?", "tok-1").First(&after).Error)
	assert.True(t, after.IsActive, "re-registration reactivates the row")
	assert.True(t, after.LastUsed.After(before.LastUsed), "last_used must strictly increase")
	assert.Equal(t, "Android", after.Device.Platform)
	assert.True(t, after.Device.Mobile)
}

func TestUpsertDeviceToken_TokenMovesBetweenUsers(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	seedAccount(t, db, "user-a")
	seedAccount(t, db, "user-b")

	_, _, err := s.UpsertDeviceToken(ctx, "user-a", "tok-shared", model.DeviceInfo{})
	require.NoError(t, err)

	// Same browser, new login: the token row follows the new owner.
	_, action, err := s.UpsertDeviceToken(ctx, "user-b", "tok-shared", model.DeviceInfo{})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, action)

	var row model.DeviceToken
	require.NoError(t, db.Where("token = ?", "tok-shared").First(&row).Error)
	assert.Equal(t, "user-b", row.UserID)
}

func TestActiveTokens_ExcludesInactive(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	seedAccount(t, db, "user-a")

	_, _, err := s.UpsertDeviceToken(ctx, "user-a", "tok-live", model.DeviceInfo{})
	require.NoError(t, err)
	_, _, err = s.UpsertDeviceToken(ctx, "user-a", "tok-stale", model.DeviceInfo{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.DeviceToken{}).
		Where("token = ?", "tok-stale").
		Update("is_active", false).Error)

	tokens, err := s.ActiveTokens(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "tok-live", tokens[0].Token)
}

func TestDeactivateUnused_SoftAndIdempotent(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	seedAccount(t, db, "user-a")

	for tok, age := range map[string]time.Duration{
		"tok-fresh": 2 * 24 * time.Hour,
		"tok-old":   10 * 24 * time.Hour,
	} {
		_, _, err := s.UpsertDeviceToken(ctx, "user-a", tok, model.DeviceInfo{})
		require.NoError(t, err)
		require.NoError(t, db.Model(&model.DeviceToken{}).
			Where("token = ?", tok).
			Update("last_used", time.Now().UTC().Add(-age)).Error)
	}

	cutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
	n, err := s.DeactivateUnused(ctx, "user-a", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var total int64
	db.Model(&model.DeviceToken{}).Where("user_id = ?", "user-a").Count(&total)
	assert.Equal(t, int64(2), total, "age-out deactivates, never deletes")

	tokens, err := s.ActiveTokens(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "tok-fresh", tokens[0].Token)

	// Second pass is a no-op.
	n, err = s.DeactivateUnused(ctx, "user-a", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDeleteTokens(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	seedAccount(t, db, "user-a")

	for _, tok := range []string{"tok-1", "tok-2", "tok-3"} {
		_, _, err := s.UpsertDeviceToken(ctx, "user-a", tok, model.DeviceInfo{})
		require.NoError(t, err)
	}

	n, err := s.DeleteTokens(ctx, []string{"tok-1", "tok-3", "tok-never-existed"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var remaining []model.DeviceToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "tok-2", remaining[0].Token)

	// Empty set short-circuits without touching the database.
	n, err = s.DeleteTokens(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMigrateLegacyTokens(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Account{
		ID: "user-legacy", Name: "Old Member", Email: "legacy@fellowship.test",
		LegacyFCMToken: "tok-from-profile",
	}).Error)
	require.NoError(t, db.Create(&model.Account{
		ID: "user-clean", Name: "New Member", Email: "clean@fellowship.test",
	}).Error)

	n, err := s.MigrateLegacyTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tokens, err := s.ActiveTokens(ctx, "user-legacy")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "tok-from-profile", tokens[0].Token)

	var acct model.Account
	require.NoError(t, db.First(&acct, "id = ?", "user-legacy").Error)
	assert.Empty(t, acct.LegacyFCMToken, "legacy column is cleared after migration")

	// A second run finds nothing to do.
	n, err = s.MigrateLegacyTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDeleteToken_SQLStatement(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "device_tokens" WHERE token = $1`)).
		WithArgs("tok-gone").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.DeleteToken(context.Background(), "tok-gone")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
