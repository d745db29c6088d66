package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fellowship-backend/internal/model"
)

// UpsertAction reports whether an upsert created a new row or refreshed an
// existing one.
type UpsertAction string

const (
	ActionRegistered UpsertAction = "registered"
	ActionUpdated    UpsertAction = "updated"
)

// Store defines the interface for all database operations.
type Store interface {
	// Token lifecycle
	UpsertDeviceToken(ctx context.Context, userID, token string, device model.DeviceInfo) (tokenID string, action UpsertAction, err error)
	ActiveTokens(ctx context.Context, userID string) ([]model.DeviceToken, error)
	ListDeviceTokens(ctx context.Context, userID string) ([]model.DeviceToken, error)
	DeleteTokens(ctx context.Context, tokens []string) (int64, error)
	DeleteToken(ctx context.Context, token string) (int64, error)
	DeactivateUnused(ctx context.Context, userID string, cutoff time.Time) (int64, error)
	MigrateLegacyTokens(ctx context.Context) (int, error)

	// Application surface
	ListAccountIDs(ctx context.Context) ([]string, error)
	CreateEvent(ctx context.Context, event *model.Event) error
	ListUpcomingEvents(ctx context.Context, after time.Time) ([]model.Event, error)
	UpsertRSVP(ctx context.Context, rsvp *model.RSVP) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertDeviceToken registers a token or refreshes its existing row. The
// reported action comes from a lookup by exact token string; the insert path
// still carries an ON CONFLICT (token) DO UPDATE clause so two registrations
// racing on the same token can never produce two rows.
func (s *gormStore) UpsertDeviceToken(ctx context.Context, userID, token string, device model.DeviceInfo) (string, UpsertAction, error) {
	now := time.Now().UTC()

	var existing model.DeviceToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"user_id":              userID,
			"device_user_agent":    device.UserAgent,
			"device_platform":      device.Platform,
			"device_screen_width":  device.ScreenWidth,
			"device_screen_height": device.ScreenHeight,
			"device_timezone":      device.Timezone,
			"device_mobile":        device.Mobile,
			"is_active":            true,
			"last_used":            now,
		}
		if err := s.db.WithContext(ctx).Model(&model.DeviceToken{}).
			Where("token = ?", token).
			Updates(updates).Error; err != nil {
			return "", "", fmt.Errorf("failed to refresh device token: %w", err)
		}
		return existing.ID, ActionUpdated, nil

	case err == gorm.ErrRecordNotFound:
		row := model.DeviceToken{
			ID:        uuid.NewString(),
			UserID:    userID,
			Token:     token,
			Device:    device,
			IsActive:  true,
			LastUsed:  now,
			CreatedAt: now,
		}
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "device_user_agent", "device_platform",
				"device_screen_width", "device_screen_height",
				"device_timezone", "device_mobile", "is_active", "last_used",
			}),
		}).Create(&row).Error; err != nil {
			return "", "", fmt.Errorf("failed to insert device token: %w", err)
		}
		return row.ID, ActionRegistered, nil

	default:
		return "", "", fmt.Errorf("failed to look up device token: %w", err)
	}
}

// ActiveTokens returns the fan-out targets for a user. Inactive rows are
// excluded here and nowhere else; callers must not re-filter.
func (s *gormStore) ActiveTokens(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	var tokens []model.DeviceToken
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active tokens: %w", err)
	}
	return tokens, nil
}

// ListDeviceTokens returns every registration for a user, active or not.
func (s *gormStore) ListDeviceTokens(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	var tokens []model.DeviceToken
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	return tokens, nil
}

// DeleteTokens hard-deletes every row whose token appears in the given set.
// Re-running against already-pruned tokens is a no-op.
func (s *gormStore) DeleteTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("token IN ?", tokens).
		Delete(&model.DeviceToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteToken removes a single registration (explicit unsubscribe).
func (s *gormStore) DeleteToken(ctx context.Context, token string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.DeviceToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete token: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeactivateUnused soft-deactivates rows whose last_used predates the
// cutoff. Rows keep their metadata for auditing; only is_active flips.
func (s *gormStore) DeactivateUnused(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.DeviceToken{}).
		Where("user_id = ? AND is_active = ? AND last_used < ?", userID, true, cutoff).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate stale tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MigrateLegacyTokens moves any remaining single-token profile columns into
// the device_tokens table and clears them. It runs once at startup; after a
// successful pass there is nothing left to migrate.
func (s *gormStore) MigrateLegacyTokens(ctx context.Context) (int, error) {
	var accounts []model.Account
	if err := s.db.WithContext(ctx).
		Where("legacy_fcm_token <> ''").
		Find(&accounts).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch legacy tokens: %w", err)
	}

	migrated := 0
	for _, acct := range accounts {
		if _, _, err := s.UpsertDeviceToken(ctx, acct.ID, acct.LegacyFCMToken, model.DeviceInfo{}); err != nil {
			log.Printf("legacy token migration skipped account %s: %v", acct.ID, err)
			continue
		}
		if err := s.db.WithContext(ctx).
			Model(&model.Account{}).
			Where("id = ?", acct.ID).
			Update("legacy_fcm_token", "").Error; err != nil {
			return migrated, fmt.Errorf("failed to clear legacy token for account %s: %w", acct.ID, err)
		}
		migrated++
	}
	return migrated, nil
}

// ListAccountIDs returns the IDs of every account. Used by event fan-out.
func (s *gormStore) ListAccountIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&model.Account{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list account ids: %w", err)
	}
	return ids, nil
}

// CreateEvent inserts a calendar event.
func (s *gormStore) CreateEvent(ctx context.Context, event *model.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// ListUpcomingEvents returns events starting at or after the given time.
func (s *gormStore) ListUpcomingEvents(ctx context.Context, after time.Time) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).
		Where("starts_at >= ?", after).
		Order("starts_at").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// UpsertRSVP records an answer, replacing any previous one by the same
// member for the same event.
func (s *gormStore) UpsertRSVP(ctx context.Context, rsvp *model.RSVP) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(rsvp).Error; err != nil {
		return fmt.Errorf("failed to upsert rsvp: %w", err)
	}
	return nil
}
