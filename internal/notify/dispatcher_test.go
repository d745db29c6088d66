package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fellowship-backend/internal/model"
	"fellowship-backend/internal/push"
	"fellowship-backend/internal/store"
)

// mockSender is a scriptable Sender keyed by token.
type mockSender struct {
	SendFunc func(ctx context.Context, token, title, body string, data map[string]string) error
}

func (m *mockSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	return m.SendFunc(ctx, token, title, body, data)
}

func newTestStore(t *testing.T) store.Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Account{}, &model.DeviceToken{}, &model.Event{}, &model.RSVP{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return store.NewGormStore(db)
}

func seedUser(t *testing.T, s store.Store, userID string, tokens ...string) {
	require.NoError(t, s.DB().Create(&model.Account{
		ID:    userID,
		Name:  "Member " + userID,
		Email: userID + "@fellowship.test",
	}).Error)
	for _, tok := range tokens {
		_, _, err := s.UpsertDeviceToken(context.Background(), userID, tok, model.DeviceInfo{})
		require.NoError(t, err)
	}
}

func TestDispatch_NoActiveDevicesIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-quiet")

	d := NewDispatcher(s, &mockSender{SendFunc: func(ctx context.Context, token, title, body string, data map[string]string) error {
		t.Fatal("sender must not be called for a user with no devices")
		return nil
	}}, time.Second)

	result, err := d.Dispatch(context.Background(), "user-quiet", "Hi", "msg", nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Attempted: 0, Succeeded: 0, Failed: 0, InvalidTokens: []string{}}, result)
}

func TestDispatch_ClassifiesPerTokenOutcomes(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-a", "tok-ok-1", "tok-ok-2", "tok-dead", "tok-flaky")

	sender := &mockSender{SendFunc: func(ctx context.Context, token, title, body string, data map[string]string) error {
		switch token {
		case "tok-dead":
			return fmt.Errorf("%w: unregistered", push.ErrInvalidToken)
		case "tok-flaky":
			return fmt.Errorf("%w: 503 from provider", push.ErrTransient)
		default:
			return nil
		}
	}}

	d := NewDispatcher(s, sender, time.Second)
	result, err := d.Dispatch(context.Background(), "user-a", "Hi", "msg", map[string]string{"k": "v"})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, []string{"tok-dead"}, result.InvalidTokens,
		"transient failures must never land in the prune list")
}

func TestDispatch_OneFailureDoesNotAbortOthers(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-a", "tok-1", "tok-2", "tok-3")

	attempted := make(chan string, 3)
	sender := &mockSender{SendFunc: func(ctx context.Context, token, title, body string, data map[string]string) error {
		attempted <- token
		if token == "tok-2" {
			return fmt.Errorf("%w: boom", push.ErrTransient)
		}
		return nil
	}}

	d := NewDispatcher(s, sender, time.Second)
	result, err := d.Dispatch(context.Background(), "user-a", "Hi", "msg", nil)
	require.NoError(t, err)
	close(attempted)

	seen := map[string]bool{}
	for tok := range attempted {
		seen[tok] = true
	}
	assert.Len(t, seen, 3, "every token must be attempted regardless of failures")
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, result.InvalidTokens)
}

func TestDispatch_SlowSendIsBoundedByTimeout(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-a", "tok-slow")

	sender := &mockSender{SendFunc: func(ctx context.Context, token, title, body string, data map[string]string) error {
		<-ctx.Done()
		return fmt.Errorf("%w: %v", push.ErrTransient, ctx.Err())
	}}

	d := NewDispatcher(s, sender, 50*time.Millisecond)
	start := time.Now()
	result, err := d.Dispatch(context.Background(), "user-a", "Hi", "msg", nil)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second, "dispatch must not block indefinitely")
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, result.InvalidTokens, "a timeout is transient, not a dead token")
}
