package services

import (
	"context"
	"testing"
	"time"

	"fbadmin/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, sub *SessionSubscription) SessionEvent {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no session event received")
		return SessionEvent{}
	}
}

func TestSessionEventBusDeliversPerUser(t *testing.T) {
	store, _ := setupRedis(t)
	bus := NewSessionEventBus(store.GetClient(), "fbb:token")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1, err := bus.Subscribe(ctx, "1")
	require.NoError(t, err)
	defer sub1.Close()
	sub12, err := bus.Subscribe(ctx, "12")
	require.NoError(t, err)
	defer sub12.Close()

	require.NoError(t, bus.Publish(ctx, SessionEvent{UserID: "12", Reason: SessionReasonLogout, At: time.Now()}))
	require.NoError(t, bus.Publish(ctx, SessionEvent{UserID: "1", Reason: SessionReasonKicked, At: time.Now()}))

	assert.Equal(t, SessionReasonKicked, receiveEvent(t, sub1).Reason)
	event := receiveEvent(t, sub12)
	assert.Equal(t, "12", event.UserID)
	assert.Equal(t, SessionReasonLogout, event.Reason)
}

func TestSingleLoginPublishesKick(t *testing.T) {
	store, _ := setupRedis(t)
	bus := NewSessionEventBus(store.GetClient(), "fbb:token")
	cfg := testTokenConfig()
	codec, err := jwt.NewManager(cfg.SecretKey, cfg.Algorithm)
	require.NoError(t, err)
	tokens := NewTokenService(store, codec, cfg, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := bus.Subscribe(ctx, "7")
	require.NoError(t, err)
	defer sub.Close()

	first, err := tokens.Issue(ctx, "7", false)
	require.NoError(t, err)

	// 轮换不算挤下线
	_, err = tokens.Rotate(ctx, "7", first.AccessToken, first.RefreshToken, false)
	require.NoError(t, err)

	_, err = tokens.Issue(ctx, "7", false)
	require.NoError(t, err)

	assert.Equal(t, SessionReasonKicked, receiveEvent(t, sub).Reason)
	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected extra event %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}
