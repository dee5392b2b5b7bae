package services

import (
	"context"
	"testing"
	"time"

	apperrors "fbadmin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAccessTokenSingleLoginEvictsPrevious(t *testing.T) {
	tokens, mr := setupTokenService(t, nil)
	ctx := context.Background()

	first, _, err := tokens.IssueAccessToken(ctx, "1", false)
	require.NoError(t, err)
	assert.True(t, mr.Exists("fbb:token:1:"+first))

	second, _, err := tokens.IssueAccessToken(ctx, "1", false)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.False(t, mr.Exists("fbb:token:1:"+first))
	assert.True(t, mr.Exists("fbb:token:1:"+second))

	_, err = tokens.ValidateAccess(ctx, first)
	assert.True(t, apperrors.IsToken(err))
}

func TestIssueStoresTokenWithTTL(t *testing.T) {
	tokens, mr := setupTokenService(t, nil)

	pair, err := tokens.Issue(context.Background(), "7", false)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, mr.TTL("fbb:token:7:"+pair.AccessToken))
	assert.Equal(t, 24*time.Hour, mr.TTL("fbb:refresh_token:7:"+pair.RefreshToken))

	value, err := mr.Get("fbb:token:7:" + pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, value)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.AccessTokenExpireTime, 5*time.Second)
}

func TestMultiLoginSessionsCoexist(t *testing.T) {
	tokens, _ := setupTokenService(t, nil)
	ctx := context.Background()

	var pairs []*TokenPair
	for i := 0; i < 3; i++ {
		pair, err := tokens.Issue(ctx, "3", true)
		require.NoError(t, err)
		pairs = append(pairs, pair)
	}

	n, err := tokens.Sessions(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, tokens.RevokeOne(ctx, "3", pairs[0].AccessToken, pairs[0].RefreshToken))

	_, err = tokens.ValidateAccess(ctx, pairs[0].AccessToken)
	assert.True(t, apperrors.IsToken(err))
	for _, pair := range pairs[1:] {
		sub, err := tokens.ValidateAccess(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "3", sub)
	}
}

func TestRotateIsForwardOnly(t *testing.T) {
	tokens, mr := setupTokenService(t, nil)
	ctx := context.Background()

	pair, err := tokens.Issue(ctx, "5", false)
	require.NoError(t, err)

	next, err := tokens.Rotate(ctx, "5", pair.AccessToken, pair.RefreshToken, false)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.False(t, mr.Exists("fbb:refresh_token:5:"+pair.RefreshToken))
	assert.False(t, mr.Exists("fbb:token:5:"+pair.AccessToken))
	assert.True(t, mr.Exists("fbb:refresh_token:5:"+next.RefreshToken))

	_, err = tokens.Rotate(ctx, "5", next.AccessToken, pair.RefreshToken, false)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindToken, appErr.Kind)
	assert.Equal(t, apperrors.TokenMismatch, appErr.Reason)

	_, err = tokens.Rotate(ctx, "5", next.AccessToken, next.RefreshToken, false)
	assert.NoError(t, err)
}

func TestRotateMultiLoginKeepsOtherSessions(t *testing.T) {
	tokens, _ := setupTokenService(t, nil)
	ctx := context.Background()

	a, err := tokens.Issue(ctx, "8", true)
	require.NoError(t, err)
	b, err := tokens.Issue(ctx, "8", true)
	require.NoError(t, err)

	_, err = tokens.Rotate(ctx, "8", a.AccessToken, a.RefreshToken, true)
	require.NoError(t, err)

	_, err = tokens.ValidateAccess(ctx, b.AccessToken)
	assert.NoError(t, err)
	_, err = tokens.Rotate(ctx, "8", b.AccessToken, b.RefreshToken, true)
	assert.NoError(t, err)
}

func TestRotateRejectsMissingRefreshToken(t *testing.T) {
	tokens, _ := setupTokenService(t, nil)

	_, err := tokens.Rotate(context.Background(), "1", "", "", false)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.TokenMissing, appErr.Reason)
}

func TestRevokeAllOnlyTouchesSubject(t *testing.T) {
	tokens, _ := setupTokenService(t, nil)
	ctx := context.Background()

	one, err := tokens.Issue(ctx, "1", true)
	require.NoError(t, err)
	twelve, err := tokens.Issue(ctx, "12", true)
	require.NoError(t, err)

	require.NoError(t, tokens.RevokeAll(ctx, "1"))

	_, err = tokens.ValidateAccess(ctx, one.AccessToken)
	assert.True(t, apperrors.IsToken(err))
	_, err = tokens.Rotate(ctx, "1", "", one.RefreshToken, true)
	assert.True(t, apperrors.IsToken(err))

	sub, err := tokens.ValidateAccess(ctx, twelve.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "12", sub)
}

func TestValidateAccessRejectsBadTokens(t *testing.T) {
	tokens, _ := setupTokenService(t, nil)
	ctx := context.Background()

	_, err := tokens.ValidateAccess(ctx, "")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.TokenMissing, appErr.Reason)

	_, err = tokens.ValidateAccess(ctx, "not-a-jwt")
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.TokenInvalid, appErr.Reason)
}

func TestSessionNotifications(t *testing.T) {
	notifier := &recordingNotifier{}
	tokens, _ := setupTokenService(t, notifier)
	ctx := context.Background()

	first, err := tokens.Issue(ctx, "2", false)
	require.NoError(t, err)
	assert.Empty(t, notifier.reasons())

	_, err = tokens.Rotate(ctx, "2", first.AccessToken, first.RefreshToken, false)
	require.NoError(t, err)
	assert.Empty(t, notifier.reasons(), "rotation is not an eviction")

	_, err = tokens.Issue(ctx, "2", false)
	require.NoError(t, err)
	assert.Equal(t, []string{SessionReasonKicked}, notifier.reasons())

	require.NoError(t, tokens.RevokeAll(ctx, "2"))
	assert.Equal(t, []string{SessionReasonKicked, SessionReasonLogout}, notifier.reasons())
}
