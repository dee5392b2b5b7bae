package jwt

import (
	"testing"
	"time"

	apperrors "fbadmin/pkg/errors"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("unit-test-secret", "HS256")
	require.NoError(t, err)
	return m
}

func TestEncodeDecode(t *testing.T) {
	m := newManager(t)

	token, expiresAt, err := m.Encode("42", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

	sub, err := m.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestTokensOfSameSecondDiffer(t *testing.T) {
	m := newManager(t)

	a, _, err := m.Encode("1", time.Hour)
	require.NoError(t, err)
	b, _, err := m.Encode("1", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecodeExpired(t *testing.T) {
	m := newManager(t)

	token, _, err := m.Encode("1", -time.Minute)
	require.NoError(t, err)

	_, err = m.Decode(token)
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenExpired(err))

	sub, err := m.SubjectIgnoringExpiry(token)
	require.NoError(t, err)
	assert.Equal(t, "1", sub)
}

func TestDecodeMalformed(t *testing.T) {
	m := newManager(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := m.Decode(token)
		require.Error(t, err)
		assert.True(t, apperrors.IsToken(err))
		assert.False(t, apperrors.IsTokenExpired(err))
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	token, _, err := newManager(t).Encode("1", time.Hour)
	require.NoError(t, err)

	other, err := NewManager("another-secret", "HS256")
	require.NoError(t, err)

	_, err = other.Decode(token)
	assert.True(t, apperrors.IsToken(err))
	_, err = other.SubjectIgnoringExpiry(token)
	assert.True(t, apperrors.IsToken(err))
}

func TestDecodeRejectsOtherAlgorithm(t *testing.T) {
	m := newManager(t)

	claims := Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims).SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	_, err = m.Decode(token)
	assert.True(t, apperrors.IsToken(err))
}

func TestDecodeRequiresExpiry(t *testing.T) {
	m := newManager(t)

	claims := Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: "1"}}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	_, err = m.Decode(token)
	assert.True(t, apperrors.IsToken(err))
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager("", "HS256")
	assert.Error(t, err)

	_, err = NewManager("secret", "RS256")
	assert.Error(t, err)
}
