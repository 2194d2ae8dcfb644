package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Issuer_IssuePair_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-key", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(42, "member")
	require.NoError(t, err)

	access, err := issuer.Parse(pair.Access, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), access.UserID)
	assert.Equal(t, "member", access.Role)
	assert.Equal(t, "42", access.Subject)
	assert.NotEmpty(t, access.ID)

	refresh, err := issuer.Parse(pair.Refresh, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), refresh.UserID)
	assert.NotEqual(t, access.ID, refresh.ID)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func Test_Issuer_Parse_RejectsWrongTokenType(t *testing.T) {
	issuer := NewIssuer("test-key", time.Hour, 24*time.Hour)
	pair, err := issuer.IssuePair(1, "admin")
	require.NoError(t, err)

	_, err = issuer.Parse(pair.Refresh, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse(pair.Access, RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_Issuer_Parse_RejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-key", time.Minute, time.Hour)
	issued := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.IssueAccess(7, "member")
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = issuer.Parse(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_Issuer_Parse_RejectsForeignSignature(t *testing.T) {
	ours := NewIssuer("test-key", time.Hour, time.Hour)
	theirs := NewIssuer("other-key", time.Hour, time.Hour)

	token, err := theirs.IssueAccess(1, "admin")
	require.NoError(t, err)

	_, err = ours.Parse(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_Issuer_Parse_RejectsUnexpectedAlgorithm(t *testing.T) {
	issuer := NewIssuer("test-key", time.Hour, time.Hour)
	claims := Claims{
		UserID:    1,
		Role:      "admin",
		TokenType: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)

	_, err = issuer.Parse(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_Issuer_Parse_RejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-key", time.Hour, time.Hour)

	_, err := issuer.Parse("not-a-jwt", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
