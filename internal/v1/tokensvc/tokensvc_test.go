package tokensvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsocial/roomcore/internal/v1/apierr"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	iss := New([]byte("test-secret"))

	token, err := iss.Issue("player-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "player-1", sub)
}

// TestVerifyExpiredTokenFails is the "verify(issue(p)) is Some then None
// after expiry" law (spec §4.2), driven by an injectable clock instead of
// a real sleep.
func TestVerifyExpiredTokenFails(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := issued
	iss := New([]byte("test-secret")).WithLifetime(time.Hour).withClock(func() time.Time { return clock })

	token, err := iss.Issue("player-1")
	require.NoError(t, err)

	sub, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "player-1", sub)

	clock = issued.Add(2 * time.Hour)
	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, apierr.ErrTokenInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	iss := New([]byte("test-secret"))
	_, err := iss.Verify("not-a-token")
	assert.ErrorIs(t, err, apierr.ErrTokenInvalid)
}

func TestVerifyRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	issA := New([]byte("secret-a"))
	issB := New([]byte("secret-b"))

	token, err := issA.Issue("player-1")
	require.NoError(t, err)

	_, err = issB.Verify(token)
	assert.ErrorIs(t, err, apierr.ErrTokenInvalid)
}

func TestIssueDefaultLifetimeIsThirtyDays(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, DefaultLifetime)
}
