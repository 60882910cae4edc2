package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
)

func testIdentity() entity.Identity {
	return entity.Identity{UserID: "user-1", Email: "a@x.com", Role: entity.RoleUser, Verified: true}
}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	h := newHarness(t)

	tok, exp, err := h.issuer.IssueAccessToken(testIdentity())
	require.NoError(t, err)
	assert.WithinDuration(t, h.clock.Now().Add(15*time.Minute), exp, time.Second)

	claims, err := h.issuer.Verify(tok, helpers.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)
	assert.True(t, claims.Verified)

	_, err = h.issuer.Verify(tok, helpers.RefreshToken)
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)

	h.clock.Advance(16 * time.Minute)
	_, err = h.issuer.Verify(tok, helpers.AccessToken)
	assert.ErrorIs(t, err, helpers.ErrTokenExpired)
}

func TestTokenIssuer_RefreshIsReusedWhileLive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, exp1, err := h.issuer.IssueRefreshToken(ctx, testIdentity())
	require.NoError(t, err)
	h.clock.Advance(time.Hour)
	second, exp2, err := h.issuer.IssueRefreshToken(ctx, testIdentity())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, exp1, exp2)
	assert.Equal(t, 1, h.tokens.count())

	h.clock.Advance(7 * 24 * time.Hour)
	third, _, err := h.issuer.IssueRefreshToken(ctx, testIdentity())
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, 1, h.tokens.count())
}

func TestTokenIssuer_ConcurrentRefreshConverges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	got := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _, errs[i] = h.issuer.IssueRefreshToken(ctx, testIdentity())
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, got[0], got[i])
	}
	assert.Equal(t, 1, h.tokens.count())

	rec, err := h.tokens.FindLive(ctx, "user-1", entity.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, got[0], rec.Value)
}

func TestTokenIssuer_MatchRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.issuer.MatchRefresh(ctx, "user-1", "anything")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	tok, _, err := h.issuer.IssueRefreshToken(ctx, testIdentity())
	require.NoError(t, err)
	assert.NoError(t, h.issuer.MatchRefresh(ctx, "user-1", tok))
	assert.True(t, errors.Is(h.issuer.MatchRefresh(ctx, "user-1", ""), apperror.ErrUnauthorized))
	assert.True(t, errors.Is(h.issuer.MatchRefresh(ctx, "user-2", tok), apperror.ErrUnauthorized))

	require.NoError(t, h.issuer.RevokeRefresh(ctx, "user-1"))
	assert.True(t, errors.Is(h.issuer.MatchRefresh(ctx, "user-1", tok), apperror.ErrUnauthorized))
}

func TestTokenIssuer_ResetStoresDigest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tok, exp, err := h.issuer.IssueResetToken(ctx, testIdentity())
	require.NoError(t, err)
	assert.WithinDuration(t, h.clock.Now().Add(30*time.Minute), exp, time.Second)

	rec, err := h.tokens.FindLive(ctx, "user-1", entity.TokenReset)
	require.NoError(t, err)
	assert.Equal(t, HashToken(tok), rec.Value)
	assert.Len(t, rec.Value, 64)

	assert.NoError(t, h.issuer.MatchReset(ctx, "user-1", tok))
	assert.True(t, errors.Is(h.issuer.MatchReset(ctx, "user-1", rec.Value), apperror.ErrUnauthorized))

	require.NoError(t, h.issuer.RevokeReset(ctx, "user-1"))
	assert.True(t, errors.Is(h.issuer.MatchReset(ctx, "user-1", tok), apperror.ErrUnauthorized))
}

func TestTokenIssuer_MissingSecret(t *testing.T) {
	h := newHarness(t)
	jm := helpers.NewJWTManager(helpers.JWTOptions{AccessSecret: "a", Issuer: "i", Audience: "x"})
	issuer := NewTokenIssuer(jm, h.tokens)

	_, _, err := issuer.IssueRefreshToken(context.Background(), testIdentity())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrGeneration))
	assert.Equal(t, 0, h.tokens.count())
}
