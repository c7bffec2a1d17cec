package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-transcript-api/internal/models"
	appErrors "github.com/noah-isme/sma-transcript-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, expires, err := svc.Issue("user-1", models.RoleRegistrar)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleRegistrar, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret", time.Minute)

	_, _, err := svc.Issue("user-1", models.UserRole("JANITOR"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	other, _, err := NewTokenService("other", time.Minute).Issue("user-1", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	token, _, err := svc.Issue("user-1", models.RoleAdmin)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "x", Role: models.RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
