package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/transport-dispatch/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService("", 0)
	require.NoError(t, err)
	return service
}

func dispatcher() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "dispatcher1",
		Role:     models.RoleDispatcher,
	}
}

func TestNewService(t *testing.T) {
	service, err := NewService("", 0)
	assert.NoError(t, err)
	assert.True(t, service.UsesDefaultSecret())
	assert.Equal(t, 24*time.Hour, service.tokenExp)

	service, err = NewService("a-much-longer-production-secret", time.Hour)
	assert.NoError(t, err)
	assert.False(t, service.UsesDefaultSecret())
	assert.Equal(t, time.Hour, service.tokenExp)

	_, err = NewService("short", time.Hour)
	assert.Error(t, err)
}

func TestService_HashPassword(t *testing.T) {
	service := newTestService(t)

	password := "testpassword123"
	hash, err := service.HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
	assert.True(t, service.CheckPassword(password, hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService(t)
	user := dispatcher()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, models.RoleDispatcher, claims.Role)

	// Bearer prefix is accepted
	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_Rejected(t *testing.T) {
	service := newTestService(t)
	other, err := NewService("another-secret-of-enough-length", time.Hour)
	require.NoError(t, err)

	sign := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.jwtSecret)
		require.NoError(t, err)
		return token
	}

	foreign, err := other.GenerateToken(dispatcher())
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id": "1", "username": "u", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(service.jwtSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"foreign secret", foreign, ErrInvalidToken},
		{"other signing method", hs512, ErrInvalidToken},
		{"no expiry", sign(jwt.MapClaims{"user_id": "1", "username": "u", "role": "admin"}), ErrInvalidToken},
		{"expired", sign(jwt.MapClaims{"user_id": "1", "username": "u", "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}), ErrExpiredToken},
		{"unknown role", sign(jwt.MapClaims{"user_id": "1", "username": "u", "role": "pilot", "exp": time.Now().Add(time.Hour).Unix()}), ErrInvalidToken},
		{"missing user", sign(jwt.MapClaims{"username": "u", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(tt.token)
			assert.Equal(t, tt.want, err)
		})
	}
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newTestService(t)

	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	for _, header := range []string{"", "InvalidFormat", "Bearer "} {
		_, err = service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, "header %q", header)
	}

	extracted, err = service.ExtractTokenFromHeader("bearer lower-case")
	assert.NoError(t, err)
	assert.Equal(t, "lower-case", extracted)
}

func TestService_Validators(t *testing.T) {
	service := newTestService(t)

	assert.NoError(t, service.ValidatePassword("validpassword123"))
	assert.ErrorContains(t, service.ValidatePassword("short"), "at least 8 characters")

	assert.NoError(t, service.ValidateEmail("test@example.com"))
	for _, email := range []string{"testexample.com", "test@", "test"} {
		assert.ErrorContains(t, service.ValidateEmail(email), "invalid email format")
	}

	assert.NoError(t, service.ValidateUsername("dispatcher1"))
	assert.ErrorContains(t, service.ValidateUsername("ab"), "at least 3 characters")
	assert.ErrorContains(t, service.ValidateUsername(strings.Repeat("a", 51)), "less than 50 characters")
	assert.ErrorContains(t, service.ValidateUsername("night shift"), "invalid character")
	assert.ErrorContains(t, service.ValidateEmail("Dispatch <ops@example.com>"), "invalid email format")
}

func TestService_GenerateRefreshToken(t *testing.T) {
	service := newTestService(t)

	token, err := service.GenerateRefreshToken()
	assert.NoError(t, err)
	assert.Len(t, token, 44) // base64 of 32 bytes
}

func TestService_TokenExpiration(t *testing.T) {
	service, err := NewService("", 30*time.Minute)
	require.NoError(t, err)

	token, _ := service.GenerateToken(dispatcher())
	claims, err := service.ValidateToken(token)
	require.NoError(t, err)

	now := time.Now().Unix()
	assert.Greater(t, claims.Exp, now)
	assert.LessOrEqual(t, claims.Exp, now+int64((30*time.Minute).Seconds())+1)
}

func TestService_ClockDrivesExpiry(t *testing.T) {
	service, err := NewService("", time.Hour)
	require.NoError(t, err)
	issued := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(dispatcher())
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.Exp)

	service.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_GenerateToken_RegisteredClaims(t *testing.T) {
	service := newTestService(t)
	user := dispatcher()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	var claims tokenClaims
	_, err = service.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return service.jwtSecret, nil
	})
	require.NoError(t, err)
	assert.Equal(t, issuer, claims.Issuer)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}
