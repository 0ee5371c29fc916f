package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	_, err := NewProvider("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)

	provider, err := NewProvider("secret", 0)
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, provider.ttl)
}

func TestIssueVerify(t *testing.T) {
	provider, err := NewProvider("secret", time.Hour)
	require.NoError(t, err)

	token, err := provider.Issue(&model.User{ID: 42, Role: model.RoleModerator})
	require.NoError(t, err)

	identity, err := provider.Verify(token)
	require.NoError(t, err)
	require.Equal(t, model.UserID(42), identity.UserID)
	require.Equal(t, model.RoleModerator, identity.Role)
	require.True(t, identity.IsModerator())
}

func TestVerifyRejects(t *testing.T) {
	provider, err := NewProvider("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewProvider("another secret", time.Hour)
	require.NoError(t, err)

	valid, err := provider.Issue(&model.User{ID: 1, Role: model.RoleUser})
	require.NoError(t, err)

	foreign, err := other.Issue(&model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)

	expired := func() string {
		old := &Provider{secret: provider.secret, ttl: time.Minute, now: func() time.Time { return time.Now().Add(-time.Hour) }}
		token, err := old.Issue(&model.User{ID: 1, Role: model.RoleUser})
		require.NoError(t, err)
		return token
	}()

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		Role:   model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	unknownRole, err := provider.Issue(&model.User{ID: 1, Role: "root"})
	require.NoError(t, err)

	testcases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"tampered", valid + "x"},
		{"foreign secret", foreign},
		{"expired", expired},
		{"alg none", unsigned},
		{"unknown role", unknownRole},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := provider.Verify(tc.token)
			require.Nil(t, identity)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{UserID: 7, Role: model.RoleUser})
	identity, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, model.UserID(7), identity.UserID)
	require.False(t, identity.IsModerator())
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("red pill")
	require.NoError(t, err)
	require.NotEqual(t, "red pill", hash)

	require.True(t, ComparePassword(hash, "red pill"))
	require.False(t, ComparePassword(hash, "blue pill"))
	require.False(t, ComparePassword("", "red pill"))
}
