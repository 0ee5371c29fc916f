package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plugfox/helpdesk-server/internal/model"
)

var (
	ErrEmptySecret  = errors.New("auth: empty signing secret")
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

const issuer = "helpdesk"

// Identity is the verified caller of a request.
type Identity struct {
	UserID model.UserID
	Role   model.Role
}

// IsModerator reports whether the caller may act on every ticket.
func (i Identity) IsModerator() bool {
	return i.Role.CanModerate()
}

// Claims - JWT payload of an access token.
type Claims struct {
	UserID model.UserID `json:"user_id"`
	Role   model.Role   `json:"role"`
	jwt.RegisteredClaims
}

// Provider issues and verifies HS256 access tokens.
type Provider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewProvider creates a token provider. Tokens expire after ttl.
func NewProvider(secret string, ttl time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Provider{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token carrying the user's id and role.
func (p *Provider) Issue(user *model.User) (string, error) {
	now := p.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.ToString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of the token and returns its identity.
func (p *Provider) Verify(token string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (interface{}, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

type contextKey struct{}

// WithIdentity stores the verified caller in the context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// FromContext returns the caller stored by WithIdentity.
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(*Identity)
	return identity, ok && identity != nil
}
