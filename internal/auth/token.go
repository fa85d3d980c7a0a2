package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

// DefaultTokenTTL is the fixed credential lifetime.
const DefaultTokenTTL = 4 * time.Hour

// Claims is the self-contained credential payload. The permission snapshot
// rides inside the token, so role edits only apply on the next issuance.
type Claims struct {
	Username    string   `json:"username"`
	RoleID      string   `json:"roleId"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies credentials with an HMAC secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec. A zero ttl falls back to DefaultTokenTTL.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs the principal snapshot into a bearer token.
func (c *TokenCodec) Issue(p *rbac.Principal) (string, error) {
	now := c.now()
	claims := Claims{
		Username:    p.Username,
		RoleID:      p.RoleID.String(),
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify decodes a bearer token back into a principal.
func (c *TokenCodec) Verify(raw string) (*rbac.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("verify token: %w", shared.ErrUnauthorized)
	}
	userID, err := shared.ParseID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", shared.ErrUnauthorized)
	}
	roleID, err := shared.ParseID(claims.RoleID)
	if err != nil {
		return nil, fmt.Errorf("token role: %w", shared.ErrUnauthorized)
	}
	principal := &rbac.Principal{
		UserID:      userID,
		Username:    claims.Username,
		RoleID:      roleID,
		Permissions: claims.Permissions,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	return principal, nil
}

var _ rbac.TokenVerifier = (*TokenCodec)(nil)
