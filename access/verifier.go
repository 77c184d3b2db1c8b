package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the bearer token payload. Tokens are issued by the identity
// service out of process; we only verify.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// SecretSource resolves the current HS256 signing secret. Implementations
// typically read a secrets manager and may be slow.
type SecretSource interface {
	SigningSecret(ctx context.Context) (string, error)
}

// SecretFunc adapts a function to a SecretSource.
type SecretFunc func(ctx context.Context) (string, error)

// SigningSecret calls f.
func (f SecretFunc) SigningSecret(ctx context.Context) (string, error) { return f(ctx) }

// StaticSecret returns a SecretSource backed by a fixed secret.
func StaticSecret(secret string) SecretSource {
	return SecretFunc(func(context.Context) (string, error) { return secret, nil })
}

// Verifier validates bearer tokens and caches the signing secret after the
// first successful fetch. Safe for concurrent use.
type Verifier struct {
	source SecretSource

	mu     sync.Mutex
	secret string
	loaded bool
}

// NewVerifier creates a Verifier over the given secret source.
func NewVerifier(source SecretSource) *Verifier {
	return &Verifier{source: source}
}

// Invalidate drops the cached secret so the next Verify re-fetches it. Call
// after a secret rotation.
func (v *Verifier) Invalidate() {
	v.mu.Lock()
	v.secret = ""
	v.loaded = false
	v.mu.Unlock()
}

func (v *Verifier) signingSecret(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded {
		return v.secret, nil
	}
	secret, err := v.source.SigningSecret(ctx)
	if err != nil {
		return "", fmt.Errorf("access: fetch signing secret: %w", err)
	}
	v.secret = secret
	v.loaded = true
	return secret, nil
}

// Verify parses and validates a bearer token and maps its claims to a
// Principal. Expired, malformed, or wrongly-signed tokens all report
// ErrUnauthenticated; an unknown role claim does too, so a stale token
// from an old role scheme cannot slip through.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Principal, error) {
	secret, err := v.signingSecret(ctx)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	role := Role(claims.Role)
	if !role.Valid() {
		return nil, ErrUnauthenticated
	}
	if role != RoleSuperAdmin && claims.TenantID == "" {
		return nil, ErrUnauthenticated
	}

	return &Principal{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Role:     role,
		TenantID: claims.TenantID,
	}, nil
}

// IssueToken signs a token for the given principal. Exists for tests and
// local development; production tokens come from the identity service.
func IssueToken(secret string, p *Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "canopy",
		},
		TenantID: p.TenantID,
		Email:    p.Email,
		Role:     string(p.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("access: sign token: %w", err)
	}
	return signed, nil
}
