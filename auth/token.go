package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Codec issues and validates the signed session tokens handed to clients.
// Tokens are stateless: nothing is kept server-side, and expiry is the only
// termination path. The key is process configuration; rotating it invalidates
// every outstanding session.
type Codec struct {
	key []byte
	now func() time.Time
}

type CodecOption func(*Codec)

// WithClock overrides the codec's clock, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(key []byte, opts ...CodecOption) *Codec {
	c := &Codec{key: key, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a token naming subject, expiring after ttl.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	claims := Claims{
		Username: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key)
}

// Decode verifies the signature and structure but not the expiry.
func (c *Codec) Decode(tokenStr string) (Claims, bool) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, false
	}
	return claims, true
}

// DecodeUnexpired is Decode plus the expiry check. Authorization decisions go
// through here only.
func (c *Codec) DecodeUnexpired(tokenStr string) (Claims, bool) {
	claims, ok := c.Decode(tokenStr)
	if !ok {
		return Claims{}, false
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(c.now()) {
		return Claims{}, false
	}
	return claims, true
}
