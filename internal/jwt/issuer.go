// Package jwt mints and validates the stateless session tokens the API uses
// as bearer credentials. Tokens are HS256-signed with the server secret,
// carry the subject email plus the user's role, and expire after a fixed TTL.
// There is no revocation list; logout is client-side only.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrInvalid covers every rejection: bad signature, malformed structure,
// missing subject, expiry in the past. Callers deliberately cannot tell an
// expired token from a forged one.
var ErrInvalid = errors.New("invalid_token")

// Issuer signs session tokens with a single shared secret.
type Issuer struct {
	Secret    []byte
	AccessTTL time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Issuer{Secret: []byte(secret), AccessTTL: ttl}
}

// Claims is the decoded payload of a session token.
type Claims struct {
	Subject   string // user email
	Role      string
	ExpiresAt time.Time
}

// Issue mints a signed token for the given subject email and role.
func (i *Issuer) Issue(sub, role string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies signature and time claims with a small leeway and returns
// the decoded claims. Any failure is ErrInvalid.
func (i *Issuer) Parse(token string) (*Claims, error) {
	tok, err := jwtv5.Parse(token, func(t *jwtv5.Token) (any, error) {
		return i.Secret, nil
	},
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithLeeway(30*time.Second),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalid
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, ErrInvalid
	}
	role, _ := mc["role"].(string)

	out := &Claims{Subject: sub, Role: role}
	if expf, ok := mc["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(expf), 0)
	}
	return out, nil
}
