// Package auth issues and verifies credentials and decides who may act on
// which records.
package auth

import (
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/thebrando/brando/apperror"
)

// Identity is the verified caller. Only the email is carried.
type Identity struct {
	Email string `json:"email"`
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens signs HS256 credentials. When a JWKS is attached, tokens signed
// with an asymmetric key are verified against it as well.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	jwks   *keyfunc.JWKS
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// LoadJWKS fetches the key set at url and keeps it refreshed in the
// background until Close is called.
func (t *Tokens) LoadJWKS(url string) error {
	jwks, err := keyfunc.Get(url, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return errors.Wrapf(err, "load jwks %s", url)
	}
	t.jwks = jwks
	return nil
}

func (t *Tokens) Close() {
	if t.jwks != nil {
		t.jwks.EndBackground()
	}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue returns a signed token for email and its expiry.
func (t *Tokens) Issue(email string) (string, time.Time, error) {
	if email == "" {
		return "", time.Time{}, apperror.Invalidf("email is required")
	}
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Verify checks signature and expiry. Any failure is InvalidCredential.
func (t *Tokens) Verify(raw string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, t.key,
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, apperror.Wrap(apperror.InvalidCredential, err, "invalid credential")
	}
	if claims.Email == "" {
		return Identity{}, apperror.InvalidCredentialf("credential carries no email")
	}
	return Identity{Email: claims.Email}, nil
}

func (t *Tokens) key(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		return t.secret, nil
	}
	if t.jwks != nil {
		return t.jwks.Keyfunc(token)
	}
	return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
}
