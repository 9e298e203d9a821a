// Package auth encodes and verifies signed session credentials. It is
// stateless: revocation is layered on top by the caller.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// Subject identifies whom a credential was issued to.
type Subject struct {
	Email  string `json:"email"`
	UserID string `json:"user_uid"`
}

// Claims are the JWT claims of an access or refresh credential.
type Claims struct {
	jwt.RegisteredClaims
	User    Subject `json:"user"`
	Refresh bool    `json:"refresh"`
}

func (c *Claims) Kind() Kind {
	if c.Refresh {
		return KindRefresh
	}
	return KindAccess
}

// RemainingLifetime is the time until expiry, or zero if already expired.
func (c *Claims) RemainingLifetime(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Time.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Codec issues and verifies HS256 credentials.
type Codec struct {
	secret []byte
	clock  timex.Clock
}

func NewCodec(secret []byte, clock timex.Clock) *Codec {
	if clock == nil {
		clock = timex.SystemClock()
	}
	return &Codec{secret: secret, clock: clock}
}

// Issue signs a new credential of the given kind for subject, valid for ttl.
func (c *Codec) Issue(subject Subject, kind Kind, ttl time.Duration) (string, *Claims, error) {
	now := c.clock.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		User:    subject,
		Refresh: kind == KindRefresh,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Verify checks signature and expiry. It fails with
// common.ErrCredentialExpired past exp and common.ErrMalformedCredential for
// anything else.
func (c *Codec) Verify(token string) (*Claims, error) {
	return c.parse(token, jwt.WithTimeFunc(c.clock.Now), jwt.WithExpirationRequired())
}

// VerifyIgnoringExpiry checks the signature only.
func (c *Codec) VerifyIgnoringExpiry(token string) (*Claims, error) {
	return c.parse(token, jwt.WithoutClaimsValidation())
}

func (c *Codec) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))...)

	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrCredentialExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedCredential, err)
	}
	if !parsed.Valid {
		return nil, common.ErrMalformedCredential
	}
	if claims.ID == "" || claims.User.UserID == "" {
		return nil, fmt.Errorf("%w: missing jti or subject", common.ErrMalformedCredential)
	}

	return claims, nil
}
