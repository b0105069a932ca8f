package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// SessionSigner issues and checks the HS256 tokens sent in the auth_token header
type SessionSigner struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration

	// Overridable in tests
	Now func() time.Time
}

// NewSessionSigner builds a signer out of the jwt.* config keys
func NewSessionSigner() *SessionSigner {
	return &SessionSigner{
		Secret:   []byte(viper.GetString("jwt.secret")),
		Issuer:   viper.GetString("jwt.issuer"),
		Audience: viper.GetString("jwt.audience"),
		TTL:      viper.GetDuration("jwt.ttl"),
		Now:      time.Now,
	}
}

// Issue signs a new token for userID. The returned time is the exp claim.
func (s *SessionSigner) Issue(userID, tokenID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("no user ID provided")
	}

	now := s.Now()
	exp := now.Add(s.TTL)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   userID,
		Issuer:    s.Issuer,
		Audience:  jwt.ClaimStrings{s.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	signed, err := t.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token, %w", err)
	}

	// Round the same way the claim is rounded
	return signed, exp.Truncate(time.Second), nil
}

// Parse checks signature, issuer, audience and expiry and returns the subject
func (s *SessionSigner) Parse(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithAudience(s.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}

		return "", fmt.Errorf("%w, %w", ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
