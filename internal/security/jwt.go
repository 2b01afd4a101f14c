package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single failure surfaced by Verify. Malformed
// structure, signature mismatch, wrong token type and expiry all collapse
// into it so the HTTP boundary cannot act as an oracle for why a token was
// rejected.
var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	TokenType string `json:"token_type"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) MemberID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// TokenCodec signs and verifies short-lived access tokens with a symmetric
// key. The secret is injected at construction; nothing in this package reads
// process-wide configuration.
type TokenCodec struct {
	issuer string
	secret []byte
}

func NewTokenCodec(issuer, secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token codec: signing secret must be configured")
	}
	return &TokenCodec{issuer: issuer, secret: []byte(secret)}, nil
}

func (c *TokenCodec) Sign(memberID uint, role string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(ttl)
	claims := AccessClaims{
		TokenType: "access",
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			// iat/exp only have second granularity, so without a jti two
			// tokens minted in the same second would be byte-identical.
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   fmt.Sprintf("%d", memberID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (c *TokenCodec) Verify(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
