// Package auth issues and verifies the tokens embedded in contract signing
// links.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/rentals/internal/model"
)

var ErrInvalidToken = errors.New("invalid signing token")

type SigningClaims struct {
	ContractID uuid.UUID        `json:"contract_id"`
	Role       model.SignerRole `json:"role"`
	jwt.RegisteredClaims
}

type SigningTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigningTokens(secret string, ttl time.Duration) *SigningTokens {
	return &SigningTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token that lets its holder sign contractID as role.
func (s *SigningTokens) Issue(contractID uuid.UUID, role model.SignerRole) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := SigningClaims{
		ContractID: contractID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   contractID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *SigningTokens) Parse(tokenString string) (*SigningClaims, error) {
	claims := &SigningClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ContractID == uuid.Nil || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing contract or role", ErrInvalidToken)
	}
	return claims, nil
}
