package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IssueToken signs an HS256 token for subject acting as role.
func IssueToken(key []byte, subject uuid.UUID, role, issuer, audience string, ttl time.Duration, now time.Time) (string, error) {
	switch role {
	case RoleProfessional, RoleClient, RoleAdmin:
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
	if len(key) == 0 {
		return "", fmt.Errorf("signing key is required")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
