package auth

import (
	"fmt"

	"infinite-experiment/kontrollburo/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity attached to an authenticated request, from either
// an operator JWT or a service API key.
type Claims interface {
	SubjectCID() int
	Role() constants.OperatorRole
	Source() string
	CanManageRemovals() bool
}

// OperatorTokenClaims is the JWT payload issued to staff by the membership
// system.
type OperatorTokenClaims struct {
	CID  int                    `json:"cid"`
	Role constants.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}

// JWTClaims wraps a validated operator token.
type JWTClaims struct {
	Token *OperatorTokenClaims
}

func (c *JWTClaims) SubjectCID() int              { return c.Token.CID }
func (c *JWTClaims) Role() constants.OperatorRole { return c.Token.Role }
func (c *JWTClaims) Source() string               { return "JWT" }
func (c *JWTClaims) CanManageRemovals() bool      { return c.Token.Role.CanManageRemovals() }

// APIKeyClaims is the identity of a trusted service caller (the Discord bot,
// the membership system). Service keys act with full removal rights.
type APIKeyClaims struct {
	KeyID string
}

func (c *APIKeyClaims) SubjectCID() int              { return 0 }
func (c *APIKeyClaims) Role() constants.OperatorRole { return constants.RoleService }
func (c *APIKeyClaims) Source() string               { return "API_KEY" }
func (c *APIKeyClaims) CanManageRemovals() bool      { return true }

// ParseOperatorToken validates a bearer token and returns its claims.
func ParseOperatorToken(secret, tokenString string) (*OperatorTokenClaims, error) {
	claims := &OperatorTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.CID == 0 {
		return nil, fmt.Errorf("token carries no subject CID")
	}
	return claims, nil
}
