package agent

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the payload the identity provider signs into a token.
type IdentityClaims struct {
	AccountUUID string `json:"account_uuid"`
	jwt.RegisteredClaims
}

// JWTIdentifier verifies HS256 tokens issued by the identity provider.
// The secret should come from the environment or a secret manager.
type JWTIdentifier struct {
	secret []byte
	issuer string
}

func NewJWTIdentifier(secret, issuer string) *JWTIdentifier {
	return &JWTIdentifier{secret: []byte(secret), issuer: issuer}
}

func (j *JWTIdentifier) Identify(_ context.Context, token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &IdentityClaims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := parsed.Claims.(*IdentityClaims)
	if !ok || !parsed.Valid || claims.AccountUUID == "" {
		return Identity{}, nil
	}
	return Identity{Identified: true, AccountUUID: claims.AccountUUID}, nil
}

// IssueToken creates a signed identification token for an account. It lives
// here so the provider side and the tests share one definition of the claims.
func (j *JWTIdentifier) IssueToken(accountUUID string, validity time.Duration) (string, error) {
	claims := &IdentityClaims{
		AccountUUID: accountUUID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}
