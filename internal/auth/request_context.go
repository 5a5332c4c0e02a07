package auth

import (
	"context"
)

type contextKey string

var claimsKey contextKey = "request_claims"

func SetClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func GetClaims(ctx context.Context) Claims {
	val := ctx.Value(claimsKey)
	if claims, ok := val.(Claims); ok {
		return claims
	}
	return nil
}
