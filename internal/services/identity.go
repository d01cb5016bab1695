package services

import (
	"context"

	"go-task-manager/internal/models"
)

type identityKey struct{}

// WithIdentity は検証済みのクレームをリクエストコンテキストに結び付けます。
func WithIdentity(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, identityKey{}, claims)
}

// IdentityFrom はコンテキストに結び付けられたクレームを返します。
func IdentityFrom(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(identityKey{}).(*models.TokenClaims)
	return claims, ok && claims != nil
}
