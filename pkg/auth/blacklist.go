package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jordanlanch/fieldsales/pkg/cache"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist manages revoked JWT tokens
type TokenBlacklist struct {
	cache *cache.Client
}

// NewTokenBlacklist creates a new token blacklist
func NewTokenBlacklist(cache *cache.Client) *TokenBlacklist {
	return &TokenBlacklist{
		cache: cache,
	}
}

// Add revokes token until expiration passes. A token that has already
// expired needs no entry.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiration time.Duration) error {
	if expiration <= 0 {
		return nil
	}
	return b.cache.Set(ctx, blacklistPrefix+hashToken(token), []byte("revoked"), expiration)
}

// IsBlacklisted checks if a token is blacklisted
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return b.cache.Exists(ctx, blacklistPrefix+hashToken(token))
}

// hashToken keeps raw tokens out of Redis
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
