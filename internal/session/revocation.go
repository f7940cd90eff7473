package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "blacklist:"

// RevocationStore remembers logged-out token IDs until the tokens expire.
// A store without a client accepts every token and drops revocations.
type RevocationStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationStore returns a store backed by client, which may be nil.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

// Enabled reports whether revocations are persisted.
func (s *RevocationStore) Enabled() bool {
	return s != nil && s.client != nil
}

// Revoke marks jti as unusable until expiresAt.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if !s.Enabled() || jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !s.Enabled() || jti == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
