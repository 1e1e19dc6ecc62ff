package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// RevocationStore keeps logged-out session selectors in Redis until the
// cookie they were minted into expires on its own.
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func (s *RevocationStore) RevokeSession(ctx context.Context, selector string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+selector, "revoked", ttl).Err()
}

func (s *RevocationStore) IsSessionRevoked(ctx context.Context, selector string) (bool, error) {
	result, err := s.client.Get(ctx, revokedKeyPrefix+selector).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return result == "revoked", nil
}
