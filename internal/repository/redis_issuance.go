package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/creatorlane/discount-agent/internal/domain"
)

const redisIssuancePrefix = "issuance:"

// RedisIssuanceRepository stores issuances as "creator|code" values under
// per-key entries, using SET NX as the atomic first-wins write.
type RedisIssuanceRepository struct {
	client *redis.Client
}

// NewRedisIssuanceRepository instantiates the repository.
func NewRedisIssuanceRepository(client *redis.Client) *RedisIssuanceRepository {
	return &RedisIssuanceRepository{client: client}
}

func redisIssuanceKey(platform domain.Platform, userID string) string {
	return redisIssuancePrefix + string(platform) + ":" + userID
}

// Lookup fetches the issuance for the key.
func (r *RedisIssuanceRepository) Lookup(ctx context.Context, platform domain.Platform, userID string) (*domain.Issuance, error) {
	val, err := r.client.Get(ctx, redisIssuanceKey(platform, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIssuance(platform, userID, val)
}

// Record writes first-wins via SET NX and reads back the holder.
func (r *RedisIssuanceRepository) Record(ctx context.Context, issuance domain.Issuance) (*domain.Issuance, error) {
	key := redisIssuanceKey(issuance.Platform, issuance.UserID)
	value := issuance.CreatorID + "|" + issuance.Code

	set, err := r.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return nil, err
	}
	if set {
		out := issuance
		return &out, nil
	}

	existing, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	return decodeIssuance(issuance.Platform, issuance.UserID, existing)
}

// Clear removes all issuance keys (demo/test only).
func (r *RedisIssuanceRepository) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisIssuancePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func decodeIssuance(platform domain.Platform, userID, raw string) (*domain.Issuance, error) {
	creator, code, ok := strings.Cut(raw, "|")
	if !ok {
		return nil, fmt.Errorf("malformed issuance entry %q", raw)
	}
	return &domain.Issuance{Platform: platform, UserID: userID, CreatorID: creator, Code: code}, nil
}
