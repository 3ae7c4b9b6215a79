package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// positionTTL keeps cached positions around long enough to bridge the
// platform snapshot's lag, but not forever: settled markets age out.
const positionTTL = 7 * 24 * time.Hour

// PositionCache implements domain.PositionCache using Redis sets.
//
// Key schema:
//
//	positions:{account}:{kind} - set of position ids
type PositionCache struct {
	rdb *redis.Client
}

// NewPositionCache creates a PositionCache backed by the given Client.
func NewPositionCache(c *Client) *PositionCache {
	return &PositionCache{rdb: c.Underlying()}
}

func positionKey(account string, kind domain.PositionKind) string {
	return "positions:" + account + ":" + string(kind)
}

// Seed returns every cached position id for the account and kind. A missing
// key is an empty seed, not an error.
func (pc *PositionCache) Seed(ctx context.Context, account string, kind domain.PositionKind) ([]int64, error) {
	members, err := pc.rdb.SMembers(ctx, positionKey(account, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: seed positions %s/%s: %w", account, kind, err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			// A corrupt member is skipped rather than poisoning the seed.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Add records one confirmed position and refreshes the key's TTL.
func (pc *PositionCache) Add(ctx context.Context, account string, kind domain.PositionKind, id int64) error {
	key := positionKey(account, kind)

	pipe := pc.rdb.TxPipeline()
	pipe.SAdd(ctx, key, strconv.FormatInt(id, 10))
	pipe.Expire(ctx, key, positionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: add position %s/%s/%d: %w", account, kind, id, err)
	}
	return nil
}
