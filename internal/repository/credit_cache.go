package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/credit-engine/internal/domain"
)

// setIfCurrentScript writes the list only while the version key still holds ARGV[1].
// A missing version key counts as 0.
const setIfCurrentScript = `
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`

type redisCreditCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCreditCache caches credit lists as JSON documents with the given TTL.
func NewRedisCreditCache(client redis.Cmdable, ttl time.Duration) CreditCache {
	return &redisCreditCache{client: client, ttl: ttl}
}

func creditListKey(userID uuid.UUID) string {
	return fmt.Sprintf("credits:user:%s", userID)
}

func creditVersionKey(userID uuid.UUID) string {
	return fmt.Sprintf("credits:user:%s:version", userID)
}

func (c *redisCreditCache) GetCredits(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, bool, error) {
	raw, err := c.client.Get(ctx, creditListKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var credits []*domain.Credit
	if err := json.Unmarshal([]byte(raw), &credits); err != nil {
		return nil, false, fmt.Errorf("decode cached credits: %w", err)
	}
	return credits, true, nil
}

func (c *redisCreditCache) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	version, err := c.client.Get(ctx, creditVersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (c *redisCreditCache) SetCredits(ctx context.Context, userID uuid.UUID, version int64, credits []*domain.Credit) error {
	payload, err := json.Marshal(credits)
	if err != nil {
		return fmt.Errorf("encode credits: %w", err)
	}

	return c.client.Eval(ctx, setIfCurrentScript,
		[]string{creditListKey(userID), creditVersionKey(userID)},
		strconv.FormatInt(version, 10), string(payload), c.ttl.Milliseconds(),
	).Err()
}

// Invalidate bumps the version before dropping the list, so a fill that read the
// store before the write can no longer land.
func (c *redisCreditCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Incr(ctx, creditVersionKey(userID)).Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, creditListKey(userID)).Err()
}

// MemoryCreditCache is the in-process CreditCache used with the in-memory store.
type MemoryCreditCache struct {
	mu       sync.Mutex
	lists    map[uuid.UUID][]domain.Credit
	versions map[uuid.UUID]int64
}

func NewMemoryCreditCache() *MemoryCreditCache {
	return &MemoryCreditCache{
		lists:    make(map[uuid.UUID][]domain.Credit),
		versions: make(map[uuid.UUID]int64),
	}
}

func (c *MemoryCreditCache) GetCredits(_ context.Context, userID uuid.UUID) ([]*domain.Credit, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, ok := c.lists[userID]
	if !ok {
		return nil, false, nil
	}
	credits := make([]*domain.Credit, 0, len(list))
	for i := range list {
		credit := list[i]
		credits = append(credits, &credit)
	}
	return credits, true, nil
}

func (c *MemoryCreditCache) Version(_ context.Context, userID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[userID], nil
}

func (c *MemoryCreditCache) SetCredits(_ context.Context, userID uuid.UUID, version int64, credits []*domain.Credit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[userID] != version {
		return nil
	}
	list := make([]domain.Credit, 0, len(credits))
	for _, credit := range credits {
		list = append(list, *credit)
	}
	c.lists[userID] = list
	return nil
}

func (c *MemoryCreditCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions[userID]++
	delete(c.lists, userID)
	return nil
}

type noopCreditCache struct{}

// NewNoopCreditCache is used when Redis is disabled.
func NewNoopCreditCache() CreditCache {
	return noopCreditCache{}
}

func (noopCreditCache) GetCredits(context.Context, uuid.UUID) ([]*domain.Credit, bool, error) {
	return nil, false, nil
}

func (noopCreditCache) Version(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (noopCreditCache) SetCredits(context.Context, uuid.UUID, int64, []*domain.Credit) error {
	return nil
}

func (noopCreditCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}
