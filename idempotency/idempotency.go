package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "pending"

var ErrInProgress = errors.New("a request with this idempotency key is still in progress")

// Response is what a finished request answered. Replays return it unchanged.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Store remembers requests by their Idempotency-Key. A key is first claimed
// with a pending marker, then replaced by the response once the request
// finishes.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) Store {
	if rdb == nil {
		panic("missing redis client")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return Store{
		rdb: rdb,
		ttl: ttl,
	}
}

func redisKey(scope, key string) string {
	return "idempotency:" + scope + ":" + key
}

// Claim returns nil when the caller now owns the key and has to run the
// request. Otherwise it returns the stored response, or ErrInProgress while
// the first request is still running.
func (s Store) Claim(ctx context.Context, scope, key string) (*Response, error) {
	k := redisKey(scope, key)

	claimed, err := s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claiming idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	val, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("loading idempotency key: %w", err)
	}
	if val == pending {
		return nil, ErrInProgress
	}

	var resp Response
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, fmt.Errorf("unmarshalling stored response: %w", err)
	}
	return &resp, nil
}

func (s Store) Save(ctx context.Context, scope, key string, resp Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshalling response: %w", err)
	}

	if err := s.rdb.Set(ctx, redisKey(scope, key), string(b), s.ttl).Err(); err != nil {
		return fmt.Errorf("saving idempotency key: %w", err)
	}
	return nil
}

// Release drops a claim so the request can be retried with the same key.
func (s Store) Release(ctx context.Context, scope, key string) error {
	if err := s.rdb.Del(ctx, redisKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("releasing idempotency key: %w", err)
	}
	return nil
}
