package audit

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	dErrors "prism/pkg/domain-errors"
)

// ListKV is the subset of the go-redis client the Redis store uses.
type ListKV interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisStore keeps each wallet's events in a capped Redis list of JSON documents.
type RedisStore struct {
	kv     ListKV
	prefix string
	limit  int64
}

func NewRedisStore(kv ListKV) *RedisStore {
	return &RedisStore{kv: kv, prefix: "prism:audit:wallet:", limit: MaxEventsPerWallet}
}

func (s *RedisStore) key(wallet string) string {
	return s.prefix + walletKey(wallet)
}

func (s *RedisStore) Append(ctx context.Context, event Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode audit event")
	}
	key := s.key(event.Wallet)
	if err := s.kv.RPush(ctx, key, doc).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransientNetwork, "append audit event")
	}
	if err := s.kv.LTrim(ctx, key, -s.limit, -1).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransientNetwork, "trim audit events")
	}
	return nil
}

func (s *RedisStore) ListByWallet(ctx context.Context, wallet string) ([]Event, error) {
	docs, err := s.kv.LRange(ctx, s.key(wallet), 0, -1).Result()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransientNetwork, "list audit events")
	}
	events := make([]Event, 0, len(docs))
	for _, doc := range docs {
		var e Event
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode audit event")
		}
		events = append(events, e)
	}
	return events, nil
}
