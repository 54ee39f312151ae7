package transaction

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix = "watx:"
	recordIndexKey  = "watx:ids"
)

// MemoryStore keeps transaction records in-process. Used by tests and
// single-instance deployments without redis.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Put(_ context.Context, record Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, transactionID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

// RedisStore keeps records in a shared redis with a bounded TTL, so another
// instance (or a restart) can still find transactions that were in flight.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Put(ctx context.Context, record Record, ttl time.Duration) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, recordKeyPrefix+record.ID, encoded, ttl)
	pipe.SAdd(ctx, recordIndexKey, record.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Remove(ctx context.Context, transactionID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, recordKeyPrefix+transactionID)
	pipe.SRem(ctx, recordIndexKey, transactionID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	ids, err := s.rdb.SMembers(ctx, recordIndexKey).Result()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.Get(ctx, recordKeyPrefix+id).Result()
		if err == redis.Nil {
			// Record expired; drop the dangling index entry.
			_ = s.rdb.SRem(ctx, recordIndexKey, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}

		var record Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			_ = s.rdb.SRem(ctx, recordIndexKey, id).Err()
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}
