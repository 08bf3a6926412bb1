package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
)

// RedisStore implements Store over a Redis connection.
//
// Layout: one JSON record per key "history:<session>:<id>" with its own
// TTL, and a list "history:<session>:list" of ids, newest-first. Index
// truncation drops tail ids without deleting the record keys they point
// to; unreachable records simply run out their TTL. That is a deliberate
// trade-off of storage for simpler, single-pass appends.
type RedisStore struct {
	client        *redis.Client
	ttl           time.Duration
	maxPerSession int
}

// Options configure the Redis history store.
type Options struct {
	Addr          string
	DB            int
	TTL           time.Duration
	MaxPerSession int
	Timeout       time.Duration
}

// NewRedis creates a history store. A failed initial ping is logged but
// not fatal: the client reconnects lazily and every operation already
// degrades gracefully.
func NewRedis(ctx context.Context, opts Options) *RedisStore {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis unreachable at startup, history will degrade until it recovers", "addr", opts.Addr, "error", err)
	} else {
		slog.Info("Connected to Redis", "addr", opts.Addr, "db", opts.DB)
	}

	return &RedisStore{
		client:        client,
		ttl:           opts.TTL,
		maxPerSession: opts.MaxPerSession,
	}
}

// NewRedisWithClient wraps an existing client; used by tests.
func NewRedisWithClient(client *redis.Client, ttl time.Duration, maxPerSession int) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, maxPerSession: maxPerSession}
}

func recordKey(sessionID, recordID string) string {
	return "history:" + sessionID + ":" + recordID
}

func listKey(sessionID string) string {
	return "history:" + sessionID + ":list"
}

// Append writes the record and updates the session index.
func (s *RedisStore) Append(ctx context.Context, sessionID string, rec domain.HistoryRecord) (string, error) {
	rec.ID = uuid.NewString()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal history record: %w", err)
	}

	if err := s.client.Set(ctx, recordKey(sessionID, rec.ID), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: write record: %v", ErrUnavailable, err)
	}

	// Index mutation runs as one pipeline so truncation cannot be lost
	// between the push and the trim.
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, listKey(sessionID), rec.ID)
	pipe.Expire(ctx, listKey(sessionID), s.ttl)
	pipe.LTrim(ctx, listKey(sessionID), 0, int64(s.maxPerSession)-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("%w: update session index: %v", ErrUnavailable, err)
	}

	return rec.ID, nil
}

// List returns up to limit records for the session, newest-first.
func (s *RedisStore) List(ctx context.Context, sessionID string, limit int) ([]domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = s.maxPerSession
	}

	ids, err := s.client.LRange(ctx, listKey(sessionID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read session index: %v", ErrUnavailable, err)
	}

	records := make([]domain.HistoryRecord, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, recordKey(sessionID, id)).Result()
		if err == redis.Nil {
			// Record expired before its index entry; skip it.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read record %s: %v", ErrUnavailable, id, err)
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			slog.Warn("Skipping undecodable history record", "session_id", sessionID, "record_id", id, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// DeleteOne removes one record and its index entry.
func (s *RedisStore) DeleteOne(ctx context.Context, sessionID, recordID string) (bool, error) {
	if err := s.client.LRem(ctx, listKey(sessionID), 0, recordID).Err(); err != nil {
		return false, fmt.Errorf("%w: remove index entry: %v", ErrUnavailable, err)
	}
	deleted, err := s.client.Del(ctx, recordKey(sessionID, recordID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: delete record: %v", ErrUnavailable, err)
	}
	return deleted > 0, nil
}

// Clear deletes every indexed record then the index itself.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) (int, error) {
	ids, err := s.client.LRange(ctx, listKey(sessionID), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: read session index: %v", ErrUnavailable, err)
	}

	count := 0
	for _, id := range ids {
		deleted, err := s.client.Del(ctx, recordKey(sessionID, id)).Result()
		if err != nil {
			return count, fmt.Errorf("%w: delete record %s: %v", ErrUnavailable, id, err)
		}
		count += int(deleted)
	}

	if err := s.client.Del(ctx, listKey(sessionID)).Err(); err != nil {
		return count, fmt.Errorf("%w: delete session index: %v", ErrUnavailable, err)
	}

	slog.Info("Cleared session history", "session_id", sessionID, "deleted", count)
	return count, nil
}

// HealthCheck probes Redis connectivity.
func (s *RedisStore) HealthCheck(ctx context.Context) bool {
	if err := s.client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis health check failed", "error", err)
		return false
	}
	return true
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
