package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each table as a hash of JSON rows under
// memchess:rows:<table>, with metrics as plain INCRBY counters. Filtering,
// ordering, and limits are applied client-side; the tables this engine
// persists (profiles, leaderboard slices, metrics) stay small enough that a
// full hash read is the simple, correct choice.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wires an existing client, mainly for tests.
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) keyTable(table string) string {
	return "memchess:rows:" + strings.TrimSpace(table)
}

func (s *RedisStore) keyMetric(name string) string {
	return "memchess:metric:" + strings.TrimSpace(name)
}

func (s *RedisStore) Insert(ctx context.Context, table string, row Row) error {
	return s.put(ctx, table, uuid.NewString(), row)
}

func (s *RedisStore) Upsert(ctx context.Context, table string, row Row, conflictKey string) error {
	key, ok := AsString(row[conflictKey])
	if !ok {
		key = fmt.Sprint(row[conflictKey])
	}
	if key == "" {
		return failure("upsert", fmt.Errorf("missing conflict key %q", conflictKey))
	}
	return s.put(ctx, table, "k:"+key, row)
}

func (s *RedisStore) put(ctx context.Context, table, field string, row Row) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return failure("marshal row", err)
	}
	if err := s.rdb.HSet(ctx, s.keyTable(table), field, raw).Err(); err != nil {
		return failure("hset "+table, err)
	}
	return nil
}

func (s *RedisStore) Select(ctx context.Context, table string, filter Row, order []Order, limit int) ([]Row, error) {
	all, err := s.rdb.HGetAll(ctx, s.keyTable(table)).Result()
	if err != nil {
		return nil, failure("hgetall "+table, err)
	}
	var out []Row
	for _, raw := range all {
		var row Row
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, failure("unmarshal row", err)
		}
		if matches(row, filter) {
			out = append(out, row)
		}
	}
	sortRows(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *RedisStore) Update(ctx context.Context, table string, patch Row, filter Row) error {
	all, err := s.rdb.HGetAll(ctx, s.keyTable(table)).Result()
	if err != nil {
		return failure("hgetall "+table, err)
	}
	for field, raw := range all {
		var row Row
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return failure("unmarshal row", err)
		}
		if !matches(row, filter) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		if err := s.put(ctx, table, field, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, table string, filter Row) error {
	all, err := s.rdb.HGetAll(ctx, s.keyTable(table)).Result()
	if err != nil {
		return failure("hgetall "+table, err)
	}
	var fields []string
	for field, raw := range all {
		var row Row
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return failure("unmarshal row", err)
		}
		if matches(row, filter) {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.rdb.HDel(ctx, s.keyTable(table), fields...).Err(); err != nil {
		return failure("hdel "+table, err)
	}
	return nil
}

func (s *RedisStore) IncrementMetric(ctx context.Context, name string, delta int64) (int64, error) {
	v, err := s.rdb.IncrBy(ctx, s.keyMetric(name), delta).Result()
	if err != nil {
		return 0, failure("incrby "+name, err)
	}
	return v, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
