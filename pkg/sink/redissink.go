package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSink backs ResultSink with Redis: each query buffer is pushed as a
// JSON blob onto a per-handle list key ("RESULT|<handle>"), and each
// stat multi-map group becomes one field (its rows as a JSON blob) of the
// per-handle hash "RESULT_MULTIMAP|<handle>", after the "TABLE|key" hash
// convention internal/testutil/redis.go uses to seed CONFIG_DB/STATE_DB.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink wraps an existing Redis client.
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func resultListKey(handle string) string { return "RESULT|" + handle }
func perfKey(handle string) string       { return "RESULT_PERF|" + handle }

func (s *RedisSink) QueryResult(ctx context.Context, handle string, perf QueryPerf, buffer []ResultRow) error {
	if err := s.writePerf(ctx, handle, perf); err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	key := resultListKey(handle)
	for _, row := range buffer {
		blob, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshaling result row: %w", err)
		}
		pipe.RPush(ctx, key, blob)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSink) QueryResultMultiMap(ctx context.Context, handle string, perf QueryPerf, multiMap map[string][]ResultRow) error {
	if err := s.writePerf(ctx, handle, perf); err != nil {
		return err
	}
	hashKey := "RESULT_MULTIMAP|" + handle
	pipe := s.client.Pipeline()
	for group, rows := range multiMap {
		blob, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("marshaling multi-map group %q: %w", group, err)
		}
		pipe.HSet(ctx, hashKey, group, blob)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSink) writePerf(ctx context.Context, handle string, perf QueryPerf) error {
	fields := map[string]interface{}{
		"where_us":     perf.WhereMicros,
		"select_us":    perf.SelectMicros,
		"postproc_us":  perf.PostProcMicros,
		"error_code":   perf.ErrorCode,
		"chunks":       perf.ChunksProcessed,
	}
	return s.client.HSet(ctx, perfKey(handle), fields).Err()
}
