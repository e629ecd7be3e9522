package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrPersistence wraps every adapter failure so callers can treat store
// trouble as a recoverable, retryable condition distinct from engine errors.
var ErrPersistence = errors.New("store persistence failure")

// Row is a loosely-typed record exchanged with the store. Adapters may widen
// numeric types (JSON round-trips produce float64); use the As* helpers when
// reading values back.
type Row = map[string]any

// Order is one sort key of a Select.
type Order struct {
	Column string
	Desc   bool
}

// Store is the generic row/KV persistence contract the engine depends on.
// All calls are fallible network operations; retry policy belongs to the
// adapter or the caller, never to the engine.
type Store interface {
	Insert(ctx context.Context, table string, row Row) error
	Upsert(ctx context.Context, table string, row Row, conflictKey string) error
	Select(ctx context.Context, table string, filter Row, order []Order, limit int) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, filter Row) error
	Delete(ctx context.Context, table string, filter Row) error

	// IncrementMetric atomically adds delta to a named counter and returns
	// the new value.
	IncrementMetric(ctx context.Context, name string, delta int64) (int64, error)

	Close() error
}

func failure(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// AsInt reads a row value as int, tolerating the numeric widenings the
// adapters produce.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case []byte:
		if i, err := strconv.Atoi(string(n)); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}

func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case []byte:
		if f, err := strconv.ParseFloat(string(n), 64); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func AsString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

// AsTime reads a timestamp stored either natively or as RFC3339 text.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts, true
		}
	case []byte:
		if ts, err := time.Parse(time.RFC3339Nano, string(t)); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
