package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a development and test implementation. It mirrors the
// adapter contract exactly (including loose value typing) so engine code
// exercised against it behaves the same on the networked backends.
type MemoryStore struct {
	mu      sync.RWMutex
	tables  map[string]map[string]Row // table -> row id -> row
	metrics map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:  make(map[string]map[string]Row),
		metrics: make(map[string]int64),
	}
}

func (m *MemoryStore) table(name string) map[string]Row {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]Row)
		m.tables[name] = t
	}
	return t
}

func (m *MemoryStore) Insert(ctx context.Context, table string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(table)[uuid.NewString()] = cloneRow(row)
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, table string, row Row, conflictKey string) error {
	key, ok := AsString(row[conflictKey])
	if !ok {
		key = fmt.Sprint(row[conflictKey])
	}
	if key == "" {
		return failure("upsert", fmt.Errorf("missing conflict key %q", conflictKey))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(table)[table+":"+key] = cloneRow(row)
	return nil
}

func (m *MemoryStore) Select(ctx context.Context, table string, filter Row, order []Order, limit int) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Row
	for _, row := range m.tables[table] {
		if matches(row, filter) {
			out = append(out, cloneRow(row))
		}
	}
	sortRows(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, table string, patch Row, filter Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.tables[table] {
		if matches(row, filter) {
			for k, v := range patch {
				row[k] = v
			}
		}
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, table string, filter Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[table]
	for id, row := range t {
		if matches(row, filter) {
			delete(t, id)
		}
	}
	return nil
}

func (m *MemoryStore) IncrementMetric(ctx context.Context, name string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[name] += delta
	return m.metrics[name], nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func matches(row, filter Row) bool {
	for k, want := range filter {
		if !looseEqual(row[k], want) {
			return false
		}
	}
	return true
}

// looseEqual compares store values across the numeric and byte/string
// widenings adapters introduce.
func looseEqual(a, b any) bool {
	if af, ok := AsFloat(a); ok {
		if bf, ok := AsFloat(b); ok {
			return af == bf
		}
	}
	if as, ok := AsString(a); ok {
		if bs, ok := AsString(b); ok {
			return as == bs
		}
	}
	return a == b
}

func sortRows(rows []Row, order []Order) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range order {
			av, bv := rows[i][o.Column], rows[j][o.Column]
			// Missing values sort after present ones regardless of
			// direction, so null-like columns rank last either way.
			if av == nil || bv == nil {
				if av == nil && bv == nil {
					continue
				}
				return bv == nil
			}
			c := looseCompare(av, bv)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func looseCompare(a, b any) int {
	if af, ok := AsFloat(a); ok {
		if bf, ok := AsFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, _ := AsString(a)
	bs, _ := AsString(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
