package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostgresStore maps the generic row contract onto SQL built from row keys.
// Table and column names come from engine code, not user input, and are
// still quoted defensively via pq.QuoteIdentifier.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the tables the trainer persists into.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS training_profiles (
			player_name    TEXT PRIMARY KEY,
			rating         INTEGER NOT NULL DEFAULT 0,
			streak         INTEGER NOT NULL DEFAULT 0,
			games_played   INTEGER NOT NULL DEFAULT 0,
			best_accuracy  INTEGER NOT NULL DEFAULT 0,
			last_played_at TIMESTAMPTZ,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id                    BIGSERIAL PRIMARY KEY,
			player_name           TEXT NOT NULL,
			difficulty            TEXT NOT NULL,
			piece_count           INTEGER NOT NULL,
			correct_pieces        INTEGER NOT NULL,
			wrong_pieces          INTEGER,
			memorize_time_seconds DOUBLE PRECISION NOT NULL,
			solution_time_seconds DOUBLE PRECISION NOT NULL,
			created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS leaderboard_entries_difficulty_idx
			ON leaderboard_entries (difficulty);
		CREATE TABLE IF NOT EXISTS metrics (
			name  TEXT PRIMARY KEY,
			value BIGINT NOT NULL DEFAULT 0
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return failure("ensure schema", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, row Row) error {
	cols, args := splitRow(row)
	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = pq.QuoteIdentifier(c)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return failure("insert "+table, err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, table string, row Row, conflictKey string) error {
	cols, args := splitRow(row)
	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	var sets []string
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = pq.QuoteIdentifier(c)
		if c != conflictKey {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", pq.QuoteIdentifier(c), pq.QuoteIdentifier(c)))
		}
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
		pq.QuoteIdentifier(conflictKey), strings.Join(sets, ", "))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return failure("upsert "+table, err)
	}
	return nil
}

func (s *PostgresStore) Select(ctx context.Context, table string, filter Row, order []Order, limit int) ([]Row, error) {
	q := "SELECT * FROM " + pq.QuoteIdentifier(table)
	where, args := whereClause(filter, 1)
	q += where
	if len(order) > 0 {
		var parts []string
		for _, o := range order {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, fmt.Sprintf("%s %s NULLS LAST", pq.QuoteIdentifier(o.Column), dir))
		}
		q += " ORDER BY " + strings.Join(parts, ", ")
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, failure("select "+table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, failure("select columns", err)
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, failure("scan "+table, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, failure("select rows", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, table string, patch Row, filter Row) error {
	cols, args := splitRow(patch)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c), i+1)
	}
	where, whereArgs := whereClause(filter, len(cols)+1)
	q := fmt.Sprintf("UPDATE %s SET %s%s", pq.QuoteIdentifier(table), strings.Join(sets, ", "), where)
	if _, err := s.db.ExecContext(ctx, q, append(args, whereArgs...)...); err != nil {
		return failure("update "+table, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, table string, filter Row) error {
	where, args := whereClause(filter, 1)
	q := "DELETE FROM " + pq.QuoteIdentifier(table) + where
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return failure("delete "+table, err)
	}
	return nil
}

func (s *PostgresStore) IncrementMetric(ctx context.Context, name string, delta int64) (int64, error) {
	const q = `
		INSERT INTO metrics (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = metrics.value + EXCLUDED.value
		RETURNING value`
	var v int64
	if err := s.db.QueryRowContext(ctx, q, name, delta).Scan(&v); err != nil {
		return 0, failure("increment metric "+name, err)
	}
	return v, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// splitRow returns columns in sorted order with matching args, so generated
// SQL is deterministic.
func splitRow(row Row) ([]string, []any) {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = row[c]
	}
	return cols, args
}

func whereClause(filter Row, firstArg int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	cols, args := splitRow(filter)
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c), firstArg+i)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}
