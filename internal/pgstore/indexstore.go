package pgstore

import (
	"context"
	"fmt"

	"github.com/icydb/icykv"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IndexStore is a Postgres-backed icykv.IndexStore, sibling to Store. It
// keeps the primary-key payload and the unique flag in their own columns
// rather than marshaling IndexEntry into the value column, mirroring how
// the teacher keeps EAV attribute columns typed in
// postgres_persistent_repository_eav.go instead of packing them into one
// opaque blob.
type IndexStore struct {
	pool  queryer
	table string
	ctx   context.Context
}

func NewIndexStore(ctx context.Context, pool *pgxpool.Pool, table string) *IndexStore {
	return &IndexStore{pool: pool, table: table, ctx: ctx}
}

// CreateIndexTable issues the DDL for the table IndexStore expects.
func CreateIndexTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			key bytea PRIMARY KEY,
			primary_key bytea NOT NULL,
			unique_entry boolean NOT NULL
		)`,
		sanitizeIdentifier(table),
	))
	return err
}

func (s *IndexStore) Get(key []byte) (icykv.IndexEntry, bool) {
	row := s.pool.QueryRow(s.ctx, fmt.Sprintf(
		`SELECT primary_key, unique_entry FROM %s WHERE key = $1`, sanitizeIdentifier(s.table),
	), key)
	var entry icykv.IndexEntry
	switch err := row.Scan(&entry.PrimaryKey, &entry.Unique); err {
	case nil:
		return entry, true
	case pgx.ErrNoRows:
		return icykv.IndexEntry{}, false
	default:
		fail(icykv.OriginIndex, "get", err)
		return icykv.IndexEntry{}, false
	}
}

func (s *IndexStore) Insert(key []byte, entry icykv.IndexEntry) {
	_, err := s.pool.Exec(s.ctx, fmt.Sprintf(
		`INSERT INTO %s (key, primary_key, unique_entry) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET primary_key = EXCLUDED.primary_key, unique_entry = EXCLUDED.unique_entry`,
		sanitizeIdentifier(s.table),
	), key, entry.PrimaryKey, entry.Unique)
	if err != nil {
		fail(icykv.OriginIndex, "insert", err)
	}
}

func (s *IndexStore) Remove(key []byte) {
	_, err := s.pool.Exec(s.ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, sanitizeIdentifier(s.table)), key)
	if err != nil {
		fail(icykv.OriginIndex, "remove", err)
	}
}

func (s *IndexStore) Len() int {
	row := s.pool.QueryRow(s.ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, sanitizeIdentifier(s.table)))
	var n int
	if err := row.Scan(&n); err != nil {
		fail(icykv.OriginIndex, "len", err)
	}
	return n
}

func (s *IndexStore) MemoryBytes() int64 {
	row := s.pool.QueryRow(s.ctx, fmt.Sprintf(
		`SELECT coalesce(sum(length(key) + length(primary_key) + 1), 0) FROM %s`, sanitizeIdentifier(s.table),
	))
	var n int64
	if err := row.Scan(&n); err != nil {
		fail(icykv.OriginIndex, "memory_bytes", err)
	}
	return n
}

func (s *IndexStore) Clear() {
	if _, err := s.pool.Exec(s.ctx, fmt.Sprintf(`TRUNCATE %s`, sanitizeIdentifier(s.table))); err != nil {
		fail(icykv.OriginIndex, "clear", err)
	}
}

func (s *IndexStore) Iter() icykv.IndexIterator {
	return s.Range(icykv.UnboundedBound(), icykv.UnboundedBound())
}

func (s *IndexStore) Range(lower, upper icykv.Bound) icykv.IndexIterator {
	clause, args := rangeClause(lower, upper)
	rows, err := s.pool.Query(s.ctx, fmt.Sprintf(
		`SELECT key, primary_key, unique_entry FROM %s %s ORDER BY key ASC`, sanitizeIdentifier(s.table), clause,
	), args...)
	if err != nil {
		fail(icykv.OriginIndex, "range", err)
	}
	return &indexRowIterator{rows: rows}
}

type indexRowIterator struct {
	rows pgx.Rows
	done bool
}

func (it *indexRowIterator) Next() (key []byte, entry icykv.IndexEntry, ok bool) {
	if it.done {
		return nil, icykv.IndexEntry{}, false
	}
	if !it.rows.Next() {
		it.rows.Close()
		it.done = true
		if err := it.rows.Err(); err != nil {
			fail(icykv.OriginIndex, "iterate", err)
		}
		return nil, icykv.IndexEntry{}, false
	}
	if err := it.rows.Scan(&key, &entry.PrimaryKey, &entry.Unique); err != nil {
		it.rows.Close()
		it.done = true
		fail(icykv.OriginIndex, "scan", err)
		return nil, icykv.IndexEntry{}, false
	}
	return key, entry, true
}
