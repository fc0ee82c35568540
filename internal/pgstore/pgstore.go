// Package pgstore is a reference DataStore/IndexStore pair backed by
// Postgres (SPEC_FULL.md §2.2), grounded on the teacher's pgx/v5 usage in
// postgres_persistent_repository_eav.go and factory/factory.go. Rows live
// in a single bytea-keyed table (key bytea primary key, value bytea),
// read back with an ORDER BY key range scan so the ordered-map contract
// icykv.DataStore/icykv.IndexStore demand holds over Postgres the same
// way it holds over internal/store's in-memory slices.
//
// icykv.DataStore and icykv.IndexStore carry no context.Context or error
// return — they describe an in-process ordered map, not a networked
// store. Store and IndexStore bridge that gap the way the teacher's own
// cmd/server/factory.go bridges pool setup failures it has no caller to
// report to: an unexpected Postgres error panics with an *icykv.InternalError
// wrapping the cause, since a reference adapter has no better channel for
// "the collaborator the core trusted is now lying to it".
package pgstore

import (
	"context"
	"fmt"

	"github.com/icydb/icykv"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queryer is the minimal pgx surface Store/IndexStore depend on, matched
// by *pgxpool.Pool and by pgxmock's pool in tests (factory/factory.go's
// queryPool does the same narrowing for the same reason).
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func fail(origin icykv.ErrorOrigin, op string, err error) {
	panic(icykv.NewInternalError(icykv.ClassInternal, origin, "pgstore: "+op).WithCause(err))
}

// Store is a Postgres-backed icykv.DataStore. table must already exist
// with columns (key bytea primary key, value bytea); CreateDataTable
// builds one in the shape Store expects.
type Store struct {
	pool  queryer
	table string
	ctx   context.Context
}

// NewStore binds a Store to an already-migrated table. ctx scopes every
// query the store issues; callers that need per-call cancellation should
// not share a single Store across unrelated request lifetimes.
func NewStore(ctx context.Context, pool *pgxpool.Pool, table string) *Store {
	return &Store{pool: pool, table: table, ctx: ctx}
}

// CreateDataTable issues the DDL for the bytea-keyed table Store expects.
func CreateDataTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key bytea PRIMARY KEY, value bytea NOT NULL)`,
		sanitizeIdentifier(table),
	))
	return err
}

func (s *Store) Get(key []byte) ([]byte, bool) {
	row := s.pool.QueryRow(s.ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, sanitizeIdentifier(s.table)), key)
	var value []byte
	switch err := row.Scan(&value); err {
	case nil:
		return value, true
	case pgx.ErrNoRows:
		return nil, false
	default:
		fail(icykv.OriginStore, "get", err)
		return nil, false
	}
}

func (s *Store) Insert(key, value []byte) {
	_, err := s.pool.Exec(s.ctx, fmt.Sprintf(
		`INSERT INTO %s (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		sanitizeIdentifier(s.table),
	), key, value)
	if err != nil {
		fail(icykv.OriginStore, "insert", err)
	}
}

func (s *Store) Remove(key []byte) {
	_, err := s.pool.Exec(s.ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, sanitizeIdentifier(s.table)), key)
	if err != nil {
		fail(icykv.OriginStore, "remove", err)
	}
}

func (s *Store) Len() int {
	row := s.pool.QueryRow(s.ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, sanitizeIdentifier(s.table)))
	var n int
	if err := row.Scan(&n); err != nil {
		fail(icykv.OriginStore, "len", err)
	}
	return n
}

func (s *Store) MemoryBytes() int64 {
	row := s.pool.QueryRow(s.ctx, fmt.Sprintf(
		`SELECT coalesce(sum(length(key) + length(value)), 0) FROM %s`, sanitizeIdentifier(s.table),
	))
	var n int64
	if err := row.Scan(&n); err != nil {
		fail(icykv.OriginStore, "memory_bytes", err)
	}
	return n
}

func (s *Store) Clear() {
	if _, err := s.pool.Exec(s.ctx, fmt.Sprintf(`TRUNCATE %s`, sanitizeIdentifier(s.table))); err != nil {
		fail(icykv.OriginStore, "clear", err)
	}
}

func (s *Store) Iter() icykv.KVIterator {
	return s.Range(icykv.UnboundedBound(), icykv.UnboundedBound())
}

func (s *Store) Range(lower, upper icykv.Bound) icykv.KVIterator {
	clause, args := rangeClause(lower, upper)
	rows, err := s.pool.Query(s.ctx, fmt.Sprintf(
		`SELECT key, value FROM %s %s ORDER BY key ASC`, sanitizeIdentifier(s.table), clause,
	), args...)
	if err != nil {
		fail(icykv.OriginStore, "range", err)
	}
	return &dataRowIterator{rows: rows}
}

type dataRowIterator struct {
	rows pgx.Rows
	done bool
}

func (it *dataRowIterator) Next() (key, value []byte, ok bool) {
	if it.done {
		return nil, nil, false
	}
	if !it.rows.Next() {
		it.rows.Close()
		it.done = true
		if err := it.rows.Err(); err != nil {
			fail(icykv.OriginStore, "iterate", err)
		}
		return nil, nil, false
	}
	if err := it.rows.Scan(&key, &value); err != nil {
		it.rows.Close()
		it.done = true
		fail(icykv.OriginStore, "scan", err)
		return nil, nil, false
	}
	return key, value, true
}

// rangeClause renders lower/upper into a "WHERE key ..." fragment (or ""
// when both bounds are unbounded) plus its positional args, mirroring
// the teacher's fmt.Sprintf-built-placeholder style in
// postgres_persistent_repository_eav.go's buildAttributeValuesClause.
func rangeClause(lower, upper icykv.Bound) (string, []any) {
	var conds []string
	var args []any
	n := 0
	add := func(op string, value []byte) {
		n++
		conds = append(conds, fmt.Sprintf("key %s $%d", op, n))
		args = append(args, value)
	}
	if !lower.Unbounded {
		if lower.Inclusive {
			add(">=", lower.Value)
		} else {
			add(">", lower.Value)
		}
	}
	if !upper.Unbounded {
		if upper.Inclusive {
			add("<=", upper.Value)
		} else {
			add("<", upper.Value)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	where := "WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}
