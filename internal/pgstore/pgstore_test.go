package pgstore

import (
	"context"
	"testing"

	"github.com/icydb/icykv"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestStoreGetFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM "rows" WHERE key = \$1`).
		WithArgs([]byte("k1")).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte("v1")))

	s := &Store{pool: mock, table: "rows", ctx: context.Background()}
	value, ok := s.Get([]byte("k1"))
	require.True(t, ok)
	require.Equal(t, []byte("v1"), value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM "rows" WHERE key = \$1`).
		WithArgs([]byte("missing")).
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	s := &Store{pool: mock, table: "rows", ctx: context.Background()}
	_, ok := s.Get([]byte("missing"))
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsertUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "rows"`).
		WithArgs([]byte("k1"), []byte("v1")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := &Store{pool: mock, table: "rows", ctx: context.Background()}
	s.Insert([]byte("k1"), []byte("v1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRangeOrdersByKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT key, value FROM "rows" WHERE key >= \$1 AND key < \$2 ORDER BY key ASC`).
		WithArgs([]byte("a"), []byte("c")).
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).
			AddRow([]byte("a"), []byte("1")).
			AddRow([]byte("b"), []byte("2")))

	s := &Store{pool: mock, table: "rows", ctx: context.Background()}
	it := s.Range(icykv.InclusiveBound([]byte("a")), icykv.ExclusiveBound([]byte("c")))

	k, v, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, []byte("a"), k)
	require.Equal(t, []byte("1"), v)

	k, v, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, []byte("b"), k)
	require.Equal(t, []byte("2"), v)

	_, _, ok = it.Next()
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetUnexpectedErrorPanics(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM "rows" WHERE key = \$1`).
		WithArgs([]byte("k1")).
		WillReturnError(context.DeadlineExceeded)

	s := &Store{pool: mock, table: "rows", ctx: context.Background()}
	require.Panics(t, func() { s.Get([]byte("k1")) })
}

func TestIndexStoreGetAndInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "idx"`).
		WithArgs([]byte("ik1"), []byte("pk1"), true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT primary_key, unique_entry FROM "idx" WHERE key = \$1`).
		WithArgs([]byte("ik1")).
		WillReturnRows(pgxmock.NewRows([]string{"primary_key", "unique_entry"}).AddRow([]byte("pk1"), true))

	s := &IndexStore{pool: mock, table: "idx", ctx: context.Background()}
	s.Insert([]byte("ik1"), icykv.IndexEntry{PrimaryKey: []byte("pk1"), Unique: true})

	entry, ok := s.Get([]byte("ik1"))
	require.True(t, ok)
	require.Equal(t, []byte("pk1"), entry.PrimaryKey)
	require.True(t, entry.Unique)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRangeClauseBothBounds(t *testing.T) {
	clause, args := rangeClause(icykv.InclusiveBound([]byte("a")), icykv.ExclusiveBound([]byte("z")))
	require.Equal(t, `WHERE key >= $1 AND key < $2`, clause)
	require.Equal(t, []any{[]byte("a"), []byte("z")}, args)
}

func TestRangeClauseUnbounded(t *testing.T) {
	clause, args := rangeClause(icykv.UnboundedBound(), icykv.UnboundedBound())
	require.Equal(t, "", clause)
	require.Nil(t, args)
}
