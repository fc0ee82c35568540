//go:build integration

package pgstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/icydb/icykv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres boots a postgres:16 container the same way the teacher's
// e2e_harness.TestHarness.StartPostgres does, trimmed to what this
// package's integration test needs.
func startPostgres(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%s/postgres?sslmode=disable", host, mapped.Port())

	var pool *pgxpool.Pool
	deadline := time.Now().Add(20 * time.Second)
	for {
		pool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				break
			}
			pool.Close()
		}
		if time.Now().After(deadline) {
			require.NoError(t, err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	return pool, func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
}

func TestStoreAgainstRealPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, stop := startPostgres(t, ctx)
	defer stop()

	require.NoError(t, CreateDataTable(ctx, pool, "icykv_rows"))

	s := NewStore(ctx, pool, "icykv_rows")
	s.Insert([]byte("a"), []byte("1"))
	s.Insert([]byte("b"), []byte("2"))
	s.Insert([]byte("c"), []byte("3"))

	value, ok := s.Get([]byte("b"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), value)

	require.Equal(t, 3, s.Len())

	it := s.Range(icykv.InclusiveBound([]byte("a")), icykv.ExclusiveBound([]byte("c")))
	var got [][]byte
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, k)
	}
	require.Equal(t, [][]byte{[]byte("a"), []byte("b")}, got)

	s.Remove([]byte("a"))
	require.Equal(t, 2, s.Len())

	s.Clear()
	require.Equal(t, 0, s.Len())
}

func TestIndexStoreAgainstRealPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, stop := startPostgres(t, ctx)
	defer stop()

	require.NoError(t, CreateIndexTable(ctx, pool, "icykv_index"))

	s := NewIndexStore(ctx, pool, "icykv_index")
	s.Insert([]byte("ik1"), icykv.IndexEntry{PrimaryKey: []byte("pk1"), Unique: true})

	entry, ok := s.Get([]byte("ik1"))
	require.True(t, ok)
	require.Equal(t, []byte("pk1"), entry.PrimaryKey)
	require.True(t, entry.Unique)
}
