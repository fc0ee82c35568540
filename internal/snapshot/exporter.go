// Package snapshot is the cold-tier exporter SPEC_FULL.md §2.2 assigns to
// duckdb-go/v2: it drains a DataStore's full key range
// into a DuckDB-backed table and COPYs it out as a compressed Parquet
// file for offline analytics, the same COPY-to-S3-Parquet shape the
// teacher's internal/cdc/duckdb_exporter.go uses for its own snapshot
// export, and the same connection/pragma/extension setup as
// internal/duckdb_conn.go. Unlike the teacher, which reads Postgres
// through DuckDB's postgres_scanner, Exporter's source is an in-process
// icykv.DataStore — there is no foreign table for DuckDB to scan, so rows
// are staged into a local DuckDB table with batched INSERTs (the same
// batch-and-placeholder shape as
// postgres_persistent_repository_eav.go's insertEAVAttributes) before
// the COPY runs.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/icydb/icykv"
)

// Config mirrors the subset of forma.DuckDBConfig the exporter needs:
// memory/thread pragmas plus the optional S3 pragma block
// duckdb_conn.go sets when EnableS3 is true.
type Config struct {
	Path       string
	MemoryMB   int
	Threads    int
	EnableS3   bool
	S3Region   string
	S3Endpoint string
	S3UseSSL   bool
}

func (c Config) dsn() string {
	if c.Path == "" {
		return ":memory:"
	}
	return c.Path
}

// Exporter wraps a database/sql DB opened against the duckdb driver,
// configured the way NewDuckDBClient configures one.
type Exporter struct {
	DB     *sql.DB
	Logger *zap.Logger
}

// NewExporter opens a DuckDB connection and installs the httpfs/parquet
// extensions plus S3 pragmas, matching duckdb_conn.go's NewDuckDBClient
// and cdc/duckdb_exporter.go's NewDuckExporter.
func NewExporter(ctx context.Context, cfg Config, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("duckdb", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("snapshot: open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: ping duckdb: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA memory_limit='%dMB';", nonZero(cfg.MemoryMB, 512)),
		fmt.Sprintf("PRAGMA threads=%d;", nonZero(cfg.Threads, 2)),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx2, p); err != nil {
			logger.Sugar().Warnw("snapshot: duckdb pragma failed", "pragma", p, "err", err)
		}
	}

	for _, ext := range []string{"httpfs", "parquet"} {
		if _, err := db.ExecContext(ctx2, "INSTALL "+ext+";"); err != nil {
			logger.Sugar().Warnw("snapshot: duckdb install extension failed", "extension", ext, "err", err)
			continue
		}
		if _, err := db.ExecContext(ctx2, "LOAD "+ext+";"); err != nil {
			logger.Sugar().Warnw("snapshot: duckdb load extension failed", "extension", ext, "err", err)
		}
	}

	if cfg.EnableS3 {
		if cfg.S3Region != "" {
			if _, err := db.ExecContext(ctx2, fmt.Sprintf("SET s3_region='%s';", cfg.S3Region)); err != nil {
				logger.Sugar().Warnw("snapshot: set s3_region failed", "err", err)
			}
		}
		if cfg.S3Endpoint != "" {
			ep := strings.TrimPrefix(strings.TrimPrefix(cfg.S3Endpoint, "https://"), "http://")
			if _, err := db.ExecContext(ctx2, fmt.Sprintf("SET s3_endpoint='%s';", ep)); err != nil {
				logger.Sugar().Warnw("snapshot: set s3_endpoint failed", "err", err)
			}
			if _, err := db.ExecContext(ctx2, fmt.Sprintf("SET s3_use_ssl=%t;", cfg.S3UseSSL)); err != nil {
				logger.Sugar().Warnw("snapshot: set s3_use_ssl failed", "err", err)
			}
		}
	}

	return &Exporter{DB: db, Logger: logger}, nil
}

func nonZero(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Close closes the underlying DuckDB connection.
func (e *Exporter) Close() error {
	if e == nil || e.DB == nil {
		return nil
	}
	return e.DB.Close()
}

// HealthCheck runs a trivial query, matching DuckDBClient.HealthCheck.
func (e *Exporter) HealthCheck(ctx context.Context) error {
	if e == nil || e.DB == nil {
		return fmt.Errorf("snapshot: exporter not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := e.DB.QueryRowContext(ctx, "SELECT 1;")
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("snapshot: health query failed: %w", err)
	}
	if v != 1 {
		return fmt.Errorf("snapshot: unexpected health result: %d", v)
	}
	return nil
}

const stageBatchSize = 500

// ExportDataStore drains store's full key range into a local DuckDB
// table and COPYs it out to destPath as Parquet. destPath may be a
// local path or an 's3://bucket/key' URI once the S3 pragmas above are
// configured, mirroring ExportSnapshotToTmp's 's3://...' destination
// argument.
func (e *Exporter) ExportDataStore(ctx context.Context, store icykv.DataStore, destPath string) error {
	const table = "icykv_snapshot_rows"
	if _, err := e.DB.ExecContext(ctx, fmt.Sprintf(`CREATE OR REPLACE TABLE %s (key BLOB, value BLOB)`, table)); err != nil {
		return fmt.Errorf("snapshot: create staging table: %w", err)
	}

	it := store.Iter()
	var batch [][2][]byte
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*2)
		for i, kv := range batch {
			placeholders[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
			args = append(args, kv[0], kv[1])
		}
		query := fmt.Sprintf("INSERT INTO %s (key, value) VALUES %s", table, strings.Join(placeholders, ", "))
		if _, err := e.DB.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("snapshot: stage rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for {
		key, value, ok := it.Next()
		if !ok {
			break
		}
		batch = append(batch, [2][]byte{append([]byte(nil), key...), append([]byte(nil), value...)})
		if len(batch) >= stageBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	destEsc := strings.ReplaceAll(destPath, "'", "''")
	copySQL := fmt.Sprintf(
		`COPY (SELECT key, value FROM %s ORDER BY key) TO '%s' (FORMAT PARQUET, COMPRESSION 'ZSTD');`,
		table, destEsc,
	)
	e.Logger.Sugar().Infow("snapshot: export", "dest", destPath)
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()
	if _, err := e.DB.ExecContext(ctx2, copySQL); err != nil {
		return fmt.Errorf("snapshot: copy to parquet: %w", err)
	}
	return nil
}
