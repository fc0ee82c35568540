package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	_ "github.com/lib/pq"
)

// DSN describes the connection parameters for the lib/pq-driven health
// path, mirroring the teacher's forma.DatabaseConfig fields validated by
// ValidatePostgresConfig (postgres_health.go).
type DSN struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// UseDSQLAuth, when true, ignores Password and instead mints an IAM
	// auth token via GenerateDbConnectAuthToken, grounded on the
	// teacher's cdc/flusher.go RunOnce (cfg.PGUseIAM branch).
	UseDSQLAuth bool
	AWSRegion   string
}

func (d DSN) sslMode() string {
	if d.SSLMode != "" {
		return d.SSLMode
	}
	return "require"
}

// Validate performs the same basic sanity checks as the teacher's
// ValidatePostgresConfig.
func (d DSN) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("pgstore: dsn.Host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("pgstore: dsn.Port must be a valid TCP port")
	}
	if d.Database == "" {
		return fmt.Errorf("pgstore: dsn.Database is required")
	}
	return nil
}

// ResolvePassword returns the password to connect with, generating a DSQL
// IAM auth token when UseDSQLAuth is set (cdc/flusher.go's
// auth.GenerateDbConnectAuthToken pattern).
func (d DSN) ResolvePassword(ctx context.Context) (string, error) {
	if !d.UseDSQLAuth {
		return d.Password, nil
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("pgstore: load aws config: %w", err)
	}
	if d.AWSRegion != "" {
		awsCfg.Region = d.AWSRegion
	}
	endpoint := fmt.Sprintf("%s:%d", d.Host, d.Port)
	token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
	if err != nil {
		return "", fmt.Errorf("pgstore: generate dsql auth token: %w", err)
	}
	return token, nil
}

// ConnString renders a "host=... port=... ..." libpq connection string,
// resolving the password (static or DSQL IAM token) first.
func (d DSN) ConnString(ctx context.Context) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	password, err := d.ResolvePassword(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, password, d.Database, d.sslMode()), nil
}

// HealthCheck opens a lib/pq database/sql connection, pings it, and runs a
// trivial query, the same three-step shape as the teacher's
// PostgresHealthCheck (postgres_health.go) adapted from pgxpool to
// database/sql since lib/pq is the driver SPEC_FULL.md assigns to this
// path.
func HealthCheck(ctx context.Context, dsn DSN, timeout time.Duration) error {
	connStr, err := dsn.ConnString(ctx)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("pgstore: open postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("pgstore: ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("pgstore: simple query failed: %w", err)
	}
	return nil
}
