// Command inspect is operational tooling built around
// internal/diag.Walk's StorageReport: "operational code can inspect
// without executing queries" (spec.md §7). It dispatches subcommands the
// way the teacher's own cmd/tools does (forma-tools generate-attributes
// / init-db), rather than growing a single flag set that mixes unrelated
// concerns.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/icydb/icykv/internal/pgstore"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "report":
		err = runReport(os.Args[2:])
	case "pg-health":
		err = runPgHealth(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func printUsage() {
	fmt.Println("Usage: icykv-inspect <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  report      Seed a demo store (with injected corruption) and print a StorageReport")
	fmt.Println("  pg-health   Check connectivity to a pgstore-backed Postgres instance")
}

func runPgHealth(args []string) error {
	flags := flag.NewFlagSet("pg-health", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)

	host := flags.String("db-host", getenvDefault("DB_HOST", "localhost"), "database host")
	port := flags.Int("db-port", getenvDefaultInt("DB_PORT", 5432), "database port")
	database := flags.String("db-name", getenvDefault("DB_NAME", "icykv"), "database name")
	user := flags.String("db-user", getenvDefault("DB_USER", "postgres"), "database user")
	password := flags.String("db-password", getenvDefault("DB_PASSWORD", "postgres"), "database password")
	sslMode := flags.String("db-ssl-mode", getenvDefault("DB_SSL_MODE", "disable"), "database sslmode")
	timeoutSeconds := flags.Int("timeout", 5, "health check timeout in seconds")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	dsn := pgstore.DSN{
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *password,
		Database: *database,
		SSLMode:  *sslMode,
	}
	if err := dsn.Validate(); err != nil {
		return fmt.Errorf("invalid dsn: %w", err)
	}

	ctx := context.Background()
	if err := pgstore.HealthCheck(ctx, dsn, time.Duration(*timeoutSeconds)*time.Second); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Printf("postgres at %s:%d/%s is reachable\n", dsn.Host, dsn.Port, dsn.Database)
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
