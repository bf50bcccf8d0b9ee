package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens a Postgres handle, configures the pool and verifies the
// connection with a ping bounded by timeout.
func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(25)
	database.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return database, nil
}
