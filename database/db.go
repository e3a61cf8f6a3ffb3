// Package database manages the connection pool for the zipcode
// reference table. Uploaded datasets never touch it; they live in
// memory for the session only.
package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Open creates a pooled Postgres connection and verifies it.
func Open(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
