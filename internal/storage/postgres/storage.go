package postgres

import (
	"database/sql"
)

// Storage bundles the postgres-backed repositories over one connection pool.
type Storage struct {
	db *sql.DB
	*SessionRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                db,
		SessionRepository: NewSessionRepository(db),
	}
}
