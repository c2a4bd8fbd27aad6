package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clinicbook/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the transactional store behind the booking ledger, the payment
// reconciler and the directory.
type DB struct {
	*sql.DB
	mu           sync.RWMutex
	catalogCache map[string]models.AppointmentOption
	catalogOrder []string
	logger       *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: sqlite serializes writers anyway, and :memory: databases
	// are per-connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	logger.Info().Str("path", path).Msg("database initialized")

	return &DB{
		DB:           sqlDB,
		catalogCache: make(map[string]models.AppointmentOption),
		logger:       logger,
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS appointment_options (
            name TEXT PRIMARY KEY,
            price REAL NOT NULL DEFAULT 0,
            slots TEXT NOT NULL DEFAULT '[]',
            sort_order INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            appointment_date TEXT NOT NULL,
            treatment TEXT NOT NULL,
            slot TEXT NOT NULL,
            email TEXT NOT NULL,
            patient TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            price REAL NOT NULL DEFAULT 0,
            paid BOOLEAN NOT NULL DEFAULT 0,
            transaction_id TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id TEXT PRIMARY KEY,
            booking_id TEXT NOT NULL UNIQUE REFERENCES bookings(id),
            transaction_id TEXT NOT NULL,
            amount REAL NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS doctors (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            specialty TEXT NOT NULL DEFAULT '',
            image TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		// one booking per client per treatment per day
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_owner ON bookings(appointment_date, treatment, email)`,
		// a taken slot is unavailable to everyone else
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_slot ON bookings(appointment_date, treatment, slot)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}
