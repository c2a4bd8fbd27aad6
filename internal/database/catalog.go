package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinicbook/internal/models"
)

// SyncAppointmentOptions replaces the stored catalog with options and
// refreshes the in-memory cache. Catalog order follows the slice order.
func (db *DB) SyncAppointmentOptions(ctx context.Context, options []models.AppointmentOption) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_options`); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", classify(err))
	}

	now := time.Now()
	query := `INSERT INTO appointment_options (name, price, slots, sort_order, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	for i, opt := range options {
		slots, err := json.Marshal(nonNilSlots(opt.Slots))
		if err != nil {
			return fmt.Errorf("failed to encode slots of %s: %w", opt.Name, err)
		}
		if _, err := tx.ExecContext(ctx, query, opt.Name, opt.Price, string(slots), i, now, now); err != nil {
			return fmt.Errorf("failed to insert option %s: %w", opt.Name, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", classify(err))
	}

	db.setCatalogCache(options)
	db.logger.Info().Int("options", len(options)).Msg("catalog synced")
	return nil
}

// GetAppointmentOptions returns the full catalog in configured order.
func (db *DB) GetAppointmentOptions(ctx context.Context) ([]models.AppointmentOption, error) {
	if opts, ok := db.catalogFromCache(); ok {
		return opts, nil
	}

	rows, err := db.QueryContext(ctx, `SELECT name, price, slots, created_at, updated_at
              FROM appointment_options ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment options: %w", classify(err))
	}
	defer rows.Close()

	var options []models.AppointmentOption
	for rows.Next() {
		var opt models.AppointmentOption
		var slots string
		if err := rows.Scan(&opt.Name, &opt.Price, &slots, &opt.CreatedAt, &opt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment option: %w", err)
		}
		if err := json.Unmarshal([]byte(slots), &opt.Slots); err != nil {
			return nil, fmt.Errorf("failed to decode slots of %s: %w", opt.Name, err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	db.setCatalogCache(options)
	return options, nil
}

// GetAppointmentOption returns one treatment by name or ErrNotFound.
func (db *DB) GetAppointmentOption(ctx context.Context, name string) (*models.AppointmentOption, error) {
	options, err := db.GetAppointmentOptions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range options {
		if options[i].Name == name {
			return &options[i], nil
		}
	}
	return nil, ErrNotFound
}

func (db *DB) setCatalogCache(options []models.AppointmentOption) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.catalogCache = make(map[string]models.AppointmentOption, len(options))
	db.catalogOrder = make([]string, 0, len(options))
	for _, opt := range options {
		opt.Slots = append([]string(nil), opt.Slots...)
		db.catalogCache[opt.Name] = opt
		db.catalogOrder = append(db.catalogOrder, opt.Name)
	}
}

// catalogFromCache hands out copies so callers can edit slot lists freely.
func (db *DB) catalogFromCache() ([]models.AppointmentOption, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.catalogOrder) == 0 {
		return nil, false
	}
	out := make([]models.AppointmentOption, 0, len(db.catalogOrder))
	for _, name := range db.catalogOrder {
		opt := db.catalogCache[name]
		opt.Slots = append([]string(nil), opt.Slots...)
		out = append(out, opt)
	}
	return out, true
}

func nonNilSlots(slots []string) []string {
	if slots == nil {
		return []string{}
	}
	return slots
}
