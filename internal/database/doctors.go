package database

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateDoctor(ctx context.Context, doctor *models.Doctor) error {
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `INSERT INTO doctors (id, name, email, specialty, image, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, doctor.ID, doctor.Name, doctor.Email, doctor.Specialty, doctor.Image, now)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", classify(err))
	}
	doctor.CreatedAt = now
	return nil
}

func (db *DB) GetDoctors(ctx context.Context) ([]*models.Doctor, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, email, specialty, image, created_at FROM doctors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctors: %w", classify(err))
	}
	defer rows.Close()

	doctors := make([]*models.Doctor, 0)
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Specialty, &d.Image, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return doctors, nil
}

func (db *DB) DeleteDoctor(ctx context.Context, id string) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM doctors WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete doctor: %w", classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	if rows == 0 {
		return 0, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	return rows, nil
}
