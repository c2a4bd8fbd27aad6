package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinicbook/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.TrimSpace(user.Email)
	now := time.Now().UTC()

	query := `INSERT INTO users (id, email, name, role, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.Role, now); err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}
	user.CreatedAt = now
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, role, created_at FROM users WHERE email = ?`
	return db.queryUser(ctx, query, strings.TrimSpace(email))
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, role, created_at FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", classify(err))
	}
	return &user, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, email, name, role, created_at FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", classify(err))
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// SetUserRole updates the role of the user with id. Unknown ids yield ErrNotFound.
func (db *DB) SetUserRole(ctx context.Context, id, role string) (int64, error) {
	result, err := db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update user role: %w", classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	if rows == 0 {
		return 0, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return rows, nil
}
