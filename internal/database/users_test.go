package database

import (
	"context"
	"testing"

	"clinicbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := &models.User{Email: " doc@clinic.com ", Name: "Doc"}
	require.NoError(t, db.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "doc@clinic.com", user.Email)

	got, err := db.GetUserByEmail(ctx, "doc@clinic.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.False(t, got.IsAdmin())

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doc", byID.Name)

	modified, err := db.SetUserRole(ctx, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	got, err = db.GetUserByEmail(ctx, "doc@clinic.com")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{Email: "a@x.com"}))
	err := db.CreateUser(ctx, &models.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUser_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.GetUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.SetUserRole(ctx, "missing", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDoctorCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	doc := &models.Doctor{Name: "Dr. Smile", Email: "smile@clinic.com", Specialty: "Cleaning"}
	require.NoError(t, db.CreateDoctor(ctx, doc))
	assert.NotEmpty(t, doc.ID)

	doctors, err := db.GetDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Cleaning", doctors[0].Specialty)

	deleted, err := db.DeleteDoctor(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = db.DeleteDoctor(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	doctors, err = db.GetDoctors(ctx)
	require.NoError(t, err)
	assert.Empty(t, doctors)
}
