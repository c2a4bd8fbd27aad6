package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

// DirectoryService manages users and doctors. Role checks happen at the
// transport layer before these methods are reached.
type DirectoryService struct {
	users    domain.UserStore
	doctors  domain.DoctorStore
	catalog  domain.CatalogStore
	eventBus domain.EventPublisher
	timeout  time.Duration
	logger   *zerolog.Logger
}

func NewDirectoryService(
	users domain.UserStore,
	doctors domain.DoctorStore,
	catalog domain.CatalogStore,
	eventBus domain.EventPublisher,
	storeTimeout time.Duration,
	logger *zerolog.Logger,
) *DirectoryService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &DirectoryService{
		users:    users,
		doctors:  doctors,
		catalog:  catalog,
		eventBus: eventBus,
		timeout:  storeTimeout,
		logger:   logger,
	}
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, storeError(err, "users")
	}
	return users, nil
}

// CreateUser registers a user. New users never carry a role; promotion goes
// through PromoteToAdmin.
func (s *DirectoryService) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	email, err := normalizeEmail(user.Email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	created := &models.User{Email: email, Name: strings.TrimSpace(user.Name)}
	if err := s.users.CreateUser(ctx, created); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(KindConflict, "user already exists", err)
		}
		return nil, storeError(err, "user")
	}
	s.logger.Info().Str("user_id", created.ID).Msg("user created")
	return created, nil
}

// IsAdmin reports whether email belongs to an admin. Unknown emails are not admins.
func (s *DirectoryService) IsAdmin(ctx context.Context, email string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeError(err, "user")
	}
	return user.IsAdmin(), nil
}

func (s *DirectoryService) PromoteToAdmin(ctx context.Context, id string, actor *Identity) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, invalid("user id is required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	modified, err := s.users.SetUserRole(ctx, id, models.RoleAdmin)
	if err != nil {
		return 0, storeError(err, "user")
	}

	changedBy := ""
	if actor != nil {
		changedBy = actor.Email
	}
	s.logger.Info().Str("user_id", id).Str("changed_by", changedBy).Msg("user promoted to admin")
	if s.eventBus != nil {
		payload := events.UserEventPayload{UserID: id, Role: models.RoleAdmin, ChangedBy: changedBy}
		if err := s.eventBus.PublishJSON(events.EventUserPromoted, payload); err != nil {
			s.logger.Error().Err(err).Str("user_id", id).Msg("failed to publish user event")
		}
	}
	return modified, nil
}

func (s *DirectoryService) ListDoctors(ctx context.Context) ([]*models.Doctor, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	doctors, err := s.doctors.GetDoctors(ctx)
	if err != nil {
		return nil, storeError(err, "doctors")
	}
	return doctors, nil
}

// AddDoctor stores a doctor whose specialty must be a catalog treatment.
func (s *DirectoryService) AddDoctor(ctx context.Context, doctor models.Doctor) (*models.Doctor, error) {
	name := strings.TrimSpace(doctor.Name)
	if name == "" {
		return nil, invalid("doctor name is required")
	}
	email := strings.TrimSpace(doctor.Email)
	if email != "" {
		var err error
		if email, err = normalizeEmail(email); err != nil {
			return nil, err
		}
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	specialty := strings.TrimSpace(doctor.Specialty)
	if _, err := s.catalog.GetAppointmentOption(ctx, specialty); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, invalid("unknown specialty %q", specialty)
		}
		return nil, storeError(err, "catalog")
	}

	created := &models.Doctor{
		Name:      name,
		Email:     email,
		Specialty: specialty,
		Image:     strings.TrimSpace(doctor.Image),
	}
	if err := s.doctors.CreateDoctor(ctx, created); err != nil {
		return nil, storeError(err, "doctor")
	}
	s.logger.Info().Str("doctor_id", created.ID).Str("specialty", specialty).Msg("doctor added")
	return created, nil
}

func (s *DirectoryService) RemoveDoctor(ctx context.Context, id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, invalid("doctor id is required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	deleted, err := s.doctors.DeleteDoctor(ctx, id)
	if err != nil {
		return 0, storeError(err, "doctor")
	}
	s.logger.Info().Str("doctor_id", id).Msg("doctor removed")
	return deleted, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", invalid("email %q is not a valid address", raw)
	}
	return raw, nil
}
