package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/export"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

// BookingService is the booking ledger.
type BookingService struct {
	catalog  domain.CatalogStore
	bookings domain.BookingStore
	eventBus domain.EventPublisher
	timeout  time.Duration
	logger   *zerolog.Logger
}

func NewBookingService(catalog domain.CatalogStore, bookings domain.BookingStore, eventBus domain.EventPublisher, storeTimeout time.Duration, logger *zerolog.Logger) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		catalog:  catalog,
		bookings: bookings,
		eventBus: eventBus,
		timeout:  storeTimeout,
		logger:   logger,
	}
}

// CreateBooking validates the request against the catalog and inserts it.
// A duplicate booking or a taken slot is a normal result with
// Acknowledged=false, not an error.
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	date, err := parseDate(req.AppointmentDate)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, invalid("email is required")
	}
	treatment := strings.TrimSpace(req.Treatment)
	if treatment == "" {
		return nil, invalid("treatment is required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	option, err := s.catalog.GetAppointmentOption(ctx, treatment)
	if errors.Is(err, database.ErrNotFound) {
		return nil, invalid("unknown treatment %q", treatment)
	}
	if err != nil {
		return nil, storeError(err, "catalog")
	}
	if !option.HasSlot(req.Slot) {
		return nil, invalid("slot %q is not offered for %s", req.Slot, treatment)
	}

	booking := &models.Booking{
		AppointmentDate: date,
		Treatment:       option.Name,
		Slot:            req.Slot,
		Email:           email,
		Patient:         strings.TrimSpace(req.Patient),
		Phone:           strings.TrimSpace(req.Phone),
		Price:           option.Price,
	}

	err = s.bookings.CreateBooking(ctx, booking)
	switch {
	case errors.Is(err, database.ErrAlreadyBooked):
		metrics.IncBookingConflict("duplicate")
		return &models.BookingResult{
			Acknowledged: false,
			Message:      fmt.Sprintf("You already have a booking on %s", date),
		}, nil
	case errors.Is(err, database.ErrSlotTaken):
		metrics.IncBookingConflict("slot_taken")
		return &models.BookingResult{
			Acknowledged: false,
			Message:      fmt.Sprintf("%s is no longer available for %s on %s", req.Slot, option.Name, date),
		}, nil
	case err != nil:
		return nil, storeError(err, "booking")
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("treatment", booking.Treatment).
		Str("date", booking.AppointmentDate).
		Str("slot", booking.Slot).
		Msg("booking created")
	metrics.IncBookingCreated(booking.Treatment)
	s.publishEvent(booking)

	return &models.BookingResult{Acknowledged: true, InsertedID: booking.ID}, nil
}

// GetBookingsForOwner lists the bookings of email. The caller may only read
// their own bookings; the check runs before any store access.
func (s *BookingService) GetBookingsForOwner(ctx context.Context, email string, caller *Identity) ([]*models.Booking, error) {
	if caller == nil {
		return nil, newError(KindUnauthorized, "unauthorized access", nil)
	}
	email = strings.TrimSpace(email)
	if email == "" || email != caller.Email {
		return nil, newError(KindForbidden, "forbidden access", nil)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	bookings, err := s.bookings.GetBookingsByEmail(ctx, email)
	if err != nil {
		return nil, storeError(err, "bookings")
	}
	return bookings, nil
}

func (s *BookingService) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("booking id is required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	return booking, nil
}

// GetBookingsForDate lists a day's bookings.
func (s *BookingService) GetBookingsForDate(ctx context.Context, date string) ([]*models.Booking, error) {
	date, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	bookings, err := s.bookings.GetBookingsByDate(ctx, date)
	if err != nil {
		return nil, storeError(err, "bookings")
	}
	return bookings, nil
}

// ExportBookings renders the day's treatment and slot grid as an XLSX workbook.
func (s *BookingService) ExportBookings(ctx context.Context, date string) ([]byte, error) {
	date, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	options, err := s.catalog.GetAppointmentOptions(ctx)
	if err != nil {
		return nil, storeError(err, "catalog")
	}
	bookings, err := s.bookings.GetBookingsByDate(ctx, date)
	if err != nil {
		return nil, storeError(err, "bookings")
	}

	data, err := export.BookingsWorkbook(date, options, bookings)
	if err != nil {
		return nil, newError(KindInternal, "internal error", err)
	}
	s.logger.Info().Str("date", date).Int("bookings", len(bookings)).Msg("bookings exported")
	return data, nil
}

func (s *BookingService) publishEvent(booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:       booking.ID,
		Email:           booking.Email,
		Treatment:       booking.Treatment,
		AppointmentDate: booking.AppointmentDate,
		Slot:            booking.Slot,
		Price:           booking.Price,
	}
	if err := s.eventBus.PublishJSON(events.EventBookingCreated, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to publish booking event")
	}
}
