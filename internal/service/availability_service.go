package service

import (
	"context"
	"strings"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/models"
)

// AvailabilityService derives the free slots per treatment for a date.
type AvailabilityService struct {
	catalog  domain.CatalogStore
	bookings domain.BookingStore
	timeout  time.Duration
}

func NewAvailabilityService(catalog domain.CatalogStore, bookings domain.BookingStore, storeTimeout time.Duration) *AvailabilityService {
	return &AvailabilityService{
		catalog:  catalog,
		bookings: bookings,
		timeout:  storeTimeout,
	}
}

// ListAvailability returns every treatment with the slots still free on date.
// A fully booked treatment is listed with an empty slot list.
func (s *AvailabilityService) ListAvailability(ctx context.Context, date string) ([]models.Availability, error) {
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
	booked, err := s.bookings.GetBookingsByDate(ctx, date)
	if err != nil {
		return nil, storeError(err, "bookings")
	}

	return remainingSlots(options, booked), nil
}

// ListSpecialties projects the catalog onto treatment names.
func (s *AvailabilityService) ListSpecialties(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	options, err := s.catalog.GetAppointmentOptions(ctx)
	if err != nil {
		return nil, storeError(err, "catalog")
	}
	names := make([]string, 0, len(options))
	for _, opt := range options {
		names = append(names, opt.Name)
	}
	return names, nil
}

func remainingSlots(options []models.AppointmentOption, booked []*models.Booking) []models.Availability {
	taken := make(map[string]map[string]struct{})
	for _, b := range booked {
		set, ok := taken[b.Treatment]
		if !ok {
			set = make(map[string]struct{})
			taken[b.Treatment] = set
		}
		set[b.Slot] = struct{}{}
	}

	out := make([]models.Availability, 0, len(options))
	for _, opt := range options {
		free := make([]string, 0, len(opt.Slots))
		for _, slot := range opt.Slots {
			if _, ok := taken[opt.Name][slot]; !ok {
				free = append(free, slot)
			}
		}
		out = append(out, models.Availability{
			Treatment: opt.Name,
			Price:     opt.Price,
			Slots:     free,
		})
	}
	return out
}

func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("date is required")
	}
	d, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return "", invalid("date %q must be formatted as YYYY-MM-DD", raw)
	}
	return d.Format(models.DateLayout), nil
}
