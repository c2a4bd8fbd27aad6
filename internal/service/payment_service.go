package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

// PaymentService is the payment reconciler.
type PaymentService struct {
	gateway        domain.PaymentGateway
	bookings       domain.BookingStore
	payments       domain.PaymentStore
	locker         domain.Locker
	eventBus       domain.EventPublisher
	currency       string
	lockTTL        time.Duration
	storeTimeout   time.Duration
	gatewayTimeout time.Duration
	logger         *zerolog.Logger
}

type PaymentOptions struct {
	Currency       string
	LockTTL        time.Duration
	StoreTimeout   time.Duration
	GatewayTimeout time.Duration
}

func NewPaymentService(
	gateway domain.PaymentGateway,
	bookings domain.BookingStore,
	payments domain.PaymentStore,
	locker domain.Locker,
	eventBus domain.EventPublisher,
	opts PaymentOptions,
	logger *zerolog.Logger,
) *PaymentService {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = models.PaymentLockTTL * time.Second
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = models.DefaultGatewayTimeout * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PaymentService{
		gateway:        gateway,
		bookings:       bookings,
		payments:       payments,
		locker:         locker,
		eventBus:       eventBus,
		currency:       strings.ToLower(opts.Currency),
		lockTTL:        opts.LockTTL,
		storeTimeout:   opts.StoreTimeout,
		gatewayTimeout: opts.GatewayTimeout,
		logger:         logger,
	}
}

// CreatePaymentIntent asks the gateway to authorize a charge. The gateway is
// called once; its failure is returned as GatewayError.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	price := req.Price
	if req.BookingID != "" {
		booking, err := s.lookupBooking(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.Paid {
			return nil, newError(KindConflict, "booking is already paid", nil)
		}
		price = booking.Price
	}

	cents, err := toCents(price)
	if err != nil {
		return nil, err
	}

	gctx, cancel := withTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	secret, err := s.gateway.CreatePaymentIntent(gctx, cents, s.currency)
	if err != nil {
		metrics.IncGatewayError()
		s.logger.Error().Err(err).Int64("amount_cents", cents).Msg("payment intent failed")
		return nil, newError(KindGateway, gatewayMessage, err)
	}
	return &models.PaymentIntent{ClientSecret: secret}, nil
}

// RecordPayment links a confirmed payment to its booking. The booking is
// locked for the duration; the store applies both writes in one transaction.
func (s *PaymentService) RecordPayment(ctx context.Context, req models.PaymentRequest, caller *Identity) (*models.PaymentResult, error) {
	if caller == nil {
		return nil, newError(KindUnauthorized, "unauthorized access", nil)
	}
	bookingID := strings.TrimSpace(req.BookingID)
	if bookingID == "" {
		return nil, invalid("bookingId is required")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return nil, invalid("transactionId is required")
	}
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, invalid("amount must be positive")
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	if s.locker != nil {
		key := "payment:" + bookingID
		token, err := s.locker.Acquire(ctx, key, s.lockTTL)
		if err != nil {
			return nil, storeError(err, "booking")
		}
		defer func() {
			// Release on a fresh context so an expired request still frees the lock.
			rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
			defer rcancel()
			if err := s.locker.Release(rctx, key, token); err != nil {
				s.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("failed to release payment lock")
			}
		}()
	}

	payment := &models.Payment{
		BookingID:     bookingID,
		TransactionID: strings.TrimSpace(req.TransactionID),
		Amount:        req.Amount,
		Email:         caller.Email,
	}
	modified, err := s.payments.RecordPayment(ctx, payment)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyPaid) {
			s.logger.Warn().Str("booking_id", bookingID).Msg("duplicate payment rejected")
		}
		return nil, storeError(err, "booking")
	}

	s.logger.Info().
		Str("booking_id", bookingID).
		Str("payment_id", payment.ID).
		Float64("amount", payment.Amount).
		Msg("payment recorded")
	metrics.IncPaymentRecorded()
	s.publishEvent(payment)

	return &models.PaymentResult{
		Acknowledged:  true,
		ModifiedCount: modified,
		PaymentID:     payment.ID,
	}, nil
}

func (s *PaymentService) lookupBooking(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	return booking, nil
}

func (s *PaymentService) publishEvent(payment *models.Payment) {
	if s.eventBus == nil {
		return
	}
	payload := events.PaymentEventPayload{
		PaymentID:     payment.ID,
		BookingID:     payment.BookingID,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Email:         payment.Email,
	}
	if err := s.eventBus.PublishJSON(events.EventPaymentRecorded, payload); err != nil {
		s.logger.Error().Err(err).Str("payment_id", payment.ID).Msg("failed to publish payment event")
	}
}

// gatewayMessage is all a caller learns about a gateway failure.
const gatewayMessage = "payment gateway error"

// toCents converts a major-unit price to integer minor units.
func toCents(price float64) (int64, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, invalid("price must be positive")
	}
	cents := math.Round(price * 100)
	if cents < 1 || cents > math.MaxInt64/2 {
		return 0, invalid("price is out of range")
	}
	return int64(cents), nil
}
