package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var stripeTracer = otel.Tracer("clinicbook.internal.payments.stripe")

// ErrGateway wraps every failed call to the payment provider.
var ErrGateway = errors.New("payment gateway error")

// StripeClient creates PaymentIntents through the Stripe REST API. Calls are
// made exactly once; a failed request is reported, never retried.
type StripeClient struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewStripeClient(secretKey string, timeout time.Duration, logger *zerolog.Logger) *StripeClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &StripeClient{
		secretKey:  secretKey,
		baseURL:    "https://api.stripe.com",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *StripeClient) WithBaseURL(baseURL string) *StripeClient {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// CreatePaymentIntent returns the client secret of a new card PaymentIntent.
func (s *StripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_payment_intent")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("clinicbook.amount_cents", amountCents),
		attribute.String("clinicbook.currency", currency),
	)

	secret, err := s.createPaymentIntent(ctx, amountCents, currency)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().Err(err).Int64("amount_cents", amountCents).Msg("stripe payment intent failed")
		return "", fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return secret, nil
}

func (s *StripeClient) createPaymentIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Add("payment_method_types[]", "card")

	apiURL := s.baseURL + "/v1/payment_intents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var parsed stripeErrorBody
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("stripe api status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("stripe api status %d: %s", resp.StatusCode, string(body))
	}

	var parsed stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("stripe decode: %w", err)
	}
	if parsed.ClientSecret == "" {
		return "", fmt.Errorf("stripe response missing client secret")
	}

	s.logger.Debug().Str("payment_intent", parsed.ID).Msg("stripe payment intent created")
	return parsed.ClientSecret, nil
}
