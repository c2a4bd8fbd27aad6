package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"clinicbook/internal/logging"
	"clinicbook/internal/service"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Kind    service.Kind `json:"kind"`
	Message string       `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders a service failure. Internal failures are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, fallback *zerolog.Logger, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)
	message := service.MessageOf(err)

	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), fallback).Error().
			Err(err).
			Str("kind", string(kind)).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	if kind == service.KindInternal {
		message = "internal error"
	}

	writeJSON(w, status, errorResponse{Kind: kind, Message: message})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInvalid:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindGateway:
		return http.StatusBadGateway
	case service.KindTransientStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON document into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeBadBody(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Kind:    service.KindInvalid,
		Message: "invalid JSON body: " + err.Error(),
	})
}
