package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clinicbook/internal/models"
	"clinicbook/internal/service"

	"github.com/go-chi/chi/v5"
)

type insertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type updateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type deleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

const healthTimeout = 2 * time.Second

func (s *HTTPServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("clinicbook server is running\n"))
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.services.Store == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.services.Store.PingContext(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleAppointmentOptions(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	options, err := s.services.Availability.ListAvailability(r.Context(), date)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

func (s *HTTPServer) handleSpecialties(w http.ResponseWriter, r *http.Request) {
	names, err := s.services.Availability.ListSpecialties(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	out := make([]map[string]string, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]string{"name": name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleOwnerBookings(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	bookings, err := s.services.Bookings.GetBookingsForOwner(r.Context(), email, identityFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// handleCreateBooking answers 200 for duplicates too; the body carries
// acknowledged=false and the reason.
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	result, err := s.services.Bookings.CreateBooking(r.Context(), req)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.services.Bookings.GetBookingByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	data, err := s.services.Bookings.ExportBookings(r.Context(), date)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "bookings-"+date+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *HTTPServer) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	token, err := s.services.Auth.IssueToken(r.Context(), email)
	if err != nil {
		if service.KindOf(err) == service.KindForbidden {
			writeJSON(w, http.StatusForbidden, map[string]string{"accessToken": ""})
			return
		}
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.services.Directory.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := decodeJSON(r, &user); err != nil {
		writeBadBody(w, err)
		return
	}

	created, err := s.services.Directory.CreateUser(r.Context(), user)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, insertResult{Acknowledged: true, InsertedID: created.ID})
}

func (s *HTTPServer) handleIsAdmin(w http.ResponseWriter, r *http.Request) {
	isAdmin, err := s.services.Directory.IsAdmin(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": isAdmin})
}

func (s *HTTPServer) handlePromote(w http.ResponseWriter, r *http.Request) {
	modified, err := s.services.Directory.PromoteToAdmin(r.Context(), chi.URLParam(r, "id"), identityFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updateResult{Acknowledged: true, ModifiedCount: modified})
}

func (s *HTTPServer) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := s.services.Directory.ListDoctors(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

func (s *HTTPServer) handleAddDoctor(w http.ResponseWriter, r *http.Request) {
	var doctor models.Doctor
	if err := decodeJSON(r, &doctor); err != nil {
		writeBadBody(w, err)
		return
	}

	created, err := s.services.Directory.AddDoctor(r.Context(), doctor)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, insertResult{Acknowledged: true, InsertedID: created.ID})
}

func (s *HTTPServer) handleRemoveDoctor(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.services.Directory.RemoveDoctor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResult{Acknowledged: true, DeletedCount: deleted})
}

func (s *HTTPServer) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	intent, err := s.services.Payments.CreatePaymentIntent(r.Context(), req)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

func (s *HTTPServer) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	result, err := s.services.Payments.RecordPayment(r.Context(), req, identityFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
