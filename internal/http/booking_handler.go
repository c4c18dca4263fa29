package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/application"
)

type bookingService interface {
	ListAvailableSlots(ctx context.Context, params application.ListSlotsParams) ([]application.SlotAvailability, error)
	RequestBooking(ctx context.Context, input application.BookingInput) (application.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger)}
}

// ListSlots answers the public availability query. The same handler serves
// /admin/slots; there the admin middleware has attached a principal, which
// unlocks include_full.
func (h *BookingHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildSlotParams(r.URL.Query(), principal)

	slots, err := h.service.ListAvailableSlots(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		payload = append(payload, toSlotResponse(slot))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotListResponse{Slots: payload})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	booking, err := h.service.RequestBooking(r.Context(), application.BookingInput{
		SlotStart: req.SlotStart,
		SlotEnd:   req.SlotEnd,
		SubjectID: req.SubjectID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	booking, err := h.service.CancelBooking(r.Context(), bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	bookings, err := h.service.ListBookings(r.Context(), application.ListBookingsParams{
		Principal: principal,
		From:      strings.TrimSpace(query.Get("from")),
		To:        strings.TrimSpace(query.Get("to")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]bookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		payload = append(payload, toBookingResponse(booking))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingListResponse{Bookings: payload})
}

func buildSlotParams(query url.Values, principal application.Principal) application.ListSlotsParams {
	return application.ListSlotsParams{
		Principal:   principal,
		From:        strings.TrimSpace(query.Get("from")),
		To:          strings.TrimSpace(query.Get("to")),
		IncludeFull: query.Get("include_full") == "true",
	}
}

type bookingRequest struct {
	SlotStart string `json:"slot_start"`
	SlotEnd   string `json:"slot_end"`
	SubjectID string `json:"subject_id"`
}

type bookingResponse struct {
	ID          string  `json:"id"`
	SlotStart   string  `json:"slot_start"`
	SlotEnd     string  `json:"slot_end"`
	SubjectID   string  `json:"subject_id"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

type bookingListResponse struct {
	Bookings []bookingResponse `json:"bookings"`
}

func toBookingResponse(booking application.Booking) bookingResponse {
	resp := bookingResponse{
		ID:        booking.ID,
		SlotStart: booking.SlotStart.UTC().Format(time.RFC3339),
		SlotEnd:   booking.SlotEnd.UTC().Format(time.RFC3339),
		SubjectID: booking.SubjectID,
		Status:    booking.Status,
		CreatedAt: booking.CreatedAt.UTC().Format(time.RFC3339),
	}
	if booking.CancelledAt != nil {
		cancelledAt := booking.CancelledAt.UTC().Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}
	return resp
}

type slotResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
}

type slotListResponse struct {
	Slots []slotResponse `json:"slots"`
}

func toSlotResponse(slot application.SlotAvailability) slotResponse {
	return slotResponse{
		Start:     slot.Start.UTC().Format(time.RFC3339),
		End:       slot.End.UTC().Format(time.RFC3339),
		Capacity:  slot.Capacity,
		Booked:    slot.Booked,
		Remaining: slot.Remaining,
	}
}
