package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/persistence"
)

type settingsService interface {
	Get(ctx context.Context, principal application.Principal) (persistence.Settings, error)
	Update(ctx context.Context, params application.UpdateSettingsParams) (persistence.Settings, error)
}

type SettingsHandler struct {
	service   settingsService
	responder responder
}

func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, responder: newResponder(logger)}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	settings, err := h.service.Get(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsResponse(settings))
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	settings, err := h.service.Update(r.Context(), application.UpdateSettingsParams{
		Principal: principal,
		Input: application.SettingsInput{
			SlotDurationMinutes: req.SlotDurationMinutes,
			MaxBookingsPerSlot:  req.MaxBookingsPerSlot,
			Timezone:            req.Timezone,
			MinLeadMinutes:      req.MinLeadMinutes,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsResponse(settings))
}

type settingsRequest struct {
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	MaxBookingsPerSlot  int    `json:"max_bookings_per_slot"`
	Timezone            string `json:"timezone"`
	MinLeadMinutes      int    `json:"min_lead_minutes"`
}

type settingsResponse struct {
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	MaxBookingsPerSlot  int    `json:"max_bookings_per_slot"`
	Timezone            string `json:"timezone"`
	MinLeadMinutes      int    `json:"min_lead_minutes"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

func toSettingsResponse(settings persistence.Settings) settingsResponse {
	return settingsResponse{
		SlotDurationMinutes: settings.SlotDurationMinutes,
		MaxBookingsPerSlot:  settings.MaxBookingsPerSlot,
		Timezone:            settings.Timezone,
		MinLeadMinutes:      settings.MinLeadMinutes,
		CreatedAt:           settings.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           settings.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
