package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/persistence"
)

type availabilityService interface {
	CreateRule(ctx context.Context, params application.CreateRuleParams) (persistence.AvailabilityRule, error)
	UpdateRule(ctx context.Context, params application.UpdateRuleParams) (persistence.AvailabilityRule, error)
	GetRule(ctx context.Context, principal application.Principal, ruleID string) (persistence.AvailabilityRule, error)
	DeleteRule(ctx context.Context, principal application.Principal, ruleID string) error
	ListRules(ctx context.Context, principal application.Principal, weekday string) ([]persistence.AvailabilityRule, error)
	AddException(ctx context.Context, params application.AddExceptionParams) (persistence.ExceptionDate, error)
	RemoveException(ctx context.Context, principal application.Principal, date string) error
	ListExceptions(ctx context.Context, principal application.Principal) ([]persistence.ExceptionDate, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger)}
}

func (h *AvailabilityHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	rule, err := h.service.CreateRule(r.Context(), application.CreateRuleParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRuleResponse(rule))
}

func (h *AvailabilityHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	rule, err := h.service.UpdateRule(r.Context(), application.UpdateRuleParams{
		Principal: principal,
		RuleID:    ruleID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRuleResponse(rule))
}

func (h *AvailabilityHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	rule, err := h.service.GetRule(r.Context(), principal, ruleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRuleResponse(rule))
}

func (h *AvailabilityHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteRule(r.Context(), principal, ruleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AvailabilityHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	weekday := strings.TrimSpace(r.URL.Query().Get("weekday"))

	rules, err := h.service.ListRules(r.Context(), principal, weekday)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		payload = append(payload, toRuleResponse(rule))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ruleListResponse{Rules: payload})
}

func (h *AvailabilityHandler) AddException(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req exceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	exception, err := h.service.AddException(r.Context(), application.AddExceptionParams{
		Principal: principal,
		Input:     application.ExceptionInput{Date: req.Date, Reason: req.Reason},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toExceptionResponse(exception))
}

func (h *AvailabilityHandler) RemoveException(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := DateFromContext(r.Context())
	if !ok || strings.TrimSpace(date) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.RemoveException(r.Context(), principal, date); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AvailabilityHandler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	exceptions, err := h.service.ListExceptions(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]exceptionResponse, 0, len(exceptions))
	for _, exception := range exceptions {
		payload = append(payload, toExceptionResponse(exception))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, exceptionListResponse{Exceptions: payload})
}

type ruleRequest struct {
	Weekday string `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Active  *bool  `json:"active"`
}

func (req ruleRequest) toInput() application.RuleInput {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return application.RuleInput{
		Weekday: req.Weekday,
		Start:   req.Start,
		End:     req.End,
		Active:  active,
	}
}

type ruleResponse struct {
	ID        string `json:"id"`
	Weekday   string `json:"weekday"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Active    bool   `json:"active"`
	Recurring bool   `json:"recurring"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ruleListResponse struct {
	Rules []ruleResponse `json:"rules"`
}

func toRuleResponse(rule persistence.AvailabilityRule) ruleResponse {
	return ruleResponse{
		ID:        rule.ID,
		Weekday:   strings.ToLower(rule.Weekday.String()),
		Start:     rule.Start.String(),
		End:       rule.End.String(),
		Active:    rule.Active,
		Recurring: rule.Recurring,
		CreatedAt: rule.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: rule.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type exceptionRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type exceptionResponse struct {
	Date      string `json:"date"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

type exceptionListResponse struct {
	Exceptions []exceptionResponse `json:"exceptions"`
}

func toExceptionResponse(exception persistence.ExceptionDate) exceptionResponse {
	return exceptionResponse{
		Date:      exception.Date.String(),
		Reason:    exception.Reason,
		CreatedAt: exception.CreatedAt.UTC().Format(time.RFC3339),
	}
}
