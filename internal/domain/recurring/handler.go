package recurring

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"visitor-gate/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/me/recurring", func(mr chi.Router) {
		mr.Get("/", listRulesHandler(svc))
		mr.Post("/", addRuleHandler(svc))
		mr.Get("/today", todayHandler(svc))
	})
	r.Post("/recurring/{ruleID}/toggle", toggleRuleHandler(svc))
}

type addRuleRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Schedule   string `json:"schedule"`
	TimeWindow string `json:"time_window"`
	PhotoURL   string `json:"photo_url"`
}

type ruleResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Role          string     `json:"role,omitempty"`
	Schedule      string     `json:"schedule"`
	ScheduleLabel string     `json:"schedule_label"`
	TimeWindow    string     `json:"time_window"`
	PhotoURL      string     `json:"photo_url,omitempty"`
	IsActive      bool       `json:"is_active"`
	NextVisit     *time.Time `json:"next_visit,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ruleListResponse struct {
	RecurringVisitors []ruleResponse `json:"recurring_visitors"`
	Count             int            `json:"count"`
}

func listRulesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rules, err := svc.List(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRuleList(svc, rules))
	}
}

func addRuleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rule, err := svc.Add(r.Context(), NewRule{
			ResidentID: claims.UserID,
			Name:       req.Name,
			Role:       req.Role,
			Schedule:   req.Schedule,
			TimeWindow: req.TimeWindow,
			PhotoURL:   req.PhotoURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRuleResponse(svc, rule))
	}
}

func toggleRuleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rule, err := svc.Toggle(r.Context(), claims.UserID, chi.URLParam(r, "ruleID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRuleResponse(svc, rule))
	}
}

func todayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rules, err := svc.PreAuthorized(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRuleList(svc, rules))
	}
}

func toRuleList(svc *Service, rules []Rule) ruleListResponse {
	out := ruleListResponse{
		RecurringVisitors: make([]ruleResponse, 0, len(rules)),
		Count:             len(rules),
	}
	for _, r := range rules {
		out.RecurringVisitors = append(out.RecurringVisitors, toRuleResponse(svc, r))
	}
	return out
}

func toRuleResponse(svc *Service, r Rule) ruleResponse {
	resp := ruleResponse{
		ID:            r.ID,
		Name:          r.Name,
		Role:          r.Role,
		Schedule:      r.Schedule,
		ScheduleLabel: r.Recurrence.Label(),
		TimeWindow:    r.Window.String(),
		PhotoURL:      r.PhotoURL,
		IsActive:      r.Active,
		CreatedAt:     r.CreatedAt,
	}
	if next, ok := svc.NextVisitOf(r); ok {
		resp.NextVisit = &next
	}
	return resp
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "upstream error", http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
