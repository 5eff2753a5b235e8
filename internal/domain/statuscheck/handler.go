package statuscheck

import (
	"encoding/json"
	"net/http"
	"time"

	"visitor-gate/internal/domain/approvals"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/guard/search", searchHandler(svc))
	r.Get("/guard/visitors/{visitorID}/status", visitorStatusHandler(svc))
	r.Get("/guard/expected-today", expectedTodayHandler(svc))
}

type visitorResponse struct {
	VisitorID string `json:"visitor_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

type outcomeResponse struct {
	Found      bool                      `json:"found"`
	Visitor    *visitorResponse          `json:"visitor,omitempty"`
	ApprovalID string                    `json:"approval_id,omitempty"`
	Status     approvals.EffectiveStatus `json:"status,omitempty"`
	ValidUntil *time.Time                `json:"valid_until,omitempty"`
	AptNumber  string                    `json:"apt_number,omitempty"`
}

func searchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Search(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			http.Error(w, "search unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, toOutcomeResponse(out))
	}
}

func visitorStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.VisitorStatus(r.Context(), chi.URLParam(r, "visitorID"))
		if err != nil {
			http.Error(w, "status unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, toOutcomeResponse(out))
	}
}

type arrivalResponse struct {
	ApprovalID   string                    `json:"approval_id"`
	VisitorName  string                    `json:"visitor_name"`
	Purpose      string                    `json:"purpose,omitempty"`
	AptNumber    string                    `json:"apt_number"`
	ResidentName string                    `json:"resident_name,omitempty"`
	Status       approvals.EffectiveStatus `json:"status"`
	ValidFrom    *time.Time                `json:"valid_from,omitempty"`
	ValidUntil   *time.Time                `json:"valid_until,omitempty"`
}

type expectedTodayResponse struct {
	Count    int               `json:"count"`
	Arrivals []arrivalResponse `json:"arrivals"`
}

func expectedTodayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		arrivals, err := svc.ExpectedToday(r.Context())
		if err != nil {
			http.Error(w, "expected arrivals unavailable", http.StatusBadGateway)
			return
		}

		out := expectedTodayResponse{Count: len(arrivals), Arrivals: make([]arrivalResponse, 0, len(arrivals))}
		for _, a := range arrivals {
			out.Arrivals = append(out.Arrivals, arrivalResponse{
				ApprovalID:   a.Approval.ID,
				VisitorName:  a.Approval.VisitorName,
				Purpose:      a.Approval.Purpose,
				AptNumber:    a.Approval.AptNumber,
				ResidentName: a.Approval.ResidentName,
				Status:       a.Status,
				ValidFrom:    a.Approval.ValidFrom,
				ValidUntil:   a.Approval.ValidUntil,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toOutcomeResponse(o Outcome) outcomeResponse {
	if !o.Found {
		return outcomeResponse{Found: false}
	}
	resp := outcomeResponse{
		Found: true,
		Visitor: &visitorResponse{
			VisitorID: o.Visitor.ID,
			Name:      o.Visitor.Name,
			Phone:     o.Visitor.Phone,
			PhotoURL:  o.Visitor.PhotoURL,
		},
		Status: o.Status,
	}
	if a := o.Approval; a != nil {
		resp.ApprovalID = a.ID
		resp.ValidUntil = a.ValidUntil
		resp.AptNumber = a.AptNumber
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
