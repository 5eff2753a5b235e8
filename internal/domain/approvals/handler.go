package approvals

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"visitor-gate/internal/middleware"
	"visitor-gate/internal/platform/httpclient"

	"github.com/go-chi/chi/v5"
)

type HandlerOptions struct {
	// DefaultWindow se usa cuando approve no trae valid_until ni minutes.
	DefaultWindow time.Duration
	Now           func() time.Time
}

func RegisterRoutes(r chi.Router, sessions *Sessions, opts HandlerOptions) {
	if opts.DefaultWindow <= 0 {
		opts.DefaultWindow = 90 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r.Get("/me/approvals", listPendingHandler(sessions))

	r.Route("/approvals/{approvalID}", func(ar chi.Router) {
		ar.Post("/approve", approveHandler(sessions, opts))
		ar.Post("/deny", denyHandler(sessions))
	})
}

type pendingItemResponse struct {
	ApprovalID     string    `json:"approval_id"`
	VisitorID      string    `json:"visitor_id"`
	VisitorName    string    `json:"visitor_name"`
	VisitorPhone   string    `json:"visitor_phone,omitempty"`
	Purpose        string    `json:"purpose"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	ApprovalMethod string    `json:"approval_method,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Busy           bool      `json:"busy"`
}

type pendingListResponse struct {
	ResidentID   string                `json:"resident_id"`
	PendingCount int                   `json:"pending_count"`
	Approvals    []pendingItemResponse `json:"approvals"`
}

type approveRequest struct {
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Minutes    int        `json:"minutes,omitempty"`
}

type denyRequest struct {
	Reason string `json:"reason,omitempty"`
}

type decisionResponse struct {
	ApprovalID string     `json:"approval_id"`
	Status     RawStatus  `json:"status"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

func listPendingHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctl := sessions.For(claims.UserID)
		items, err := ctl.Refresh(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		out := pendingListResponse{
			ResidentID:   claims.UserID,
			PendingCount: len(items),
			Approvals:    make([]pendingItemResponse, 0, len(items)),
		}
		for _, it := range items {
			out.Approvals = append(out.Approvals, pendingItemResponse{
				ApprovalID:     it.ID,
				VisitorID:      it.VisitorID,
				VisitorName:    it.VisitorName,
				VisitorPhone:   it.VisitorPhone,
				Purpose:        it.Purpose,
				PhotoURL:       it.PhotoRef,
				ApprovalMethod: it.Method,
				CreatedAt:      it.CreatedAt,
				Busy:           ctl.IsBusy(it.ID),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func approveHandler(sessions *Sessions, opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req approveRequest
		if err := decodeOptionalJSON(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Minutes < 0 {
			http.Error(w, "minutes must be positive", http.StatusBadRequest)
			return
		}

		now := opts.Now()
		var validUntil time.Time
		switch {
		case req.ValidUntil != nil:
			validUntil = req.ValidUntil.UTC()
			if !validUntil.After(now) {
				http.Error(w, "valid_until must be in the future", http.StatusBadRequest)
				return
			}
		case req.Minutes > 0:
			validUntil = WindowFrom(now, time.Duration(req.Minutes)*time.Minute)
		default:
			validUntil = WindowFrom(now, opts.DefaultWindow)
		}

		id := chi.URLParam(r, "approvalID")
		ctl := sessions.For(claims.UserID)

		err := ctl.Approve(r.Context(), id, validUntil)
		if errors.Is(err, ErrNotFound) {
			// el set local puede estar vacío si el resident no listó antes
			if _, rerr := ctl.Refresh(r.Context()); rerr == nil {
				err = ctl.Approve(r.Context(), id, validUntil)
			}
		}
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, decisionResponse{
			ApprovalID: id,
			Status:     RawApproved,
			ValidUntil: &validUntil,
		})
	}
}

func denyHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req denyRequest
		if err := decodeOptionalJSON(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "approvalID")
		ctl := sessions.For(claims.UserID)

		err := ctl.Deny(r.Context(), id, req.Reason)
		if errors.Is(err, ErrNotFound) {
			if _, rerr := ctl.Refresh(r.Context()); rerr == nil {
				err = ctl.Deny(r.Context(), id, req.Reason)
			}
		}
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, decisionResponse{
			ApprovalID: id,
			Status:     RawDenied,
		})
	}
}

// decodeOptionalJSON acepta body vacío.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrClosed):
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	default:
		// la autoridad responde 400 cuando la solicitud ya no está pending
		switch httpclient.StatusCode(err) {
		case http.StatusBadRequest:
			http.Error(w, "approval request is not pending", http.StatusConflict)
		case http.StatusNotFound:
			http.Error(w, "not found", http.StatusNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			http.Error(w, "upstream error", http.StatusBadGateway)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
