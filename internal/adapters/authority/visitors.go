package authority

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/domain/guardrequests"
	"visitor-gate/internal/platform/httpclient"
)

type requestApprovalBody struct {
	VisitorName  string  `json:"visitor_name"`
	VisitorPhone *string `json:"visitor_phone,omitempty"`
	Purpose      string  `json:"purpose"`
	AptNumber    string  `json:"apt_number"`
}

type approvalResponse struct {
	ID        flexID `json:"id"`
	VisitorID flexID `json:"visitor_id"`
	Status    string `json:"status"`
}

// RequestApproval crea la solicitud (status pending).
func (c *Client) RequestApproval(ctx context.Context, in guardrequests.CreateRequest) (guardrequests.Created, error) {
	body := requestApprovalBody{
		VisitorName: in.VisitorName,
		Purpose:     in.Purpose,
		AptNumber:   in.AptNumber,
	}
	if p := strings.TrimSpace(in.VisitorPhone); p != "" {
		body.VisitorPhone = &p
	}

	var out approvalResponse
	if err := c.postJSON(ctx, "/visitors/request-approval", body, &out); err != nil {
		return guardrequests.Created{}, err
	}
	if out.ID == "" {
		return guardrequests.Created{}, fmt.Errorf("%w: missing approval id", ErrBadPayload)
	}
	st, err := decodeStatus(out.Status)
	if err != nil {
		return guardrequests.Created{}, err
	}

	return guardrequests.Created{
		ApprovalID: string(out.ID),
		VisitorID:  string(out.VisitorID),
		Status:     st,
	}, nil
}

type approveBody struct {
	ApprovalID flexID `json:"approval_id"`
	ValidUntil string `json:"valid_until"`
}

type denyBody struct {
	ApprovalID flexID  `json:"approval_id"`
	Reason     *string `json:"reason,omitempty"`
}

func (c *Client) Approve(ctx context.Context, approvalID string, validUntil time.Time) error {
	return c.postJSON(ctx, "/visitors/approve", approveBody{
		ApprovalID: flexID(approvalID),
		ValidUntil: formatNaiveUTC(validUntil),
	}, nil)
}

func (c *Client) Deny(ctx context.Context, approvalID, reason string) error {
	body := denyBody{ApprovalID: flexID(approvalID)}
	if r := strings.TrimSpace(reason); r != "" {
		body.Reason = &r
	}
	return c.postJSON(ctx, "/visitors/deny", body, nil)
}

type statusResponse struct {
	ApprovalID   flexID    `json:"approval_id"`
	Status       string    `json:"status"`
	VisitorName  string    `json:"visitor_name"`
	Purpose      *string   `json:"purpose"`
	PhotoURL     *string   `json:"photo_url"`
	ValidFrom    timestamp `json:"valid_from"`
	ValidUntil   timestamp `json:"valid_until"`
	IsValidNow   bool      `json:"is_valid_now"`
	AptNumber    string    `json:"apt_number"`
	ResidentName string    `json:"resident_name"`
}

// CheckStatus trae la última solicitud del visitante. 404 si no tiene.
func (c *Client) CheckStatus(ctx context.Context, visitorID string) (approvals.Approval, error) {
	var out statusResponse
	path := "/visitors/check-status/" + url.PathEscape(strings.TrimSpace(visitorID))
	if err := c.getJSON(httpclient.WithRoute(ctx, routeCheckStatus), path, &out); err != nil {
		return approvals.Approval{}, err
	}

	st, err := decodeStatus(out.Status)
	if err != nil {
		return approvals.Approval{}, err
	}

	a := approvals.Approval{
		ID:           string(out.ApprovalID),
		VisitorID:    strings.TrimSpace(visitorID),
		VisitorName:  out.VisitorName,
		Purpose:      stringOrEmpty(out.Purpose),
		PhotoRef:     stringOrEmpty(out.PhotoURL),
		AptNumber:    out.AptNumber,
		ResidentName: out.ResidentName,
		Status:       st,
		IsValidNow:   out.IsValidNow,
	}
	// la ventana solo tiene sentido en approved
	if st == approvals.RawApproved {
		a.ValidFrom = out.ValidFrom.ptr()
		a.ValidUntil = out.ValidUntil.ptr()
	}
	return a, nil
}

type pendingResponse struct {
	ResidentID   flexID        `json:"resident_id"`
	PendingCount int           `json:"pending_count"`
	Approvals    []pendingItem `json:"approvals"`
}

type pendingItem struct {
	ApprovalID     flexID    `json:"approval_id"`
	VisitorID      flexID    `json:"visitor_id"`
	VisitorName    string    `json:"visitor_name"`
	VisitorPhone   *string   `json:"visitor_phone"`
	Purpose        *string   `json:"purpose"`
	PhotoURL       *string   `json:"photo_url"`
	CreatedAt      timestamp `json:"created_at"`
	ApprovalMethod *string   `json:"approval_method"`
}

// PendingApprovals lista las solicitudes pending del resident.
func (c *Client) PendingApprovals(ctx context.Context, residentID string) ([]approvals.PendingApproval, error) {
	var out pendingResponse
	path := "/residents/" + url.PathEscape(strings.TrimSpace(residentID)) + "/pending-approvals"
	if err := c.getJSON(httpclient.WithRoute(ctx, routePendingApprovals), path, &out); err != nil {
		return nil, err
	}

	items := make([]approvals.PendingApproval, 0, len(out.Approvals))
	for _, it := range out.Approvals {
		if it.ApprovalID == "" {
			continue
		}
		items = append(items, approvals.PendingApproval{
			ID:           string(it.ApprovalID),
			VisitorID:    string(it.VisitorID),
			VisitorName:  it.VisitorName,
			VisitorPhone: stringOrEmpty(it.VisitorPhone),
			Purpose:      stringOrEmpty(it.Purpose),
			PhotoRef:     stringOrEmpty(it.PhotoURL),
			Method:       stringOrEmpty(it.ApprovalMethod),
			CreatedAt:    it.CreatedAt.Time,
		})
	}
	return items, nil
}
