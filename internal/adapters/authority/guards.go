package authority

import (
	"context"
	"net/url"
	"strings"

	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/domain/statuscheck"
)

type searchResponse struct {
	Results []searchResult `json:"results"`
	Count   int            `json:"count"`
}

type searchResult struct {
	VisitorID      flexID          `json:"visitor_id"`
	Name           string          `json:"name"`
	Phone          *string         `json:"phone"`
	PhotoURL       *string         `json:"photo_url"`
	LatestApproval *latestApproval `json:"latest_approval"`
}

type latestApproval struct {
	ApprovalID flexID    `json:"approval_id"`
	Status     string    `json:"status"`
	IsValidNow bool      `json:"is_valid_now"`
	ValidUntil timestamp `json:"valid_until"`
	AptNumber  *string   `json:"apt_number"`
}

// Search busca visitantes por nombre o apartamento. Una solicitud con status
// desconocido se descarta (el visitante queda sin latest).
func (c *Client) Search(ctx context.Context, query string) ([]statuscheck.Visitor, error) {
	var out searchResponse
	path := "/guards/search?query=" + url.QueryEscape(strings.TrimSpace(query))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	visitors := make([]statuscheck.Visitor, 0, len(out.Results))
	for _, r := range out.Results {
		v := statuscheck.Visitor{
			ID:       string(r.VisitorID),
			Name:     r.Name,
			Phone:    stringOrEmpty(r.Phone),
			PhotoURL: stringOrEmpty(r.PhotoURL),
		}
		if la := r.LatestApproval; la != nil {
			if st, err := decodeStatus(la.Status); err == nil {
				a := &approvals.Approval{
					ID:          string(la.ApprovalID),
					VisitorID:   v.ID,
					VisitorName: v.Name,
					Phone:       v.Phone,
					PhotoRef:    v.PhotoURL,
					AptNumber:   stringOrEmpty(la.AptNumber),
					Status:      st,
					IsValidNow:  la.IsValidNow,
				}
				if st == approvals.RawApproved {
					a.ValidUntil = la.ValidUntil.ptr()
				}
				v.Latest = a
			}
		}
		visitors = append(visitors, v)
	}
	return visitors, nil
}

type expectedResponse struct {
	Date          string         `json:"date"`
	TotalExpected int            `json:"total_expected"`
	Pending       []expectedItem `json:"pending"`
	Approved      []expectedItem `json:"approved"`
}

type expectedItem struct {
	ApprovalID   flexID    `json:"approval_id"`
	Status       string    `json:"status"`
	VisitorName  string    `json:"visitor_name"`
	Purpose      *string   `json:"purpose"`
	PhotoURL     *string   `json:"photo_url"`
	AptNumber    string    `json:"apt_number"`
	ResidentName string    `json:"resident_name"`
	ValidFrom    timestamp `json:"valid_from"`
	ValidUntil   timestamp `json:"valid_until"`
	CreatedAt    timestamp `json:"created_at"`
}

// ExpectedToday trae las solicitudes pending y approved creadas hoy (UTC),
// primero las approved. Las de status desconocido se descartan.
func (c *Client) ExpectedToday(ctx context.Context) ([]approvals.Approval, error) {
	var out expectedResponse
	if err := c.getJSON(ctx, "/guards/expected-today", &out); err != nil {
		return nil, err
	}

	items := make([]approvals.Approval, 0, len(out.Approved)+len(out.Pending))
	for _, group := range [][]expectedItem{out.Approved, out.Pending} {
		for _, it := range group {
			st, err := decodeStatus(it.Status)
			if err != nil || it.ApprovalID == "" {
				continue
			}
			a := approvals.Approval{
				ID:           string(it.ApprovalID),
				VisitorName:  it.VisitorName,
				Purpose:      stringOrEmpty(it.Purpose),
				PhotoRef:     stringOrEmpty(it.PhotoURL),
				AptNumber:    it.AptNumber,
				ResidentName: it.ResidentName,
				Status:       st,
				CreatedAt:    it.CreatedAt.Time,
			}
			if st == approvals.RawApproved {
				a.ValidFrom = it.ValidFrom.ptr()
				a.ValidUntil = it.ValidUntil.ptr()
			}
			items = append(items, a)
		}
	}
	return items, nil
}
