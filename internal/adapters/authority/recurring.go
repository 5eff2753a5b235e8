package authority

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"visitor-gate/internal/domain/recurring"
	"visitor-gate/internal/platform/httpclient"
)

type recurringItem struct {
	ID         flexID    `json:"id"`
	ResidentID flexID    `json:"resident_id"`
	Name       string    `json:"name"`
	Role       *string   `json:"role"`
	Schedule   string    `json:"schedule"`
	TimeWindow *string   `json:"time_window"`
	PhotoURL   *string   `json:"photo_url"`
	IsActive   bool      `json:"is_active"`
	NextVisit  *string   `json:"next_visit"`
	CreatedAt  timestamp `json:"created_at"`
}

type recurringList struct {
	RecurringVisitors []recurringItem `json:"recurring_visitors"`
	Count             int             `json:"count"`
}

type recurringCreate struct {
	ResidentID flexID  `json:"resident_id"`
	Name       string  `json:"name"`
	Role       *string `json:"role,omitempty"`
	Schedule   string  `json:"schedule"`
	TimeWindow string  `json:"time_window"`
	PhotoURL   *string `json:"photo_url,omitempty"`
}

func (c *Client) ListRecurring(ctx context.Context, residentID string) ([]recurring.Rule, error) {
	var out recurringList
	path := "/recurring-visitors/?resident_id=" + url.QueryEscape(strings.TrimSpace(residentID))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	rules := make([]recurring.Rule, 0, len(out.RecurringVisitors))
	for _, it := range out.RecurringVisitors {
		rules = append(rules, toRule(it))
	}
	return rules, nil
}

func (c *Client) AddRecurring(ctx context.Context, in recurring.NewRule) (recurring.Rule, error) {
	body := recurringCreate{
		ResidentID: flexID(in.ResidentID),
		Name:       in.Name,
		Schedule:   in.Schedule,
		TimeWindow: in.TimeWindow,
	}
	if in.Role != "" {
		body.Role = &in.Role
	}
	if in.PhotoURL != "" {
		body.PhotoURL = &in.PhotoURL
	}

	var out recurringItem
	if err := c.postJSON(ctx, "/recurring-visitors/", body, &out); err != nil {
		return recurring.Rule{}, err
	}
	if out.ID == "" {
		return recurring.Rule{}, fmt.Errorf("%w: missing recurring id", ErrBadPayload)
	}
	r := toRule(out)
	if r.Role == "" {
		r.Role = in.Role
	}
	return r, nil
}

// SetRecurringActive usa PUT /recurring-visitors/{id}?is_active=.
func (c *Client) SetRecurringActive(ctx context.Context, id string, active bool) error {
	path := "/recurring-visitors/" + url.PathEscape(strings.TrimSpace(id)) + "?is_active=" + strconv.FormatBool(active)
	return c.putJSON(httpclient.WithRoute(ctx, routeRecurringVisitor), path, nil, nil)
}

func toRule(it recurringItem) recurring.Rule {
	return recurring.Rule{
		ID:         string(it.ID),
		ResidentID: string(it.ResidentID),
		Name:       it.Name,
		Role:       stringOrEmpty(it.Role),
		Schedule:   it.Schedule,
		TimeWindow: stringOrEmpty(it.TimeWindow),
		PhotoURL:   stringOrEmpty(it.PhotoURL),
		Active:     it.IsActive,
		CreatedAt:  it.CreatedAt.Time,
	}
}
