package authority

import (
	"context"
	"fmt"
	"strings"

	"visitor-gate/internal/ports/auth"
)

type meResponse struct {
	UserID   flexID `json:"user_id"`
	UserType string `json:"user_type"`
}

// Me resuelve el token contra GET /auth/me.
func (c *Client) Me(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	ctx = auth.WithClaims(ctx, auth.Claims{Token: token})

	var out meResponse
	if err := c.getJSON(ctx, "/auth/me", &out); err != nil {
		return auth.Claims{}, err
	}
	if out.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing user_id", ErrBadPayload)
	}
	return auth.Claims{
		UserID: string(out.UserID),
		Role:   auth.ParseRole(out.UserType),
		Token:  token,
	}, nil
}
