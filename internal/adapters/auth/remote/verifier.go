package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"visitor-gate/internal/platform/httpclient"
	"visitor-gate/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("remote verifier not configured")
	ErrTokenEmpty    = errors.New("token is empty")
	ErrUnauthorized  = errors.New("remote unauthorized")
)

// MeResolver resuelve un token a claims (GET /auth/me de la autoridad).
type MeResolver interface {
	Me(ctx context.Context, token string) (auth.Claims, error)
}

// Verifier implementa auth.AuthVerifier preguntándole a la autoridad.
type Verifier struct {
	client MeResolver
}

func NewVerifier(client MeResolver) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.Me(ctx, token)
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("remote verify failed: %w", err)
	}

	claims.UserID = strings.TrimSpace(claims.UserID)
	if claims.UserID == "" {
		return auth.Claims{}, errors.New("remote claims missing user id")
	}
	if claims.Role == "" {
		return auth.Claims{}, errors.New("remote claims missing role")
	}
	claims.Token = token
	return claims, nil
}
