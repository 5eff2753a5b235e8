package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"visitor-gate/internal/platform/httpclient"
	"visitor-gate/internal/ports/auth"
)

type fakeMe struct {
	claims auth.Claims
	err    error
}

func (f fakeMe) Me(ctx context.Context, token string) (auth.Claims, error) {
	return f.claims, f.err
}

func TestVerifier_Verify_OK(t *testing.T) {
	v := NewVerifier(fakeMe{claims: auth.Claims{UserID: " 3 ", Role: auth.RoleResident}})

	c, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c.UserID != "3" || c.Token != "tok" {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestVerifier_Verify_Unauthorized(t *testing.T) {
	upstream := fmt.Errorf("upstream: %w", &httpclient.HTTPError{StatusCode: http.StatusUnauthorized})
	v := NewVerifier(fakeMe{err: upstream})

	if _, err := v.Verify(context.Background(), "tok"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifier_Verify_RequiresRole(t *testing.T) {
	v := NewVerifier(fakeMe{claims: auth.Claims{UserID: "3"}})

	if _, err := v.Verify(context.Background(), "tok"); err == nil {
		t.Fatalf("expected error for missing role")
	}
}

func TestVerifier_Verify_EmptyToken(t *testing.T) {
	v := NewVerifier(fakeMe{})
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}
