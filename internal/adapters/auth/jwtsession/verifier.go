package jwtsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"visitor-gate/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("session secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims es el payload del token de sesión del backend:
// {"user_id": 3, "user_type": "resident", "exp": ...}.
type Claims struct {
	UserID   any    `json:"user_id"`
	UserType string `json:"user_type"`
	Phone    string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// Verifier valida tokens HS256 con el secreto compartido del backend.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithJSONNumber(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	uid := userIDString(c.UserID)
	if uid == "" {
		return auth.Claims{}, fmt.Errorf("%w: user_id missing", ErrInvalidToken)
	}
	role := auth.ParseRole(c.UserType)
	if role == "" {
		return auth.Claims{}, fmt.Errorf("%w: unknown user_type %q", ErrInvalidToken, c.UserType)
	}

	return auth.Claims{UserID: uid, Role: role, Token: token}, nil
}

// Issue firma un token de sesión con el mismo formato que el backend.
// Lo usa gatectl para sesiones de desarrollo.
func (v *Verifier) Issue(userID string, role auth.Role, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || role == "" {
		return "", errors.New("user id and role are required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be greater than zero")
	}

	var uid any = userID
	if n, err := strconv.ParseInt(userID, 10, 64); err == nil {
		uid = n
	}

	now := v.now().UTC()
	claims := Claims{
		UserID:   uid,
		UserType: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func userIDString(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
