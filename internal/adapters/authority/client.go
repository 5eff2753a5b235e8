package authority

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"visitor-gate/internal/platform/httpclient"
	"visitor-gate/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("authority client not configured")
	// ErrUpstream envuelve cualquier fallo de transporte o respuesta no-2xx.
	// El *httpclient.HTTPError original sigue accesible con errors.As.
	ErrUpstream = errors.New("authority upstream error")
	// ErrDetectRejected: la autoridad respondió pero no pudo procesar la imagen.
	ErrDetectRejected = errors.New("face detection rejected")
	ErrBadPayload     = errors.New("authority payload invalid")
)

// Config del cliente de la autoridad.
type Config struct {
	BaseURL string // incluye el prefijo /api
	Timeout time.Duration

	// Opcional: métricas por request.
	Observe httpclient.Observer

	// Opcional: token fijo (CLI). Si el ctx trae claims con token, gana el del ctx.
	Token string
}

// Client habla con el backend de visitantes. Reenvía el bearer de la sesión
// y un X-Request-ID para correlacionar logs.
type Client struct {
	http  *httpclient.Client
	token string
}

// Plantillas de ruta para las métricas de llamadas con ids en el path.
const (
	routeCheckStatus      = "/visitors/check-status/{visitor_id}"
	routePendingApprovals = "/residents/{resident_id}/pending-approvals"
	routeRecurringVisitor = "/recurring-visitors/{id}"
)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	hc.Observe = cfg.Observe

	return &Client{
		http:  hc,
		token: strings.TrimSpace(cfg.Token),
	}, nil
}

func (c *Client) headers(ctx context.Context) map[string]string {
	h := map[string]string{}

	token := auth.TokenFrom(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		h["Authorization"] = "Bearer " + token
	}

	reqID := chimw.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	h["X-Request-ID"] = reqID
	return h
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return wrap(c.http.DoJSON(ctx, http.MethodGet, path, c.headers(ctx), nil, out))
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	return wrap(c.http.DoJSON(ctx, http.MethodPost, path, c.headers(ctx), in, out))
}

func (c *Client) putJSON(ctx context.Context, path string, in, out any) error {
	return wrap(c.http.DoJSON(ctx, http.MethodPut, path, c.headers(ctx), in, out))
}

func (c *Client) postMultipart(ctx context.Context, path string, form httpclient.Form, out any) error {
	return wrap(c.http.DoMultipart(ctx, path, c.headers(ctx), form, out))
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
