package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	maxResponseBody = 8 << 20 // 8MB: annotated_image viene en base64
)

// Observer recibe una notificación por request (métricas, logs).
// status es 0 si no hubo respuesta.
type Observer func(method, path string, status int, elapsed time.Duration, err error)

type routeKey struct{}

// WithRoute fija la plantilla de ruta que recibe el Observer en lugar del
// path real (p.ej. "/visitors/check-status/{visitor_id}").
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// Client envuelve *http.Client con helpers JSON y multipart para adapters.
type Client struct {
	HTTP    *http.Client
	BaseURL string // opcional; si se define, los helpers aceptan paths relativos

	Observe Observer
}

// New crea un Client con timeout razonable.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewWithBaseURL crea un Client con BaseURL + timeout.
func NewWithBaseURL(baseURL string, timeout time.Duration) (*Client, error) {
	c := New(timeout)
	if strings.TrimSpace(baseURL) == "" {
		return c, nil
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c, nil
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// StatusCode devuelve el status de un *HTTPError envuelto en err (0 si no hay).
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// File es una parte binaria de un form multipart.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Form es el cuerpo de un POST multipart/form-data.
type Form struct {
	Fields map[string]string
	Files  []File
}

// DoJSON hace un request JSON.
// - pathOrURL: URL absoluta o path relativo si BaseURL está seteado
// - in: body a enviar (nil => sin body)
// - out: donde decodificar JSON (nil => ignora body)
// Retorna *HTTPError si status no es 2xx.
func (c *Client) DoJSON(
	ctx context.Context,
	method string,
	pathOrURL string,
	headers map[string]string,
	in any,
	out any,
) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	contentType := ""
	if in != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, pathOrURL, headers, contentType, body, out)
}

// DoMultipart hace un POST multipart/form-data y decodifica la respuesta JSON en out.
func (c *Client) DoMultipart(
	ctx context.Context,
	pathOrURL string,
	headers map[string]string,
	form Form,
	out any,
) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range form.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("httpclient: write field %s: %w", k, err)
		}
	}
	for _, f := range form.Files {
		if err := writeFilePart(mw, f); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("httpclient: close multipart: %w", err)
	}

	return c.do(ctx, http.MethodPost, pathOrURL, headers, mw.FormDataContentType(), &buf, out)
}

func writeFilePart(mw *multipart.Writer, f File) error {
	name := f.Name
	if strings.TrimSpace(name) == "" {
		name = "upload.bin"
	}
	ct := f.ContentType
	if strings.TrimSpace(ct) == "" {
		ct = http.DetectContentType(f.Data)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, name))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("httpclient: create part %s: %w", f.Field, err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("httpclient: write part %s: %w", f.Field, err)
	}
	return nil
}

func (c *Client) do(
	ctx context.Context,
	method string,
	pathOrURL string,
	headers map[string]string,
	contentType string,
	body io.Reader,
	out any,
) (err error) {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	status := 0
	start := time.Now()
	if c.Observe != nil {
		defer func() {
			c.Observe(method, routeOf(ctx, pathOrURL), status, time.Since(start), err)
		}()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		if strings.TrimSpace(k) == "" || v == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := readAtMost(resp.Body, maxResponseBody)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}

	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL, nil
}

// routeOf es la etiqueta de métricas: la plantilla del ctx o, si no hay, el
// path sin query con los segmentos que llevan dígitos reemplazados por ":id".
func routeOf(ctx context.Context, pathOrURL string) string {
	if r, ok := ctx.Value(routeKey{}).(string); ok && r != "" {
		return r
	}
	if i := strings.IndexByte(pathOrURL, '?'); i >= 0 {
		pathOrURL = pathOrURL[:i]
	}
	segs := strings.Split(pathOrURL, "/")
	for i, seg := range segs {
		if strings.ContainsAny(seg, "0123456789") {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

func readAtMost(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = 1 << 20
	}
	return io.ReadAll(io.LimitReader(r, max))
}
