package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_DoJSON_DecodesAndSendsHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer header, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a1"}`))
	}))
	defer ts.Close()

	c, err := NewWithBaseURL(ts.URL, time.Second)
	if err != nil {
		t.Fatalf("NewWithBaseURL: %v", err)
	}

	var out struct {
		ID string `json:"id"`
	}
	err = c.DoJSON(context.Background(), http.MethodPost, "things", map[string]string{
		"Authorization": "Bearer tok",
	}, map[string]string{"x": "y"}, &out)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.ID != "a1" {
		t.Fatalf("expected id a1, got %q", out.ID)
	}
}

func TestClient_DoJSON_Non2xxIsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, _ := NewWithBaseURL(ts.URL, time.Second)

	var observed int
	c.Observe = func(method, path string, status int, _ time.Duration, _ error) {
		observed = status
		if path != "/x" {
			t.Errorf("expected path without query, got %q", path)
		}
	}

	err := c.DoJSON(context.Background(), http.MethodGet, "/x?q=1", nil, nil, nil)
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if he.StatusCode != http.StatusBadGateway || he.Body != "boom" {
		t.Fatalf("unexpected http error: %+v", he)
	}
	if StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("StatusCode helper mismatch")
	}
	if observed != http.StatusBadGateway {
		t.Fatalf("observer not called with status, got %d", observed)
	}
}

func TestClient_DoMultipart_SendsFieldsAndFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("visitor_id") != "42" {
			t.Errorf("expected visitor_id=42, got %q", r.FormValue("visitor_id"))
		}
		f, hdr, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if string(b) != "jpegbytes" || hdr.Filename != "capture.jpg" {
			t.Errorf("unexpected file %q %q", hdr.Filename, string(b))
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer ts.Close()

	c, _ := NewWithBaseURL(ts.URL, time.Second)

	var out struct {
		Success bool `json:"success"`
	}
	err := c.DoMultipart(context.Background(), "/face/capture", nil, Form{
		Fields: map[string]string{"visitor_id": "42"},
		Files: []File{{
			Field:       "photo",
			Name:        "capture.jpg",
			ContentType: "image/jpeg",
			Data:        []byte("jpegbytes"),
		}},
	}, &out)
	if err != nil {
		t.Fatalf("DoMultipart: %v", err)
	}
	if !out.Success {
		t.Fatalf("expected success")
	}
}

func TestClient_RelativePathRequiresBaseURL(t *testing.T) {
	c := New(time.Second)
	if err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil); err == nil {
		t.Fatalf("expected error without BaseURL")
	}
}

func TestClient_Observer_RouteLabel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, _ := NewWithBaseURL(ts.URL, time.Second)
	var got []string
	c.Observe = func(_, path string, _ int, _ time.Duration, _ error) {
		got = append(got, path)
	}

	ctx := context.Background()
	_ = c.DoJSON(WithRoute(ctx, "/things/{id}"), http.MethodGet, "/things/123", nil, nil, nil)
	_ = c.DoJSON(ctx, http.MethodGet, "/things/456/items?x=1", nil, nil, nil)
	_ = c.DoJSON(ctx, http.MethodGet, "/auth/me", nil, nil, nil)

	want := []string{"/things/{id}", "/things/:id/items", "/auth/me"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
