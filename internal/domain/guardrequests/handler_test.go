package guardrequests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"visitor-gate/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(o *Orchestrator, detector Authority) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, o, detector)
	RegisterResidentRoutes(r, o)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "capture.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(photo)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestRequestApproval_OversizedPhoto_Is413(t *testing.T) {
	fa := &fakeAuthority{}
	h := newTestRouter(NewOrchestrator(fa, nil, nil, Options{}), fa)

	body, ct := multipartBody(t, map[string]string{
		"visitor_name": "Ahmed", "purpose": "Delivery", "apt_number": "501",
	}, bytes.Repeat([]byte{0xFF}, maxPhotoBytes+1))

	req := httptest.NewRequest(http.MethodPost, "/guard/request-approval", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(fa.calls) != 0 {
		t.Fatalf("truncated photo must not reach the authority, got %v", fa.calls)
	}
}

func TestRequestApproval_PhotoAtLimit_IsAccepted(t *testing.T) {
	fa := &fakeAuthority{}
	h := newTestRouter(NewOrchestrator(fa, nil, nil, Options{}), fa)

	body, ct := multipartBody(t, map[string]string{
		"visitor_name": "Ahmed", "purpose": "Delivery", "apt_number": "501",
	}, bytes.Repeat([]byte{0xFF}, maxPhotoBytes))

	req := httptest.NewRequest(http.MethodPost, "/guard/request-approval", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestFaceDetect_OversizedPhoto_Is413(t *testing.T) {
	fa := &fakeAuthority{}
	h := newTestRouter(NewOrchestrator(fa, nil, nil, Options{}), fa)

	body, ct := multipartBody(t, nil, bytes.Repeat([]byte{0xFF}, maxPhotoBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/guard/face-detect", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestPreApprove_Handler(t *testing.T) {
	fa := &fakeAuthority{}
	h := newTestRouter(NewOrchestrator(fa, nil, nil, Options{}), fa)

	// sin sesión
	req := httptest.NewRequest(http.MethodPost, "/me/visitors", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	withResident := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/me/visitors", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req.WithContext(auth.WithClaims(req.Context(), auth.Claims{UserID: "r1", Role: auth.RoleResident}))
	}

	// falta apt_number
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, withResident(`{"visitor_name":"Sara","purpose":"Guest"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(fa.calls) != 0 {
		t.Fatalf("expected no network calls, got %v", fa.calls)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, withResident(`{"visitor_name":"Sara","purpose":"Guest","apt_number":"501"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"approval_id":"ar1"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
