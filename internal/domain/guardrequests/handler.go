package guardrequests

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"visitor-gate/internal/middleware"
	"visitor-gate/internal/ports/camera"

	"github.com/go-chi/chi/v5"
)

const maxPhotoBytes = 10 << 20

var ErrPhotoTooLarge = errors.New("photo too large")

func RegisterRoutes(r chi.Router, o *Orchestrator, detector Authority) {
	r.Post("/guard/face-detect", faceDetectHandler(detector))
	r.Post("/guard/request-approval", requestApprovalHandler(o))
}

// RegisterResidentRoutes: el resident pre-aprueba a un visitante.
func RegisterResidentRoutes(r chi.Router, o *Orchestrator) {
	r.Post("/me/visitors", preApproveHandler(o))
}

type faceDetectResponse struct {
	Detected       bool   `json:"detected"`
	FaceCount      int    `json:"face_count"`
	AnnotatedImage string `json:"annotated_image,omitempty"`
}

type requestApprovalResponse struct {
	ApprovalID   string `json:"approval_id"`
	VisitorID    string `json:"visitor_id"`
	FaceDetected bool   `json:"face_detected"`
}

func faceDetectHandler(detector Authority) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}

		img, err := readPhoto(r)
		if err != nil {
			http.Error(w, err.Error(), photoErrorStatus(err))
			return
		}
		if img == nil {
			http.Error(w, "photo required", http.StatusBadRequest)
			return
		}

		v, err := detector.DetectFace(r.Context(), *img)
		if err != nil {
			// detección es advisory: el guard puede seguir sin ella
			http.Error(w, "face detection unavailable", http.StatusBadGateway)
			return
		}

		out := faceDetectResponse{Detected: v.Detected, FaceCount: v.FaceCount}
		if len(v.AnnotatedPreview) > 0 {
			out.AnnotatedImage = base64.StdEncoding.EncodeToString(v.AnnotatedPreview)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func requestApprovalHandler(o *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, img, err := parseRequestApproval(r)
		if err != nil {
			http.Error(w, err.Error(), photoErrorStatus(err))
			return
		}

		res, err := o.Submit(r.Context(), form, img)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "could not create approval request", http.StatusBadGateway)
			}
			return
		}

		writeJSON(w, http.StatusCreated, requestApprovalResponse{
			ApprovalID:   res.ApprovalID,
			VisitorID:    res.VisitorID,
			FaceDetected: res.FaceDetected,
		})
	}
}

type preApproveRequest struct {
	VisitorName  string `json:"visitor_name"`
	VisitorPhone string `json:"visitor_phone"`
	Purpose      string `json:"purpose"`
	AptNumber    string `json:"apt_number"`
}

func preApproveHandler(o *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body preApproveRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := o.PreApprove(r.Context(), claims.UserID, Form{
			VisitorName: body.VisitorName,
			Purpose:     body.Purpose,
			Phone:       body.VisitorPhone,
			AptNumber:   body.AptNumber,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "could not create approval request", http.StatusBadGateway)
			}
			return
		}

		writeJSON(w, http.StatusCreated, requestApprovalResponse{
			ApprovalID: res.ApprovalID,
			VisitorID:  res.VisitorID,
		})
	}
}

func photoErrorStatus(err error) int {
	if errors.Is(err, ErrPhotoTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// parseRequestApproval acepta multipart (con foto) o JSON (sin foto).
func parseRequestApproval(r *http.Request) (Form, *camera.Frame, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			VisitorName  string `json:"visitor_name"`
			VisitorPhone string `json:"visitor_phone"`
			Purpose      string `json:"purpose"`
			AptNumber    string `json:"apt_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return Form{}, nil, errors.New("invalid json")
		}
		return Form{
			VisitorName: body.VisitorName,
			Purpose:     body.Purpose,
			Phone:       body.VisitorPhone,
			AptNumber:   body.AptNumber,
		}, nil, nil
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		return Form{}, nil, errors.New("invalid multipart form")
	}
	img, err := readPhoto(r)
	if err != nil {
		return Form{}, nil, err
	}
	return Form{
		VisitorName: r.FormValue("visitor_name"),
		Purpose:     r.FormValue("purpose"),
		Phone:       r.FormValue("visitor_phone"),
		AptNumber:   r.FormValue("apt_number"),
	}, img, nil
}

// readPhoto devuelve nil si no vino el campo photo.
func readPhoto(r *http.Request) (*camera.Frame, error) {
	f, hdr, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid photo")
	}
	defer f.Close()

	if hdr.Size > maxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		return nil, errors.New("invalid photo")
	}
	if len(data) > maxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}

	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return &camera.Frame{Data: data, ContentType: ct}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
