package guardrequests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"visitor-gate/internal/domain/capture"
	"visitor-gate/internal/platform/ids"
	"visitor-gate/internal/platform/logger"
	"visitor-gate/internal/platform/metrics"
	"visitor-gate/internal/ports/camera"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

const DefaultDetectTimeout = 5 * time.Second

// Authority son las tres llamadas remotas que acopla Submit.
type Authority interface {
	capture.Detector
	RequestApproval(ctx context.Context, in CreateRequest) (Created, error)
	CapturePhoto(ctx context.Context, visitorID string, img camera.Frame) error
}

type Options struct {
	DetectTimeout time.Duration
}

// Orchestrator arma el flujo del guard: detección (opcional, advisory),
// creación de la solicitud (fatal si falla) y foto (best-effort).
// No reintenta nada.
type Orchestrator struct {
	authority   Authority
	submissions SubmissionRepository // opcional
	log         logger.Logger

	detectTimeout time.Duration
	now           func() time.Time
	newRequestID  func() string
}

func NewOrchestrator(authority Authority, submissions SubmissionRepository, log logger.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = logger.Discard()
	}
	if opts.DetectTimeout <= 0 {
		opts.DetectTimeout = DefaultDetectTimeout
	}
	return &Orchestrator{
		authority:     authority,
		submissions:   submissions,
		log:           log,
		detectTimeout: opts.DetectTimeout,
		now:           time.Now,
		newRequestID:  uuid.NewString,
	}
}

// Submit valida antes de cualquier llamada de red; still es opcional.
func (o *Orchestrator) Submit(ctx context.Context, form Form, still *camera.Frame) (Result, error) {
	form = normalizeForm(form)
	if err := validateForm(form); err != nil {
		return Result{}, err
	}
	if still != nil && len(still.Data) == 0 {
		still = nil
	}

	reqID := o.newRequestID()
	log := o.log.With(map[string]any{"request_id": reqID})

	faceDetected := false
	if still != nil {
		faceDetected = o.detect(ctx, log, *still)
	}

	created, err := o.authority.RequestApproval(ctx, CreateRequest{
		VisitorName:  form.VisitorName,
		VisitorPhone: form.Phone,
		Purpose:      form.Purpose,
		AptNumber:    form.AptNumber,
	})
	if err != nil {
		log.Warn("create approval request failed", map[string]any{"err": err})
		return Result{}, err
	}

	photoPersisted := false
	if still != nil && created.VisitorID != "" {
		photoPersisted = o.persistPhoto(ctx, log, created.VisitorID, *still)
	}

	o.journal(ctx, log, Submission{
		RequestID:      reqID,
		ApprovalID:     created.ApprovalID,
		VisitorID:      created.VisitorID,
		VisitorName:    form.VisitorName,
		AptNumber:      form.AptNumber,
		FaceDetected:   faceDetected,
		PhotoPersisted: photoPersisted,
	})

	log.Info("approval requested", map[string]any{
		"approval_id":   created.ApprovalID,
		"visitor_id":    created.VisitorID,
		"face_detected": faceDetected,
	})

	return Result{
		ApprovalID:   created.ApprovalID,
		VisitorID:    created.VisitorID,
		FaceDetected: faceDetected,
	}, nil
}

// PreApprove crea la solicitud desde el lado del resident: sin foto ni
// detección. La decisión sigue siendo del flujo normal de approve/deny.
func (o *Orchestrator) PreApprove(ctx context.Context, residentID string, form Form) (Result, error) {
	form = normalizeForm(form)
	if err := validateForm(form); err != nil {
		return Result{}, err
	}

	reqID := o.newRequestID()
	log := o.log.With(map[string]any{"request_id": reqID, "resident_id": strings.TrimSpace(residentID)})

	created, err := o.authority.RequestApproval(ctx, CreateRequest{
		VisitorName:  form.VisitorName,
		VisitorPhone: form.Phone,
		Purpose:      form.Purpose,
		AptNumber:    form.AptNumber,
	})
	if err != nil {
		log.Warn("pre-approve request failed", map[string]any{"err": err})
		return Result{}, err
	}

	o.journal(ctx, log, Submission{
		RequestID:   reqID,
		ApprovalID:  created.ApprovalID,
		VisitorID:   created.VisitorID,
		VisitorName: form.VisitorName,
		AptNumber:   form.AptNumber,
	})

	log.Info("visitor pre-approval requested", map[string]any{
		"approval_id": created.ApprovalID,
		"visitor_id":  created.VisitorID,
	})
	return Result{ApprovalID: created.ApprovalID, VisitorID: created.VisitorID}, nil
}

// detect nunca falla: timeout o error => false.
func (o *Orchestrator) detect(ctx context.Context, log logger.Logger, img camera.Frame) bool {
	dctx, cancel := context.WithTimeout(ctx, o.detectTimeout)
	defer cancel()

	v, err := o.authority.DetectFace(dctx, img)
	if err != nil {
		metrics.AdvisoryFailure(metrics.KindFaceDetect)
		log.Warn("face detection failed", map[string]any{"err": err})
		return false
	}
	return v.Detected
}

func (o *Orchestrator) persistPhoto(ctx context.Context, log logger.Logger, visitorID string, img camera.Frame) bool {
	if err := o.authority.CapturePhoto(ctx, visitorID, img); err != nil {
		metrics.AdvisoryFailure(metrics.KindPhotoPersist)
		log.Warn("photo persist failed", map[string]any{"visitor_id": visitorID, "err": err})
		return false
	}
	return true
}

func (o *Orchestrator) journal(ctx context.Context, log logger.Logger, s Submission) {
	if o.submissions == nil {
		return
	}
	now := o.now().UTC()
	s.ID = ids.NewAt(now)
	s.CreatedAt = now
	if err := o.submissions.RecordSubmission(ctx, s); err != nil {
		metrics.AdvisoryFailure(metrics.KindJournal)
		log.Warn("submission journal write failed", map[string]any{"err": err})
	}
}

func normalizeForm(f Form) Form {
	return Form{
		VisitorName: strings.TrimSpace(f.VisitorName),
		Purpose:     strings.TrimSpace(f.Purpose),
		Phone:       strings.TrimSpace(f.Phone),
		AptNumber:   strings.TrimSpace(f.AptNumber),
	}
}

func validateForm(f Form) error {
	var missing []string
	if f.VisitorName == "" {
		missing = append(missing, "visitor_name")
	}
	if f.Purpose == "" {
		missing = append(missing, "purpose")
	}
	if f.AptNumber == "" {
		missing = append(missing, "apt_number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
