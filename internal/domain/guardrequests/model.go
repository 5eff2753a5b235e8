package guardrequests

import (
	"time"

	"visitor-gate/internal/domain/approvals"
)

// Form son los datos que carga el guard.
type Form struct {
	VisitorName string
	Purpose     string
	Phone       string // opcional
	AptNumber   string
}

// Result de Submit.
type Result struct {
	ApprovalID   string
	VisitorID    string
	FaceDetected bool
}

// CreateRequest es el payload de create-approval-request.
type CreateRequest struct {
	VisitorName  string
	VisitorPhone string
	Purpose      string
	AptNumber    string
}

// Created es la respuesta de create-approval-request.
type Created struct {
	ApprovalID string
	VisitorID  string
	Status     approvals.RawStatus
}

// Submission queda en el journal local después de crear la solicitud.
type Submission struct {
	ID             string
	RequestID      string
	ApprovalID     string
	VisitorID      string
	VisitorName    string
	AptNumber      string
	FaceDetected   bool
	PhotoPersisted bool
	CreatedAt      time.Time
}
