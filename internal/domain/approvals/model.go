package approvals

import (
	"fmt"
	"strings"
	"time"
)

// RawStatus es el estado guardado por la autoridad. Solo cambia una vez:
// pending -> approved | denied.
type RawStatus string

const (
	RawPending  RawStatus = "pending"
	RawApproved RawStatus = "approved"
	RawDenied   RawStatus = "denied"
)

// ParseRawStatus decodifica el status de la autoridad. Cualquier otro valor
// se rechaza con ErrUnknownStatus.
func ParseRawStatus(s string) (RawStatus, error) {
	switch RawStatus(strings.ToLower(strings.TrimSpace(s))) {
	case RawPending:
		return RawPending, nil
	case RawApproved:
		return RawApproved, nil
	case RawDenied:
		return RawDenied, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Terminal indica que el resident ya actuó.
func (s RawStatus) Terminal() bool {
	return s == RawApproved || s == RawDenied
}

// EffectiveStatus se deriva, nunca se guarda.
type EffectiveStatus string

const (
	StatusApproved EffectiveStatus = "APPROVED"
	StatusPending  EffectiveStatus = "PENDING"
	StatusDenied   EffectiveStatus = "DENIED"
	StatusExpired  EffectiveStatus = "EXPIRED"
)

// Approval es una copia read-through de una solicitud de admisión.
// La autoridad es la fuente de verdad; tras cualquier mutación local se
// considera stale.
type Approval struct {
	ID        string
	VisitorID string

	VisitorName string
	Purpose     string
	Phone       string
	AptNumber   string
	PhotoRef    string // vacío si no hubo foto

	ResidentName string

	Status     RawStatus
	ValidFrom  *time.Time // solo si Status == approved
	ValidUntil *time.Time // solo si Status == approved; nil => sin vencimiento

	// Lo que reportó la autoridad; informativo, el cliente usa Effective.
	IsValidNow bool

	CreatedAt time.Time
}

// Effective aplica la ventana de validez contra now.
func (a Approval) Effective(now time.Time) EffectiveStatus {
	return Resolve(a.Status, a.ValidFrom, a.ValidUntil, now)
}

// PendingApproval es un ítem de la lista que ve el resident.
type PendingApproval struct {
	ID           string
	VisitorID    string
	VisitorName  string
	VisitorPhone string
	Purpose      string
	PhotoRef     string
	Method       string
	CreatedAt    time.Time
}

type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionDeny    DecisionAction = "deny"
)

// Decision queda en el journal local cuando la autoridad confirmó la acción.
type Decision struct {
	ID         string
	ApprovalID string
	ResidentID string
	Action     DecisionAction
	ValidUntil *time.Time
	Reason     string
	CreatedAt  time.Time
}
