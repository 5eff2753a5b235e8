package approvals

import "time"

// Resolve es puro y total. validUntil nil en un approved = sin vencimiento.
// now == validUntil sigue siendo APPROVED.
//
// validFrom no participa: una aprobación no "vuelve" a pending antes de su
// inicio, así el resultado solo puede avanzar con el tiempo (APPROVED -> EXPIRED).
func Resolve(raw RawStatus, validFrom, validUntil *time.Time, now time.Time) EffectiveStatus {
	switch raw {
	case RawDenied:
		return StatusDenied
	case RawApproved:
		if validUntil == nil || !now.After(*validUntil) {
			return StatusApproved
		}
		return StatusExpired
	default:
		return StatusPending
	}
}

// WindowFrom calcula valid_until = now + d. Lo usa quien llama a Approve;
// el controller no elige duraciones.
func WindowFrom(now time.Time, d time.Duration) time.Time {
	return now.Add(d)
}
