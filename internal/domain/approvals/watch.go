package approvals

import (
	"context"
	"strings"
	"time"

	"visitor-gate/internal/platform/poller"
)

// StatusSource es el check-status de la autoridad.
type StatusSource interface {
	CheckStatus(ctx context.Context, visitorID string) (Approval, error)
}

// WatchVisitor consulta el estado de la última solicitud del visitante cada
// interval y llama onUpdate con cada resultado. Se detiene solo cuando el
// status crudo es terminal (approved/denied), o al cancelar ctx.
func WatchVisitor(
	ctx context.Context,
	src StatusSource,
	visitorID string,
	interval time.Duration,
	now func() time.Time,
	onUpdate func(Approval, EffectiveStatus),
	onError func(error),
) (*poller.Poller, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, ErrInvalidInput
	}
	if now == nil {
		now = time.Now
	}

	p := poller.New(interval, func(ctx context.Context) (bool, error) {
		rec, err := src.CheckStatus(ctx, visitorID)
		if err != nil {
			return false, err
		}
		if ctx.Err() != nil {
			return true, nil
		}
		if onUpdate != nil {
			onUpdate(rec, rec.Effective(now()))
		}
		return rec.Status.Terminal(), nil
	}, onError)

	p.Start(ctx)
	return p, nil
}
