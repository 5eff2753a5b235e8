package approvals

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"visitor-gate/internal/platform/ids"
	"visitor-gate/internal/platform/logger"
	"visitor-gate/internal/platform/metrics"
	"visitor-gate/internal/platform/poller"
)

// Authority es lo que el controller necesita del backend.
type Authority interface {
	PendingApprovals(ctx context.Context, residentID string) ([]PendingApproval, error)
	Approve(ctx context.Context, approvalID string, validUntil time.Time) error
	Deny(ctx context.Context, approvalID, reason string) error
	CheckStatus(ctx context.Context, visitorID string) (Approval, error)
}

// followKey no colisiona con ids de la autoridad (no pueden ser vacíos).
const followKey = ""

// Controller es la vista de un resident sobre sus solicitudes pendientes.
//
// Invariantes:
//   - a lo sumo una acción en vuelo por id; una segunda se rechaza sin tocar la red
//   - un ítem sale del set solo cuando la autoridad confirmó
//   - un id resuelto no vuelve a entrar por un fetch atrasado
type Controller struct {
	residentID string
	authority  Authority
	decisions  DecisionRepository // opcional
	log        logger.Logger
	now        func() time.Time

	mu       sync.Mutex
	pending  *PendingSet
	inflight map[string]struct{}
	resolved map[string]struct{}
	watchers map[string]*poller.Poller
	closed   bool
}

func NewController(residentID string, authority Authority, decisions DecisionRepository, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Discard()
	}
	return &Controller{
		residentID: residentID,
		authority:  authority,
		decisions:  decisions,
		log:        log.With(map[string]any{"resident_id": residentID}),
		now:        time.Now,
		pending:    NewPendingSet(),
		inflight:   map[string]struct{}{},
		resolved:   map[string]struct{}{},
		watchers:   map[string]*poller.Poller{},
	}
}

func (c *Controller) ResidentID() string { return c.residentID }

// Refresh trae la lista de la autoridad y reemplaza el set local.
// Los ítems con acción en vuelo se conservan aunque el fetch no los traiga.
func (c *Controller) Refresh(ctx context.Context) ([]PendingApproval, error) {
	items, err := c.authority.PendingApprovals(ctx, c.residentID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	kept := make([]PendingApproval, 0, len(items))
	for _, it := range items {
		if _, gone := c.resolved[it.ID]; gone {
			continue
		}
		kept = append(kept, it)
	}
	for id := range c.inflight {
		if it, ok := c.pending.Get(id); ok && !containsID(kept, id) {
			kept = append(kept, it)
		}
	}
	c.pending.Replace(kept)
	return c.pending.List(), nil
}

// Pending es la lista local en orden de llegada.
func (c *Controller) Pending() []PendingApproval {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.List()
}

// IsBusy indica si hay una acción en vuelo para id (la UI deshabilita ambos botones).
func (c *Controller) IsBusy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Approve aprueba con validUntil. validUntil lo decide quien llama.
func (c *Controller) Approve(ctx context.Context, id string, validUntil time.Time) error {
	id = strings.TrimSpace(id)
	if id == "" || validUntil.IsZero() {
		return ErrInvalidInput
	}
	if err := c.begin(id); err != nil {
		return err
	}
	defer c.end(id)

	if err := c.authority.Approve(ctx, id, validUntil); err != nil {
		c.log.Warn("approve failed", map[string]any{"approval_id": id, "err": err})
		return err
	}

	vu := validUntil
	c.settle(ctx, Decision{
		ApprovalID: id,
		Action:     ActionApprove,
		ValidUntil: &vu,
	})
	return nil
}

// Deny rechaza. reason es opcional.
func (c *Controller) Deny(ctx context.Context, id, reason string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if err := c.begin(id); err != nil {
		return err
	}
	defer c.end(id)

	if err := c.authority.Deny(ctx, id, strings.TrimSpace(reason)); err != nil {
		c.log.Warn("deny failed", map[string]any{"approval_id": id, "err": err})
		return err
	}

	c.settle(ctx, Decision{
		ApprovalID: id,
		Action:     ActionDeny,
		Reason:     strings.TrimSpace(reason),
	})
	return nil
}

func (c *Controller) begin(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, busy := c.inflight[id]; busy {
		return ErrInFlight
	}
	if !c.pending.Has(id) {
		return ErrNotFound
	}
	c.inflight[id] = struct{}{}
	return nil
}

func (c *Controller) end(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

// settle saca el ítem del set y anota la decisión en el journal (best-effort).
// Con el controller cerrado el set no se toca; el journal sí.
func (c *Controller) settle(ctx context.Context, d Decision) {
	c.mu.Lock()
	if !c.closed {
		c.pending.Remove(d.ApprovalID)
		c.resolved[d.ApprovalID] = struct{}{}
	}
	c.mu.Unlock()

	if c.decisions == nil {
		return
	}
	d.ResidentID = c.residentID
	d.CreatedAt = c.now().UTC()
	d.ID = ids.NewAt(d.CreatedAt)
	if err := c.decisions.RecordDecision(ctx, d); err != nil {
		metrics.AdvisoryFailure(metrics.KindJournal)
		c.log.Warn("decision journal write failed", map[string]any{"approval_id": d.ApprovalID, "err": err})
	}
}

// Watch consulta check-status del visitante hasta que la solicitud id deje
// de estar pending. Al resolverse (p.ej. desde otro dispositivo) sale del set.
// Si ya había un watch para id, se reemplaza.
func (c *Controller) Watch(ctx context.Context, id, visitorID string, interval time.Duration) (*poller.Poller, error) {
	id = strings.TrimSpace(id)
	visitorID = strings.TrimSpace(visitorID)
	if id == "" || visitorID == "" {
		return nil, ErrInvalidInput
	}

	p := poller.New(interval, func(ctx context.Context) (bool, error) {
		rec, err := c.authority.CheckStatus(ctx, visitorID)
		if err != nil {
			return false, err
		}
		if ctx.Err() != nil {
			return true, nil
		}
		if rec.ID != id || !rec.Status.Terminal() {
			return false, nil
		}

		c.mu.Lock()
		if !c.closed {
			c.pending.Remove(id)
			c.resolved[id] = struct{}{}
		}
		c.mu.Unlock()
		return true, nil
	}, func(err error) {
		c.log.Warn("status poll failed", map[string]any{"approval_id": id, "err": err})
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	prev := c.watchers[id]
	c.watchers[id] = p
	c.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	p.Start(ctx)
	go c.forget(id, p)
	return p, nil
}

// WatchPending arranca un Watch por cada ítem del set que todavía no tiene
// uno. Devuelve cuántos arrancó.
func (c *Controller) WatchPending(ctx context.Context, interval time.Duration) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	var todo []PendingApproval
	for _, it := range c.pending.List() {
		if _, ok := c.watchers[it.ID]; ok || it.VisitorID == "" {
			continue
		}
		todo = append(todo, it)
	}
	c.mu.Unlock()

	started := 0
	for _, it := range todo {
		if _, err := c.Watch(ctx, it.ID, it.VisitorID, interval); err != nil {
			if errors.Is(err, ErrClosed) {
				return started, err
			}
			continue
		}
		started++
	}
	return started, nil
}

// Follow refresca la lista cada interval hasta Close o cancelación de ctx.
func (c *Controller) Follow(ctx context.Context, interval time.Duration) (*poller.Poller, error) {
	p := poller.New(interval, func(ctx context.Context) (bool, error) {
		_, err := c.Refresh(ctx)
		if errors.Is(err, ErrClosed) {
			return true, nil
		}
		return false, err
	}, func(err error) {
		c.log.Warn("pending refresh failed", map[string]any{"err": err})
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	prev := c.watchers[followKey]
	c.watchers[followKey] = p
	c.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	p.Start(ctx)
	go c.forget(followKey, p)
	return p, nil
}

// forget saca al poller de watchers cuando termina, salvo que ya lo hayan
// reemplazado.
func (c *Controller) forget(key string, p *poller.Poller) {
	<-p.Done()
	c.mu.Lock()
	if c.watchers[key] == p {
		delete(c.watchers, key)
	}
	c.mu.Unlock()
}

// idle: sin acciones en vuelo ni pollers activos.
func (c *Controller) idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight) == 0 && len(c.watchers) == 0
}

// Close detiene todos los watches. Llamadas posteriores devuelven ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	ws := make([]*poller.Poller, 0, len(c.watchers))
	for _, p := range c.watchers {
		ws = append(ws, p)
	}
	c.watchers = map[string]*poller.Poller{}
	c.mu.Unlock()

	for _, p := range ws {
		p.Stop()
	}
}

func containsID(items []PendingApproval, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
