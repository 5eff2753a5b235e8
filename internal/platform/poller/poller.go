package poller

import (
	"context"
	"sync"
	"time"
)

// Func ejecuta un poll. done=true detiene el loop sin esperar otro tick.
// Si ctx ya fue cancelado al volver la llamada, el resultado debe descartarse.
type Func func(ctx context.Context) (done bool, err error)

// Poller ejecuta Func inmediatamente y luego cada Interval hasta que Func
// reporte done, se cancele el ctx o se llame Stop.
type Poller struct {
	interval time.Duration
	fn       Func
	onError  func(error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

func New(interval time.Duration, fn Func, onError func(error)) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Poller{
		interval: interval,
		fn:       fn,
		onError:  onError,
		done:     make(chan struct{}),
	}
}

// Start lanza el loop en background. Llamadas repetidas no hacen nada.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop cancela el loop y espera a que termine. Es idempotente.
// No llamarlo desde dentro de Func (se bloquearía esperando a sí mismo).
func (p *Poller) Stop() {
	p.mu.Lock()
	started := p.started
	cancel := p.cancel
	p.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-p.done
}

// Done se cierra cuando el loop terminó (por done, ctx o Stop).
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)
	defer p.cancel()

	if p.tick(ctx) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tick(ctx) {
				return
			}
		}
	}
}

// tick devuelve true si el loop debe terminar.
func (p *Poller) tick(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	done, err := p.fn(ctx)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		p.onError(err)
	}
	return done
}
