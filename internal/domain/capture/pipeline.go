package capture

import (
	"context"
	"errors"
	"sync"

	"visitor-gate/internal/platform/logger"
	"visitor-gate/internal/ports/camera"
)

var (
	// ErrInvalidStage: la acción no aplica en el stage actual. El estado no cambia.
	ErrInvalidStage = errors.New("action not valid in current capture stage")
	ErrClosed       = errors.New("capture pipeline closed")
	// ErrStale: hubo Reset/Close mientras la operación estaba en curso;
	// su resultado se descartó.
	ErrStale = errors.New("capture pipeline reset during operation")
)

// Detector es la detección facial remota. Un rechazo de la autoridad
// (success=false) llega como error.
type Detector interface {
	DetectFace(ctx context.Context, img camera.Frame) (Verdict, error)
}

// Pipeline controla la cámara y la detección de una sesión de captura.
//
// Reglas:
//   - a lo sumo una adquisición en curso
//   - la cámara se libera apenas se congela el frame, antes de detectar
//   - Reset/Close liberan la cámara en cualquier stage
//   - resultados que vuelven después de un Reset/Close se descartan
type Pipeline struct {
	device   camera.Device
	detector Detector
	log      logger.Logger

	mu     sync.Mutex
	stage  Stage
	gen    uint64
	closed bool
}

func New(device camera.Device, detector Detector, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{
		device:   device,
		detector: detector,
		log:      log,
		stage:    Idle{},
	}
}

func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// Still devuelve la última foto congelada, si la hay.
func (p *Pipeline) Still() (camera.Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch v := p.stage.(type) {
	case Detecting:
		return v.Still, true
	case Result:
		return v.Still, true
	case Failed:
		if v.Still != nil {
			return *v.Still, true
		}
	}
	return camera.Frame{}, false
}

// Acquire toma la cámara. Válido desde idle o error. Si falla queda en
// error sin cámara tomada; no reintenta.
func (p *Pipeline) Acquire(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	switch p.stage.(type) {
	case Idle, Failed:
	default:
		p.mu.Unlock()
		return ErrInvalidStage
	}
	p.gen++
	gen := p.gen
	p.stage = Acquiring{}
	p.mu.Unlock()

	stream, err := p.openDevice(ctx)

	p.mu.Lock()
	if p.gen != gen || p.closed {
		p.mu.Unlock()
		if stream != nil {
			stream.Release()
		}
		return ErrStale
	}
	if err != nil {
		p.stage = Failed{Reason: acquireReason(err), Err: err}
		p.mu.Unlock()
		p.log.Warn("camera acquire failed", map[string]any{"err": err})
		return err
	}
	p.stage = Streaming{stream: stream}
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) openDevice(ctx context.Context) (stream camera.Stream, err error) {
	if p.device == nil {
		return nil, camera.ErrNoDevice
	}
	stream, err = p.device.Open(ctx)
	if err != nil && stream != nil {
		stream.Release()
		stream = nil
	}
	return stream, err
}

// Capture congela el frame, libera la cámara y corre la detección.
// Fuera de streaming devuelve ErrInvalidStage sin tocar el estado.
func (p *Pipeline) Capture(ctx context.Context) error {
	p.mu.Lock()
	st, ok := p.stage.(Streaming)
	if !ok || p.closed {
		p.mu.Unlock()
		return ErrInvalidStage
	}
	gen := p.gen
	p.stage = Capturing{stream: st.stream}
	p.mu.Unlock()

	frame, err := snapshotAndRelease(ctx, st.stream)

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		p.stage = Failed{Reason: "could not capture photo", Err: err}
		p.mu.Unlock()
		return err
	}
	p.stage = Detecting{Still: frame}
	p.mu.Unlock()

	verdict, err := p.detect(ctx, frame)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		return ErrStale
	}
	if err != nil {
		still := frame
		p.stage = Failed{Reason: "face detection failed", Err: err, Still: &still}
		p.log.Warn("face detection failed", map[string]any{"err": err})
		return err
	}
	p.stage = Result{Still: frame, Verdict: verdict}
	return nil
}

func snapshotAndRelease(ctx context.Context, s camera.Stream) (camera.Frame, error) {
	defer s.Release()
	return s.Snapshot(ctx)
}

func (p *Pipeline) detect(ctx context.Context, frame camera.Frame) (Verdict, error) {
	if p.detector == nil {
		return Verdict{}, errors.New("face detection unavailable")
	}
	return p.detector.DetectFace(ctx, frame)
}

// Retake descarta foto y veredicto y vuelve a adquirir. Válido desde result o error.
func (p *Pipeline) Retake(ctx context.Context) error {
	p.mu.Lock()
	switch p.stage.(type) {
	case Result, Failed:
		p.stage = Idle{}
	default:
		p.mu.Unlock()
		return ErrInvalidStage
	}
	p.mu.Unlock()

	return p.Acquire(ctx)
}

// Reset vuelve a idle desde cualquier stage y libera la cámara.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	held := heldStream(p.stage)
	p.gen++
	p.stage = Idle{}
	p.mu.Unlock()

	if held != nil {
		held.Release()
	}
}

// Close es el teardown: Reset + rechaza cualquier acción posterior.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.Reset()
}

func acquireReason(err error) string {
	switch {
	case errors.Is(err, camera.ErrPermissionDenied):
		return "camera permission denied"
	case errors.Is(err, camera.ErrNoDevice):
		return "no camera found"
	case errors.Is(err, camera.ErrBusy):
		return "camera in use"
	default:
		return "could not start camera"
	}
}
