package filecam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"visitor-gate/internal/ports/camera"
)

// Device es una "cámara" que devuelve siempre la misma imagen: un archivo
// (CLI) o bytes en memoria. Respeta la exclusividad de camera.Device.
type Device struct {
	path string
	data []byte
	ct   string

	mu   sync.Mutex
	open bool
}

// New lee path en cada Snapshot.
func New(path string) *Device {
	return &Device{path: path}
}

// FromBytes sirve data como frame.
func FromBytes(data []byte, contentType string) *Device {
	return &Device{data: data, ct: contentType}
}

func (d *Device) Open(ctx context.Context) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.path != "" {
		if _, err := os.Stat(d.path); err != nil {
			switch {
			case errors.Is(err, fs.ErrNotExist):
				return nil, fmt.Errorf("%w: %s", camera.ErrNoDevice, d.path)
			case errors.Is(err, fs.ErrPermission):
				return nil, fmt.Errorf("%w: %s", camera.ErrPermissionDenied, d.path)
			default:
				return nil, err
			}
		}
	} else if len(d.data) == 0 {
		return nil, camera.ErrNoDevice
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil, camera.ErrBusy
	}
	d.open = true
	return &stream{dev: d}, nil
}

// InUse indica si hay un stream sin liberar.
func (d *Device) InUse() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Device) release() {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
}

type stream struct {
	dev  *Device
	once sync.Once

	mu       sync.Mutex
	released bool
}

func (s *stream) Snapshot(ctx context.Context) (camera.Frame, error) {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return camera.Frame{}, errors.New("filecam: stream released")
	}
	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}

	data := s.dev.data
	ct := s.dev.ct
	if s.dev.path != "" {
		b, err := os.ReadFile(s.dev.path)
		if err != nil {
			return camera.Frame{}, fmt.Errorf("filecam: read %s: %w", s.dev.path, err)
		}
		data = b
	}
	if len(data) == 0 {
		return camera.Frame{}, errors.New("filecam: empty frame")
	}
	if ct == "" {
		ct = http.DetectContentType(data)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return camera.Frame{Data: out, ContentType: ct}, nil
}

func (s *stream) Release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.released = true
		s.mu.Unlock()
		s.dev.release()
	})
}
