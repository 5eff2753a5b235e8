package camera

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoDevice         = errors.New("no camera device")
	ErrBusy             = errors.New("camera already in use")
)

// Frame es una imagen fija (bytes codificados, p.ej. JPEG).
type Frame struct {
	Data        []byte
	ContentType string
}

// Device da acceso exclusivo a una cámara.
type Device interface {
	// Open adquiere el dispositivo. Mientras el Stream no se libere,
	// nadie más puede abrirlo.
	Open(ctx context.Context) (Stream, error)
}

// Stream es una cámara adquirida.
type Stream interface {
	// Snapshot congela el frame actual.
	Snapshot(ctx context.Context) (Frame, error)
	// Release libera el dispositivo. Debe ser idempotente.
	Release()
}
