package capture

import "visitor-gate/internal/ports/camera"

type StageKind string

const (
	KindIdle      StageKind = "idle"
	KindAcquiring StageKind = "acquiring"
	KindStreaming StageKind = "streaming"
	KindCapturing StageKind = "capturing"
	KindDetecting StageKind = "detecting"
	KindResult    StageKind = "result"
	KindError     StageKind = "error"
)

// Stage es una variante cerrada: cada tipo lleva solo los datos válidos en
// ese estado (p.ej. Result siempre tiene imagen + veredicto).
type Stage interface {
	Kind() StageKind
	isStage()
}

// Verdict es el resultado de la detección facial.
type Verdict struct {
	Detected         bool
	FaceCount        int
	AnnotatedPreview []byte // opcional
}

type Idle struct{}

type Acquiring struct{}

// Streaming tiene la cámara adquirida.
type Streaming struct {
	stream camera.Stream
}

// Capturing congela el frame; la cámara sigue tomada hasta que vuelve Snapshot.
type Capturing struct {
	stream camera.Stream
}

// Detecting ya liberó la cámara y espera el veredicto.
type Detecting struct {
	Still camera.Frame
}

type Result struct {
	Still   camera.Frame
	Verdict Verdict
}

// Failed conserva la foto si el fallo fue en la detección.
type Failed struct {
	Reason string
	Err    error
	Still  *camera.Frame
}

func (Idle) Kind() StageKind      { return KindIdle }
func (Acquiring) Kind() StageKind { return KindAcquiring }
func (Streaming) Kind() StageKind { return KindStreaming }
func (Capturing) Kind() StageKind { return KindCapturing }
func (Detecting) Kind() StageKind { return KindDetecting }
func (Result) Kind() StageKind    { return KindResult }
func (Failed) Kind() StageKind    { return KindError }

func (Idle) isStage()      {}
func (Acquiring) isStage() {}
func (Streaming) isStage() {}
func (Capturing) isStage() {}
func (Detecting) isStage() {}
func (Result) isStage()    {}
func (Failed) isStage()    {}

// heldStream devuelve la cámara si el stage la tiene tomada.
func heldStream(s Stage) camera.Stream {
	switch v := s.(type) {
	case Streaming:
		return v.stream
	case Capturing:
		return v.stream
	default:
		return nil
	}
}
