package authority

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"visitor-gate/internal/domain/capture"
	"visitor-gate/internal/platform/httpclient"
	"visitor-gate/internal/ports/camera"
)

type detectResponse struct {
	Detected       bool    `json:"detected"`
	Count          int     `json:"count"`
	Faces          []face  `json:"faces"`
	AnnotatedImage *string `json:"annotated_image"`
	Error          string  `json:"error"`
}

type face struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// DetectFace implementa capture.Detector.
func (c *Client) DetectFace(ctx context.Context, img camera.Frame) (capture.Verdict, error) {
	var out detectResponse
	err := c.postMultipart(ctx, "/face/detect", httpclient.Form{
		Files: []httpclient.File{photoFile(img)},
	}, &out)
	if err != nil {
		return capture.Verdict{}, err
	}
	if strings.TrimSpace(out.Error) != "" {
		return capture.Verdict{}, fmt.Errorf("%w: %s", ErrDetectRejected, out.Error)
	}

	v := capture.Verdict{
		Detected:  out.Detected,
		FaceCount: out.Count,
	}
	if v.FaceCount == 0 && len(out.Faces) > 0 {
		v.FaceCount = len(out.Faces)
	}
	if s := stringOrEmpty(out.AnnotatedImage); s != "" {
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			v.AnnotatedPreview = b
		}
	}
	return v, nil
}

// CapturePhoto guarda la foto contra el visitante. El cuerpo de la respuesta se ignora.
func (c *Client) CapturePhoto(ctx context.Context, visitorID string, img camera.Frame) error {
	return c.postMultipart(ctx, "/face/capture", httpclient.Form{
		Fields: map[string]string{"visitor_id": strings.TrimSpace(visitorID)},
		Files:  []httpclient.File{photoFile(img)},
	}, nil)
}

func photoFile(img camera.Frame) httpclient.File {
	name := "capture.jpg"
	if strings.Contains(img.ContentType, "png") {
		name = "capture.png"
	}
	return httpclient.File{
		Field:       "photo",
		Name:        name,
		ContentType: img.ContentType,
		Data:        img.Data,
	}
}
