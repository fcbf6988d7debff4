package capture

import (
	"KYCCapture/internal/entity"
	"time"
)

const (
	MaxImageWidth  = 1280
	MaxImageHeight = 1280
	JPEGQuality    = 85
)

type ImageResponse struct {
	Kind      string `json:"kind"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int    `json:"size_bytes"`
	URL       string `json:"url,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// BundleResponse lists every image slot of a session. Empty slots are null.
type BundleResponse struct {
	SessionID string                    `json:"session_id"`
	Images    map[string]*ImageResponse `json:"images"`
	Complete  bool                      `json:"complete"`
}

type Base64Response struct {
	Kind        string `json:"kind"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

func NewImageResponse(img entity.CaptureImage, url string) ImageResponse {
	return ImageResponse{
		Kind:      string(img.Kind),
		Width:     img.Width,
		Height:    img.Height,
		SizeBytes: img.SizeBytes,
		URL:       url,
		UpdatedAt: img.UpdatedAt.Format(time.RFC3339),
	}
}

func ObjectKey(sessionID string, kind entity.ImageKind) string {
	return "capture/" + sessionID + "/" + string(kind) + ".jpg"
}
