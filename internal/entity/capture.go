package entity

import "time"

type ImageKind string

const (
	ImageDocumentFront ImageKind = "front"
	ImageDocumentBack  ImageKind = "back"
	ImageFace          ImageKind = "face"
)

var ImageKinds = []ImageKind{ImageDocumentFront, ImageDocumentBack, ImageFace}

func IsValidImageKind(kind string) bool {
	for _, k := range ImageKinds {
		if string(k) == kind {
			return true
		}
	}
	return false
}

type CaptureImage struct {
	ID        string
	SessionID string
	Kind      ImageKind
	ObjectKey string
	Width     int
	Height    int
	SizeBytes int
	CreatedAt time.Time
	UpdatedAt time.Time
}
