package capture

import "KYCCapture/pkg/response"

var (
	ErrInvalidImageKind = response.NewError(400, "image kind must be front, back or face")
	ErrInvalidImage     = response.NewError(400, "uploaded file is not a readable image")
	ErrImageTooLarge    = response.NewError(413, "image exceeds the 5MB limit")
	ErrFaceNotCentered  = response.NewError(409, "face is not centered")
	ErrImageNotFound    = response.NewError(404, "image not captured yet")
	ErrUploadFailed     = response.NewError(500, "failed to store image")
)
