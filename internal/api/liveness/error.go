package liveness

import "KYCCapture/pkg/response"

var (
	ErrSessionNotFound       = response.NewError(404, "liveness session not found")
	ErrSessionClosed         = response.NewError(409, "liveness session has ended")
	ErrSessionNotOwned       = response.NewError(403, "liveness session does not belong to user")
	ErrSessionAlreadyClaimed = response.NewError(409, "liveness session already claimed")
	ErrInvalidHandoffCode    = response.NewError(403, "invalid handoff code")
	ErrInvalidTolerance      = response.NewError(400, "tolerance must be between 1 and 5")
	ErrInvalidAxis           = response.NewError(400, "axis must be x or y")
	ErrEmptyFrame            = response.NewError(400, "frame is empty")
	ErrFaceEngineUnavailable = response.NewError(502, "face detection service unavailable")
	ErrCreateSession         = response.NewError(500, "failed to create liveness session")
)
