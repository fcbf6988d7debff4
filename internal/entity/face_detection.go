package entity

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type PositionStatus string

const (
	NoFaceDetected  PositionStatus = "NO_FACE_DETECTED"
	PerfectPosition PositionStatus = "PERFECT_POSITION"
	AdjustPosition  PositionStatus = "ADJUST_POSITION"
)

// DetectionResult is the face engine's answer for one frame. Deviations are
// normalized offsets keyed by axis ("x", "y").
type DetectionResult struct {
	Status       PositionStatus     `json:"status"`
	Instructions []string           `json:"instructions"`
	FacePosition *Position          `json:"face_position,omitempty"`
	FaceSize     *float64           `json:"face_size,omitempty"`
	FrameCenter  Position           `json:"frame_center"`
	Deviations   map[string]float64 `json:"deviations,omitempty"`
}

// FaceDetected is the engine's compliance verdict for the frame.
func (r *DetectionResult) FaceDetected() bool {
	return r != nil && r.FacePosition != nil && r.Status != NoFaceDetected
}

func (r *DetectionResult) Deviation(axis CaptureAxis) float64 {
	if r == nil || r.Deviations == nil {
		return 0
	}
	return r.Deviations[string(axis)]
}
