package entity

import "time"

type CaptureAxis string

const (
	AxisHorizontal CaptureAxis = "x"
	AxisVertical   CaptureAxis = "y"
)

func (a CaptureAxis) Valid() bool {
	return a == AxisHorizontal || a == AxisVertical
}

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

type LivenessSession struct {
	ID              string
	UserID          string
	Tolerance       int
	Axis            CaptureAxis
	Status          SessionStatus
	HandoffCodeHash string
	LastZone        int
	Centered        bool
	ClaimedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	EndedAt         *time.Time
}

func (s LivenessSession) IsActive() bool {
	return s.Status == SessionActive
}

type ZoneEvent struct {
	ID        string
	SessionID string
	FromZone  int
	ToZone    int
	Position  float64
	Compliant bool
	Centered  bool
	CreatedAt time.Time
}

// SessionSnapshot is the classifier state mirrored into Redis so a session can
// be resumed by another process without re-reporting the current zone.
type SessionSnapshot struct {
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Tolerance int         `json:"tolerance"`
	Axis      CaptureAxis `json:"axis"`
	LastZone  int         `json:"last_zone"`
	Compliant bool        `json:"compliant"`
	Centered  bool        `json:"centered"`
	UpdatedAt time.Time   `json:"updated_at"`
}
