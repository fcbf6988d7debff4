package liveness

import (
	"KYCCapture/internal/entity"
	"KYCCapture/pkg/facezone"
	"time"
)

type CreateSessionRequest struct {
	Tolerance *int   `json:"tolerance" validate:"omitempty,min=1,max=5"`
	Axis      string `json:"axis" validate:"omitempty,oneof=x y"`
}

type UpdateToleranceRequest struct {
	Tolerance int `json:"tolerance" validate:"required,min=1,max=5"`
}

type ClaimSessionRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type PositionRequest struct {
	Position  *float64 `json:"position" validate:"required"`
	Compliant *bool    `json:"compliant"`
}

func (r PositionRequest) Sample() facezone.Sample {
	var p float64
	if r.Position != nil {
		p = *r.Position
	}
	return facezone.Sample{Position: p, Compliant: r.Compliant}
}

type SessionResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Tolerance int    `json:"tolerance"`
	Axis      string `json:"axis"`
	Status    string `json:"status"`
	LastZone  int    `json:"last_zone"`
	Centered  bool   `json:"centered"`
	Claimed   bool   `json:"claimed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	EndedAt   string `json:"ended_at,omitempty"`
}

type CreateSessionResponse struct {
	Session     SessionResponse `json:"session"`
	HandoffCode string          `json:"handoff_code"`
}

type FeedbackResponse struct {
	Zone         int     `json:"zone"`
	Position     float64 `json:"position"`
	Compliant    bool    `json:"compliant"`
	Centered     bool    `json:"centered"`
	Direction    string  `json:"direction"`
	Instruction  string  `json:"instruction"`
	Changed      bool    `json:"changed"`
	PreviousZone *int    `json:"previous_zone,omitempty"`
}

type EventResponse struct {
	ID        string  `json:"id"`
	FromZone  int     `json:"from_zone"`
	ToZone    int     `json:"to_zone"`
	Position  float64 `json:"position"`
	Compliant bool    `json:"compliant"`
	Centered  bool    `json:"centered"`
	CreatedAt string  `json:"created_at"`
}

func NewSessionResponse(s entity.LivenessSession) SessionResponse {
	res := SessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Tolerance: s.Tolerance,
		Axis:      string(s.Axis),
		Status:    string(s.Status),
		LastZone:  s.LastZone,
		Centered:  s.Centered,
		Claimed:   s.ClaimedAt != nil,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		res.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return res
}

// NewFeedbackResponse flattens a classifier result for the wire. Only a
// change coming from a previously reported zone carries previous_zone.
func NewFeedbackResponse(fb facezone.Feedback, change *facezone.ZoneChange) FeedbackResponse {
	res := FeedbackResponse{
		Zone:        int(fb.Zone),
		Position:    fb.Position,
		Compliant:   fb.Compliant,
		Centered:    fb.Centered,
		Direction:   fb.Direction.String(),
		Instruction: fb.Instruction(),
		Changed:     change != nil,
	}
	if change != nil && change.From.Valid() {
		prev := int(change.From)
		res.PreviousZone = &prev
	}
	return res
}

func NewEventResponses(events []entity.ZoneEvent) []EventResponse {
	res := make([]EventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, EventResponse{
			ID:        e.ID,
			FromZone:  e.FromZone,
			ToZone:    e.ToZone,
			Position:  e.Position,
			Compliant: e.Compliant,
			Centered:  e.Centered,
			CreatedAt: e.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return res
}
