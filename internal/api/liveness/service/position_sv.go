package livenessService

import (
	"KYCCapture/internal/api/liveness"
	"KYCCapture/internal/entity"
	contextPkg "KYCCapture/pkg/context"
	"KYCCapture/pkg/facezone"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *livenessService) ProcessPosition(ctx context.Context, id string, sample facezone.Sample) (facezone.Feedback, *facezone.ZoneChange, error) {
	state, err := s.load(ctx, id)
	if err != nil {
		return facezone.Feedback{}, nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	prevZone := state.classifier.Last()
	prevCompliant, prevCentered := state.compliant, state.centered

	fb, change := state.classifier.ObserveSample(sample)
	state.compliant = fb.Compliant
	state.centered = fb.Centered

	if change == nil && fb.Centered == prevCentered {
		s.saveSnapshot(ctx, state)
		return fb, nil, nil
	}

	if err := s.persistObservation(ctx, state, fb, change); err != nil {
		// Roll the classifier back so the same edge is reported again on the
		// next sample instead of being lost.
		state.classifier = facezone.Restore(state.classifier.Tolerance(), prevZone)
		state.compliant, state.centered = prevCompliant, prevCentered
		return facezone.Feedback{}, nil, err
	}

	if change != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"from_zone":  int(change.From),
			"to_zone":    int(change.To),
			"centered":   fb.Centered,
		}).Debug("Zone changed")
	}

	return fb, change, nil
}

func (s *livenessService) persistObservation(ctx context.Context, state *sessionState, fb facezone.Feedback, change *facezone.ZoneChange) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.livenessRepository.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return err
	}

	if change != nil {
		now := time.Now()
		eventID, err := s.utils.NewULIDFromTimestamp(now)
		if err != nil {
			_ = repo.Rollback()
			return err
		}

		if err := repo.Event.CreateEvent(ctx, entity.ZoneEvent{
			ID:        eventID,
			SessionID: state.id,
			FromZone:  int(change.From),
			ToZone:    int(change.To),
			Position:  fb.Position,
			Compliant: fb.Compliant,
			Centered:  fb.Centered,
			CreatedAt: now,
		}); err != nil {
			_ = repo.Rollback()
			return fmt.Errorf("failed to record zone change: %w", err)
		}
	}

	if err := repo.Session.UpdateZoneState(ctx, state.id, int(fb.Zone), fb.Centered); err != nil {
		_ = repo.Rollback()
		return err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": state.id,
			"error":      err.Error(),
		}).Error("Failed to commit zone change")
		return err
	}

	s.saveSnapshot(ctx, state)
	return nil
}

func (s *livenessService) ProcessFrame(ctx context.Context, id string, frame []byte) (facezone.Feedback, *facezone.ZoneChange, error) {
	if len(frame) == 0 {
		return facezone.Feedback{}, nil, liveness.ErrEmptyFrame
	}

	state, err := s.load(ctx, id)
	if err != nil {
		return facezone.Feedback{}, nil, err
	}

	result, err := s.faceEngine.ProcessFaceFrame(ctx, frame)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"error":      err.Error(),
		}).Error("Face detection failed")
		return facezone.Feedback{}, nil, liveness.ErrFaceEngineUnavailable
	}

	if !result.FaceDetected() {
		return s.observeNoFace(ctx, state)
	}

	compliant := true
	return s.ProcessPosition(ctx, id, facezone.Sample{
		Position:  result.Deviation(state.axis),
		Compliant: &compliant,
	})
}

// observeNoFace handles a frame without a face. There is no position to
// classify, so the last zone stays and no zone change is reported; only the
// compliance and centered signals drop.
func (s *livenessService) observeNoFace(ctx context.Context, state *sessionState) (facezone.Feedback, *facezone.ZoneChange, error) {
	state.mu.Lock()
	defer state.mu.Unlock()

	fb := facezone.Feedback{
		Zone:      state.classifier.Last(),
		Direction: facezone.DirectionNone,
	}

	prevCompliant, prevCentered := state.compliant, state.centered
	state.compliant = false
	state.centered = false

	if !prevCentered {
		s.saveSnapshot(ctx, state)
		return fb, nil, nil
	}

	if err := s.persistObservation(ctx, state, fb, nil); err != nil {
		state.compliant, state.centered = prevCompliant, prevCentered
		return facezone.Feedback{}, nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": state.id,
		"last_zone":  int(fb.Zone),
	}).Debug("Face lost")

	return fb, nil, nil
}

func (s *livenessService) IsCentered(ctx context.Context, id string) (bool, error) {
	state, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	return state.centered, nil
}
