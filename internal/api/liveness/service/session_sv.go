package livenessService

import (
	"KYCCapture/internal/api/liveness"
	"KYCCapture/internal/entity"
	contextPkg "KYCCapture/pkg/context"
	"KYCCapture/pkg/facezone"
	"KYCCapture/pkg/redis"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *livenessService) CreateSession(ctx context.Context, userID string, req liveness.CreateSessionRequest) (entity.LivenessSession, string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	tolerance := s.config.DefaultTolerance
	if req.Tolerance != nil {
		tolerance = facezone.Tolerance(*req.Tolerance)
		if !tolerance.Valid() {
			return entity.LivenessSession{}, "", liveness.ErrInvalidTolerance
		}
	}

	axis := s.config.DefaultAxis
	if req.Axis != "" {
		axis = entity.CaptureAxis(req.Axis)
		if !axis.Valid() {
			return entity.LivenessSession{}, "", liveness.ErrInvalidAxis
		}
	}

	repo, err := s.livenessRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.LivenessSession{}, "", err
	}

	now := time.Now()
	ULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.LivenessSession{}, "", err
	}

	code, hash, err := s.bcrypt.GenerateHandoffCode()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate handoff code")
		return entity.LivenessSession{}, "", liveness.ErrCreateSession
	}

	session := entity.LivenessSession{
		ID:              ULID,
		UserID:          userID,
		Tolerance:       int(tolerance),
		Axis:            axis,
		Status:          entity.SessionActive,
		HandoffCodeHash: hash,
		LastZone:        int(facezone.NoZone),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := repo.Session.CreateSession(ctx, session); err != nil {
		return entity.LivenessSession{}, "", fmt.Errorf("failed to persist liveness session: %w", err)
	}

	if dropped := s.sessions.evictExpired(s.now()); dropped > 0 {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"dropped":    dropped,
		}).Debug("Evicted expired liveness sessions")
	}

	state := s.sessions.putIfAbsent(&sessionState{
		id:         session.ID,
		userID:     userID,
		axis:       axis,
		classifier: facezone.New(tolerance),
	})
	s.saveSnapshot(ctx, state)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": session.ID,
		"tolerance":  session.Tolerance,
		"axis":       session.Axis,
	}).Info("Liveness session created")

	return session, code, nil
}

func (s *livenessService) GetSession(ctx context.Context, id string) (entity.LivenessSession, error) {
	repo, err := s.livenessRepository.NewClient(false)
	if err != nil {
		return entity.LivenessSession{}, err
	}

	return repo.Session.GetSessionByID(ctx, id)
}

func (s *livenessService) AuthorizeSession(ctx context.Context, id string, userID string) (entity.LivenessSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return entity.LivenessSession{}, err
	}

	if session.UserID != userID {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"user_id":    userID,
		}).Warn("Liveness session does not belong to user")
		return entity.LivenessSession{}, liveness.ErrSessionNotOwned
	}

	return session, nil
}

func (s *livenessService) VerifyHandoffCode(ctx context.Context, id string, code string) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}

	return s.checkHandoffCode(ctx, session, code)
}

func (s *livenessService) checkHandoffCode(ctx context.Context, session entity.LivenessSession, code string) error {
	if !session.IsActive() {
		return liveness.ErrSessionClosed
	}

	if err := s.bcrypt.Compare(session.HandoffCodeHash, code); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": session.ID,
		}).Warn("Handoff code mismatch")
		return liveness.ErrInvalidHandoffCode
	}

	return nil
}

func (s *livenessService) ClaimSession(ctx context.Context, id string, code string) (entity.LivenessSession, error) {
	repo, err := s.livenessRepository.NewClient(false)
	if err != nil {
		return entity.LivenessSession{}, err
	}

	session, err := repo.Session.GetSessionByID(ctx, id)
	if err != nil {
		return entity.LivenessSession{}, err
	}

	if err := s.checkHandoffCode(ctx, session, code); err != nil {
		return entity.LivenessSession{}, err
	}

	if session.ClaimedAt != nil {
		return entity.LivenessSession{}, liveness.ErrSessionAlreadyClaimed
	}

	claimedAt := time.Now()
	if err := repo.Session.ClaimSession(ctx, id, claimedAt); err != nil {
		return entity.LivenessSession{}, err
	}

	session.ClaimedAt = &claimedAt
	session.UpdatedAt = claimedAt

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": id,
	}).Info("Liveness session claimed by capture device")

	return session, nil
}

func (s *livenessService) UpdateTolerance(ctx context.Context, id string, tolerance int) (entity.LivenessSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	t := facezone.Tolerance(tolerance)
	if !t.Valid() {
		return entity.LivenessSession{}, liveness.ErrInvalidTolerance
	}

	state, err := s.load(ctx, id)
	if err != nil {
		return entity.LivenessSession{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	// The last zone is kept, but whether it still counts as centered depends
	// on the new tolerance.
	lastZone := state.classifier.Last()
	centered := facezone.IsCentered(lastZone, t, state.compliant)

	repo, err := s.livenessRepository.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.LivenessSession{}, err
	}

	if err := repo.Session.UpdateTolerance(ctx, id, tolerance); err != nil {
		_ = repo.Rollback()
		return entity.LivenessSession{}, err
	}

	if centered != state.centered {
		if err := repo.Session.UpdateZoneState(ctx, id, int(lastZone), centered); err != nil {
			_ = repo.Rollback()
			return entity.LivenessSession{}, err
		}
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Error("Failed to commit tolerance update")
		return entity.LivenessSession{}, err
	}

	state.classifier.SetTolerance(t)
	state.centered = centered
	s.saveSnapshot(ctx, state)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": id,
		"tolerance":  tolerance,
		"centered":   centered,
	}).Info("Liveness tolerance updated")

	return s.GetSession(ctx, id)
}

func (s *livenessService) ListEvents(ctx context.Context, id string) ([]entity.ZoneEvent, error) {
	repo, err := s.livenessRepository.NewClient(false)
	if err != nil {
		return nil, err
	}

	if _, err := repo.Session.GetSessionByID(ctx, id); err != nil {
		return nil, err
	}

	return repo.Event.ListEventsBySessionID(ctx, id)
}

func (s *livenessService) EndSession(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.livenessRepository.NewClient(false)
	if err != nil {
		return err
	}

	session, err := repo.Session.GetSessionByID(ctx, id)
	if err != nil {
		return err
	}
	if !session.IsActive() {
		return liveness.ErrSessionClosed
	}

	if err := repo.Session.EndSession(ctx, id, time.Now()); err != nil {
		return err
	}

	s.sessions.delete(id)
	if err := s.redis.DeleteSession(ctx, id); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Warn("Failed to drop session snapshot")
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": id,
	}).Info("Liveness session ended")

	return nil
}

// load returns the live state of a session, rebuilding it from the Redis
// snapshot when this process has not seen the session yet.
func (s *livenessService) load(ctx context.Context, id string) (*sessionState, error) {
	if state, ok := s.sessions.get(id); ok {
		if !state.expired(s.now()) {
			return state, nil
		}
		s.sessions.evict(state)
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
		}).Info("Liveness session expired in memory")
	}

	snapshot, err := s.redis.GetSession(ctx, id)
	if err == nil {
		rebuilt := stateFromSnapshot(snapshot)
		rebuilt.touch(snapshot.UpdatedAt.Add(s.config.SessionTTL))
		state := s.sessions.putIfAbsent(rebuilt)
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"last_zone":  snapshot.LastZone,
		}).Info("Liveness session rebuilt from snapshot")
		return state, nil
	}

	if !errors.Is(err, redis.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	// No snapshot: either the session ended or it expired.
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, liveness.ErrSessionClosed
	}
	return nil, liveness.ErrSessionNotFound
}

// saveSnapshot mirrors state into Redis and restarts its TTL. The in-memory
// deadline moves with it even when Redis is unreachable.
func (s *livenessService) saveSnapshot(ctx context.Context, state *sessionState) {
	now := s.now()
	state.touch(now.Add(s.config.SessionTTL))

	if err := s.redis.SaveSession(ctx, state.snapshot(now), s.config.SessionTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": state.id,
			"error":      err.Error(),
		}).Warn("Failed to save session snapshot")
	}
}
