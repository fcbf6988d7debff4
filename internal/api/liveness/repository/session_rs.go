package livenessRepository

import (
	"KYCCapture/internal/api/liveness"
	"KYCCapture/internal/entity"
	contextPkg "KYCCapture/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type LivenessSessionDB struct {
	ID              string         `db:"id"`
	UserID          string         `db:"user_id"`
	Tolerance       int            `db:"tolerance"`
	Axis            string         `db:"axis"`
	Status          string         `db:"status"`
	HandoffCodeHash sql.NullString `db:"handoff_code_hash"`
	LastZone        int            `db:"last_zone"`
	Centered        bool           `db:"centered"`
	ClaimedAt       sql.NullTime   `db:"claimed_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	EndedAt         sql.NullTime   `db:"ended_at"`
}

func (r *sessionRepository) CreateSession(c context.Context, session entity.LivenessSession) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":                session.ID,
		"user_id":           session.UserID,
		"tolerance":         session.Tolerance,
		"axis":              string(session.Axis),
		"status":            string(session.Status),
		"handoff_code_hash": session.HandoffCodeHash,
		"last_zone":         session.LastZone,
		"centered":          session.Centered,
		"created_at":        session.CreatedAt,
		"updated_at":        session.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateSession")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Database error when creating liveness session")
		return err
	}

	return nil
}

func (r *sessionRepository) GetSessionByID(c context.Context, id string) (entity.LivenessSession, error) {
	requestID := contextPkg.GetRequestID(c)
	var row LivenessSessionDB

	query, args, err := sqlx.Named(queryGetSessionByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID named query preparation err")
		return entity.LivenessSession{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": id,
			}).Warn("GetSessionByID no rows found")
			return entity.LivenessSession{}, liveness.ErrSessionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID execution err")
		return entity.LivenessSession{}, err
	}

	return makeLivenessSession(row), nil
}

func (r *sessionRepository) UpdateTolerance(c context.Context, id string, tolerance int) error {
	return r.update(c, "UpdateTolerance", queryUpdateTolerance, map[string]interface{}{
		"id":         id,
		"tolerance":  tolerance,
		"updated_at": time.Now(),
	}, liveness.ErrSessionClosed)
}

func (r *sessionRepository) UpdateZoneState(c context.Context, id string, lastZone int, centered bool) error {
	return r.update(c, "UpdateZoneState", queryUpdateZoneState, map[string]interface{}{
		"id":         id,
		"last_zone":  lastZone,
		"centered":   centered,
		"updated_at": time.Now(),
	}, liveness.ErrSessionClosed)
}

func (r *sessionRepository) ClaimSession(c context.Context, id string, claimedAt time.Time) error {
	return r.update(c, "ClaimSession", queryClaimSession, map[string]interface{}{
		"id":         id,
		"claimed_at": claimedAt,
	}, liveness.ErrSessionAlreadyClaimed)
}

func (r *sessionRepository) EndSession(c context.Context, id string, endedAt time.Time) error {
	return r.update(c, "EndSession", queryEndSession, map[string]interface{}{
		"id":       id,
		"ended_at": endedAt,
	}, liveness.ErrSessionClosed)
}

// update runs a guarded UPDATE and returns noRowsErr when the guard matched
// nothing.
func (r *sessionRepository) update(c context.Context, op string, namedQuery string, argsKV map[string]interface{}, noRowsErr error) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Errorf("%s named query preparation err", op)
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": argsKV["id"],
			"error":      err.Error(),
		}).Errorf("%s execution err", op)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": argsKV["id"],
		}).Warnf("%s matched no active session", op)
		return noRowsErr
	}

	return nil
}

func makeLivenessSession(row LivenessSessionDB) entity.LivenessSession {
	session := entity.LivenessSession{
		ID:              row.ID,
		UserID:          row.UserID,
		Tolerance:       row.Tolerance,
		Axis:            entity.CaptureAxis(row.Axis),
		Status:          entity.SessionStatus(row.Status),
		HandoffCodeHash: row.HandoffCodeHash.String,
		LastZone:        row.LastZone,
		Centered:        row.Centered,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.ClaimedAt.Valid {
		claimedAt := row.ClaimedAt.Time
		session.ClaimedAt = &claimedAt
	}
	if row.EndedAt.Valid {
		endedAt := row.EndedAt.Time
		session.EndedAt = &endedAt
	}
	return session
}
