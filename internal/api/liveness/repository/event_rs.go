package livenessRepository

import (
	"KYCCapture/internal/entity"
	contextPkg "KYCCapture/pkg/context"
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ZoneEventDB struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	FromZone  int       `db:"from_zone"`
	ToZone    int       `db:"to_zone"`
	Position  float64   `db:"position"`
	Compliant bool      `db:"compliant"`
	Centered  bool      `db:"centered"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *eventRepository) CreateEvent(c context.Context, event entity.ZoneEvent) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":         event.ID,
		"session_id": event.SessionID,
		"from_zone":  event.FromZone,
		"to_zone":    event.ToZone,
		"position":   event.Position,
		"compliant":  event.Compliant,
		"centered":   event.Centered,
		"created_at": event.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateEvent, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateEvent")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": event.SessionID,
			"error":      err.Error(),
		}).Error("Database error when creating zone event")
		return err
	}

	return nil
}

func (r *eventRepository) ListEventsBySessionID(c context.Context, sessionID string) ([]entity.ZoneEvent, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []ZoneEventDB

	query, args, err := sqlx.Named(queryListEventsBySessionID, map[string]interface{}{"session_id": sessionID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListEventsBySessionID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("ListEventsBySessionID execution err")
		return nil, err
	}

	events := make([]entity.ZoneEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, entity.ZoneEvent{
			ID:        row.ID,
			SessionID: row.SessionID,
			FromZone:  row.FromZone,
			ToZone:    row.ToZone,
			Position:  row.Position,
			Compliant: row.Compliant,
			Centered:  row.Centered,
			CreatedAt: row.CreatedAt,
		})
	}

	return events, nil
}
