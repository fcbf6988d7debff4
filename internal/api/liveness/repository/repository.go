package livenessRepository

import (
	"KYCCapture/internal/entity"
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Session:  &sessionRepository{q: sqlExecutor, log: r.log},
		Event:    &eventRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type SessionStore interface {
	CreateSession(ctx context.Context, session entity.LivenessSession) error
	GetSessionByID(ctx context.Context, id string) (entity.LivenessSession, error)
	UpdateTolerance(ctx context.Context, id string, tolerance int) error
	UpdateZoneState(ctx context.Context, id string, lastZone int, centered bool) error
	ClaimSession(ctx context.Context, id string, claimedAt time.Time) error
	EndSession(ctx context.Context, id string, endedAt time.Time) error
}

type EventStore interface {
	CreateEvent(ctx context.Context, event entity.ZoneEvent) error
	ListEventsBySessionID(ctx context.Context, sessionID string) ([]entity.ZoneEvent, error)
}

type Client struct {
	Session SessionStore
	Event   EventStore

	Commit   func() error
	Rollback func() error
}

type sessionRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type eventRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
