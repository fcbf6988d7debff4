package captureRepository

import (
	"KYCCapture/internal/entity"
	"context"

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
		Image:    &imageRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type ImageStore interface {
	UpsertImage(ctx context.Context, image entity.CaptureImage) (entity.CaptureImage, error)
	GetImage(ctx context.Context, sessionID string, kind entity.ImageKind) (entity.CaptureImage, error)
	ListImages(ctx context.Context, sessionID string) ([]entity.CaptureImage, error)
}

type Client struct {
	Image ImageStore

	Commit   func() error
	Rollback func() error
}

type imageRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
