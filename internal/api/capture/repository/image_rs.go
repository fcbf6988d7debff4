package captureRepository

import (
	"KYCCapture/internal/api/capture"
	"KYCCapture/internal/entity"
	contextPkg "KYCCapture/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type CaptureImageDB struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Kind      string    `db:"kind"`
	ObjectKey string    `db:"object_key"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	SizeBytes int       `db:"size_bytes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpsertImage stores image in its (session, kind) slot and returns the stored
// row. A replaced slot keeps its original id and created_at.
func (r *imageRepository) UpsertImage(c context.Context, image entity.CaptureImage) (entity.CaptureImage, error) {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":         image.ID,
		"session_id": image.SessionID,
		"kind":       string(image.Kind),
		"object_key": image.ObjectKey,
		"width":      image.Width,
		"height":     image.Height,
		"size_bytes": image.SizeBytes,
		"created_at": image.CreatedAt,
		"updated_at": image.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryUpsertImage, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for UpsertImage")
		return entity.CaptureImage{}, err
	}
	query = r.q.Rebind(query)

	var row CaptureImageDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": image.SessionID,
			"kind":       image.Kind,
			"error":      err.Error(),
		}).Error("Database error when saving capture image")
		return entity.CaptureImage{}, err
	}

	return makeCaptureImage(row), nil
}

func (r *imageRepository) GetImage(c context.Context, sessionID string, kind entity.ImageKind) (entity.CaptureImage, error) {
	requestID := contextPkg.GetRequestID(c)
	var row CaptureImageDB

	query, args, err := sqlx.Named(queryGetImage, map[string]interface{}{
		"session_id": sessionID,
		"kind":       string(kind),
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetImage named query preparation err")
		return entity.CaptureImage{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.CaptureImage{}, capture.ErrImageNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetImage execution err")
		return entity.CaptureImage{}, err
	}

	return makeCaptureImage(row), nil
}

func (r *imageRepository) ListImages(c context.Context, sessionID string) ([]entity.CaptureImage, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []CaptureImageDB

	query, args, err := sqlx.Named(queryListImages, map[string]interface{}{"session_id": sessionID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListImages named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListImages execution err")
		return nil, err
	}

	images := make([]entity.CaptureImage, 0, len(rows))
	for _, row := range rows {
		images = append(images, makeCaptureImage(row))
	}
	return images, nil
}

func makeCaptureImage(row CaptureImageDB) entity.CaptureImage {
	return entity.CaptureImage{
		ID:        row.ID,
		SessionID: row.SessionID,
		Kind:      entity.ImageKind(row.Kind),
		ObjectKey: row.ObjectKey,
		Width:     row.Width,
		Height:    row.Height,
		SizeBytes: row.SizeBytes,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
