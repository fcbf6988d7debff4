package captureRepository

import (
	"KYCCapture/internal/api/capture"
	"KYCCapture/internal/entity"
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var imageColumns = []string{"id", "session_id", "kind", "object_key", "width", "height", "size_bytes", "created_at", "updated_at"}

func newMockClient(t *testing.T) (Client, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	client, err := New(sqlx.NewDb(db, "postgres"), log).NewClient(false)
	require.NoError(t, err)
	return client, mock
}

func TestUpsertImage(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO capture_images (.+) ON CONFLICT \\(session_id, kind\\) DO UPDATE (.+) RETURNING").
		WithArgs("01IMG", "01SESSION", "front", "capture/01SESSION/front.jpg", 1280, 800, 4096, now, now).
		WillReturnRows(sqlmock.NewRows(imageColumns).
			AddRow("01IMG", "01SESSION", "front", "capture/01SESSION/front.jpg", 1280, 800, 4096, now, now))

	img, err := client.Image.UpsertImage(context.Background(), entity.CaptureImage{
		ID:        "01IMG",
		SessionID: "01SESSION",
		Kind:      entity.ImageDocumentFront,
		ObjectKey: capture.ObjectKey("01SESSION", entity.ImageDocumentFront),
		Width:     1280,
		Height:    800,
		SizeBytes: 4096,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "01IMG", img.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertImage_ReplacedSlotKeepsIdentity(t *testing.T) {
	client, mock := newMockClient(t)
	created := time.Now().Add(-time.Hour)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO capture_images (.+) RETURNING").
		WithArgs("02IMG", "01SESSION", "face", "capture/01SESSION/face.jpg", 720, 960, 2048, now, now).
		WillReturnRows(sqlmock.NewRows(imageColumns).
			AddRow("01IMG", "01SESSION", "face", "capture/01SESSION/face.jpg", 720, 960, 2048, created, now))

	img, err := client.Image.UpsertImage(context.Background(), entity.CaptureImage{
		ID:        "02IMG",
		SessionID: "01SESSION",
		Kind:      entity.ImageFace,
		ObjectKey: capture.ObjectKey("01SESSION", entity.ImageFace),
		Width:     720,
		Height:    960,
		SizeBytes: 2048,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "01IMG", img.ID)
	assert.True(t, created.Equal(img.CreatedAt))
	assert.True(t, now.Equal(img.UpdatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetImage(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM capture_images WHERE session_id = \\$1 AND kind = \\$2").
		WithArgs("01SESSION", "face").
		WillReturnRows(sqlmock.NewRows(imageColumns).
			AddRow("01IMG", "01SESSION", "face", "capture/01SESSION/face.jpg", 720, 960, 2048, now, now))

	img, err := client.Image.GetImage(context.Background(), "01SESSION", entity.ImageFace)
	require.NoError(t, err)
	assert.Equal(t, entity.ImageFace, img.Kind)
	assert.Equal(t, 960, img.Height)

	mock.ExpectQuery("SELECT (.+) FROM capture_images").
		WithArgs("01SESSION", "back").
		WillReturnRows(sqlmock.NewRows(imageColumns))

	_, err = client.Image.GetImage(context.Background(), "01SESSION", entity.ImageDocumentBack)
	assert.ErrorIs(t, err, capture.ErrImageNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListImages(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM capture_images WHERE session_id = \\$1 ORDER BY kind").
		WithArgs("01SESSION").
		WillReturnRows(sqlmock.NewRows(imageColumns).
			AddRow("1", "01SESSION", "back", "k1", 10, 10, 1, now, now).
			AddRow("2", "01SESSION", "front", "k2", 10, 10, 1, now, now))

	images, err := client.Image.ListImages(context.Background(), "01SESSION")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, entity.ImageDocumentFront, images[1].Kind)
}
