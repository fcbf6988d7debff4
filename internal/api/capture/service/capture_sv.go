package captureService

import (
	"KYCCapture/internal/api/capture"
	"KYCCapture/internal/api/liveness"
	"KYCCapture/internal/entity"
	contextPkg "KYCCapture/pkg/context"
	"KYCCapture/pkg/utils"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *captureService) UploadImage(ctx context.Context, sessionID string, userID string, kind string, file *multipart.FileHeader) (entity.CaptureImage, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !entity.IsValidImageKind(kind) {
		return entity.CaptureImage{}, capture.ErrInvalidImageKind
	}
	imageKind := entity.ImageKind(kind)

	session, err := s.livenessService.AuthorizeSession(ctx, sessionID, userID)
	if err != nil {
		return entity.CaptureImage{}, err
	}
	if !session.IsActive() {
		return entity.CaptureImage{}, liveness.ErrSessionClosed
	}

	if err := s.utils.ValidateImageFile(file); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Rejected capture image")
		if errors.Is(err, utils.ErrFileTooLarge) {
			return entity.CaptureImage{}, capture.ErrImageTooLarge
		}
		return entity.CaptureImage{}, capture.ErrInvalidImage
	}

	if imageKind == entity.ImageFace {
		centered, err := s.livenessService.IsCentered(ctx, sessionID)
		if err != nil {
			return entity.CaptureImage{}, err
		}
		if !centered {
			return entity.CaptureImage{}, capture.ErrFaceNotCentered
		}
	}

	data, err := s.utils.ReadFile(file)
	if err != nil {
		return entity.CaptureImage{}, fmt.Errorf("failed to read upload: %w", err)
	}

	resized, err := s.utils.ResizeImage(data, capture.MaxImageWidth, capture.MaxImageHeight, capture.JPEGQuality)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to decode capture image")
		return entity.CaptureImage{}, capture.ErrInvalidImage
	}

	key := capture.ObjectKey(sessionID, imageKind)
	if err := s.s3.UploadBytes(ctx, key, "image/jpeg", resized.Data); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"key":        key,
			"error":      err.Error(),
		}).Error("Failed to upload capture image")
		return entity.CaptureImage{}, capture.ErrUploadFailed
	}

	now := time.Now()
	ULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.CaptureImage{}, err
	}

	image := entity.CaptureImage{
		ID:        ULID,
		SessionID: sessionID,
		Kind:      imageKind,
		ObjectKey: key,
		Width:     resized.Width,
		Height:    resized.Height,
		SizeBytes: len(resized.Data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	repo, err := s.captureRepository.NewClient(false)
	if err != nil {
		return entity.CaptureImage{}, err
	}

	stored, err := repo.Image.UpsertImage(ctx, image)
	if err != nil {
		return entity.CaptureImage{}, fmt.Errorf("failed to record capture image: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"kind":       kind,
		"image_id":   stored.ID,
		"width":      stored.Width,
		"height":     stored.Height,
	}).Info("Capture image stored")

	return stored, nil
}

func (s *captureService) GetBundle(ctx context.Context, sessionID string, userID string) (capture.BundleResponse, error) {
	if _, err := s.livenessService.AuthorizeSession(ctx, sessionID, userID); err != nil {
		return capture.BundleResponse{}, err
	}

	repo, err := s.captureRepository.NewClient(false)
	if err != nil {
		return capture.BundleResponse{}, err
	}

	images, err := repo.Image.ListImages(ctx, sessionID)
	if err != nil {
		return capture.BundleResponse{}, err
	}

	bundle := capture.BundleResponse{
		SessionID: sessionID,
		Images:    make(map[string]*capture.ImageResponse, len(entity.ImageKinds)),
	}
	for _, kind := range entity.ImageKinds {
		bundle.Images[string(kind)] = nil
	}

	for _, img := range images {
		url, err := s.s3.PresignUrl(img.ObjectKey)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"key":        img.ObjectKey,
				"error":      err.Error(),
			}).Warn("Failed to presign capture image")
		}
		res := capture.NewImageResponse(img, url)
		bundle.Images[string(img.Kind)] = &res
	}

	bundle.Complete = true
	for _, kind := range entity.ImageKinds {
		if bundle.Images[string(kind)] == nil {
			bundle.Complete = false
		}
	}

	return bundle, nil
}

func (s *captureService) ImageBase64(ctx context.Context, sessionID string, userID string, kind string) (capture.Base64Response, error) {
	if !entity.IsValidImageKind(kind) {
		return capture.Base64Response{}, capture.ErrInvalidImageKind
	}

	if _, err := s.livenessService.AuthorizeSession(ctx, sessionID, userID); err != nil {
		return capture.Base64Response{}, err
	}

	repo, err := s.captureRepository.NewClient(false)
	if err != nil {
		return capture.Base64Response{}, err
	}

	img, err := repo.Image.GetImage(ctx, sessionID, entity.ImageKind(kind))
	if err != nil {
		return capture.Base64Response{}, err
	}

	data, err := s.s3.Download(ctx, img.ObjectKey)
	if err != nil {
		return capture.Base64Response{}, fmt.Errorf("failed to fetch capture image: %w", err)
	}

	return capture.Base64Response{
		Kind:        kind,
		ContentType: "image/jpeg",
		Data:        s.utils.EncodeBase64(data),
	}, nil
}
