package captureService

import (
	"KYCCapture/internal/api/capture"
	captureRepository "KYCCapture/internal/api/capture/repository"
	livenessService "KYCCapture/internal/api/liveness/service"
	"KYCCapture/internal/entity"
	"KYCCapture/pkg/s3"
	"KYCCapture/pkg/utils"
	"context"
	"mime/multipart"

	"github.com/sirupsen/logrus"
)

type ICaptureService interface {
	UploadImage(ctx context.Context, sessionID string, userID string, kind string, file *multipart.FileHeader) (entity.CaptureImage, error)
	GetBundle(ctx context.Context, sessionID string, userID string) (capture.BundleResponse, error)
	ImageBase64(ctx context.Context, sessionID string, userID string, kind string) (capture.Base64Response, error)
}

type captureService struct {
	log               *logrus.Logger
	captureRepository captureRepository.Repository
	livenessService   livenessService.ILivenessService
	s3                s3.ItfS3
	utils             utils.IUtils
}

func NewCaptureService(
	log *logrus.Logger,
	cr captureRepository.Repository,
	ls livenessService.ILivenessService,
	s3 s3.ItfS3,
	utils utils.IUtils,
) ICaptureService {
	return &captureService{
		log:               log,
		captureRepository: cr,
		livenessService:   ls,
		s3:                s3,
		utils:             utils,
	}
}
