package livenessService

import (
	"KYCCapture/internal/api/liveness"
	livenessRepository "KYCCapture/internal/api/liveness/repository"
	"KYCCapture/internal/entity"
	"KYCCapture/pkg/bcrypt"
	"KYCCapture/pkg/facezone"
	"KYCCapture/pkg/redis"
	"KYCCapture/pkg/utils"
	websocketPkg "KYCCapture/pkg/websocket"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ILivenessService interface {
	CreateSession(ctx context.Context, userID string, req liveness.CreateSessionRequest) (entity.LivenessSession, string, error)
	ClaimSession(ctx context.Context, id string, code string) (entity.LivenessSession, error)
	VerifyHandoffCode(ctx context.Context, id string, code string) error
	GetSession(ctx context.Context, id string) (entity.LivenessSession, error)
	AuthorizeSession(ctx context.Context, id string, userID string) (entity.LivenessSession, error)
	UpdateTolerance(ctx context.Context, id string, tolerance int) (entity.LivenessSession, error)
	ProcessPosition(ctx context.Context, id string, sample facezone.Sample) (facezone.Feedback, *facezone.ZoneChange, error)
	ProcessFrame(ctx context.Context, id string, frame []byte) (facezone.Feedback, *facezone.ZoneChange, error)
	IsCentered(ctx context.Context, id string) (bool, error)
	ListEvents(ctx context.Context, id string) ([]entity.ZoneEvent, error)
	EndSession(ctx context.Context, id string) error
}

type livenessService struct {
	log                *logrus.Logger
	livenessRepository livenessRepository.Repository
	redis              redis.IRedis
	faceEngine         websocketPkg.IFaceEngine
	bcrypt             bcrypt.IBcrypt
	utils              utils.IUtils
	config             liveness.Config
	sessions           *registry
	now                func() time.Time
}

func NewLivenessService(
	log *logrus.Logger,
	lr livenessRepository.Repository,
	redis redis.IRedis,
	faceEngine websocketPkg.IFaceEngine,
	bcrypt bcrypt.IBcrypt,
	utils utils.IUtils,
	config liveness.Config,
) ILivenessService {
	return &livenessService{
		log:                log,
		livenessRepository: lr,
		redis:              redis,
		faceEngine:         faceEngine,
		bcrypt:             bcrypt,
		utils:              utils,
		config:             config,
		sessions:           newRegistry(),
		now:                time.Now,
	}
}
