package config

import (
	"KYCCapture/database/postgres"
	captureHandler "KYCCapture/internal/api/capture/handler"
	captureRepository "KYCCapture/internal/api/capture/repository"
	captureService "KYCCapture/internal/api/capture/service"
	"KYCCapture/internal/api/liveness"
	livenessHandler "KYCCapture/internal/api/liveness/handler"
	livenessRepository "KYCCapture/internal/api/liveness/repository"
	livenessService "KYCCapture/internal/api/liveness/service"
	"KYCCapture/internal/middleware"
	"KYCCapture/pkg/bcrypt"
	"KYCCapture/pkg/redis"
	"KYCCapture/pkg/s3"
	"KYCCapture/pkg/utils"
	websocketPkg "KYCCapture/pkg/websocket"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	bcryptUtils    bcrypt.IBcrypt
	handlers       []handler
	redisServer    redis.IRedis
	faceEngine     websocketPkg.IFaceEngine
	s3Client       s3.ItfS3
	livenessConfig liveness.Config
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		livenessConfig: liveness.DefaultConfig(),
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects to Postgres and applies pending migrations.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before database")
		}

		db, err := postgres.New()
		if err != nil {
			s.log.Errorf("Failed to connect to database: %v", err)
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		if err := postgres.MigrateUp(db, s.log); err != nil {
			db.Close()
			return err
		}

		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithFaceEngine(faceEngine websocketPkg.IFaceEngine) ServerOption {
	return func(s *Server) error {
		s.faceEngine = faceEngine
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func WithLivenessConfig(cfg liveness.Config) ServerOption {
	return func(s *Server) error {
		if !cfg.DefaultTolerance.Valid() {
			return liveness.ErrInvalidTolerance
		}
		if !cfg.DefaultAxis.Valid() {
			return liveness.ErrInvalidAxis
		}
		if cfg.SessionTTL <= 0 {
			return fmt.Errorf("liveness session TTL must be positive")
		}
		s.livenessConfig = cfg
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Liveness Domain
	livenessRepo := livenessRepository.New(s.db, s.log)
	livenessServices := livenessService.NewLivenessService(s.log, livenessRepo, s.redisServer, s.faceEngine, s.bcryptUtils, s.utils, s.livenessConfig)
	livenessHandlers := livenessHandler.New(s.log, s.validator, s.middleware, livenessServices)

	// Capture Domain
	captureRepo := captureRepository.New(s.db, s.log)
	captureServices := captureService.NewCaptureService(s.log, captureRepo, livenessServices, s.s3Client, s.utils)
	captureHandlers := captureHandler.New(s.log, s.middleware, captureServices)

	s.handlers = append(s.handlers, livenessHandlers, captureHandlers)
}

func (s *Server) mountRoutes() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupHealthCheck()

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Run() error {
	s.mountRoutes()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests and releases the face engine connection
// and the database pool.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if s.faceEngine != nil {
		s.faceEngine.Close()
	}
	if s.db != nil {
		if dbErr := s.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message":     "Server is Healthy!",
			"face_engine": s.faceEngine != nil && s.faceEngine.IsConnected(),
		})
	})
}
