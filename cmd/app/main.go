package main

import (
	"KYCCapture/internal/api/liveness"
	"KYCCapture/internal/config"
	"KYCCapture/pkg/log"
	"KYCCapture/pkg/redis"
	websocketPkg "KYCCapture/pkg/websocket"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; the logger reads LOG_LEVEL so it loads first.
	envErr := godotenv.Load()

	logger := log.NewLogger()
	if envErr != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", envErr)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	redisServer := redis.New(logger)
	faceEngine := websocketPkg.NewFaceEngineClient(logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithRedisServer(redisServer),
		config.WithFaceEngine(faceEngine),
		config.WithMiddleware(),
		config.WithS3Client(),
		config.WithBcryptUtils(),
		config.WithUtils(),
		config.WithLivenessConfig(liveness.LoadConfig()),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
