package redis

import (
	"KYCCapture/internal/entity"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrSnapshotNotFound = errors.New("session snapshot not found")

const sessionKeyPrefix = "liveness:session:"

type IRedis interface {
	SaveSession(ctx context.Context, snapshot entity.SessionSnapshot, expiration time.Duration) error
	GetSession(ctx context.Context, sessionID string) (entity.SessionSnapshot, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")

	log.Infof("Connecting to Redis at %s...", redisAddr)

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Errorf("Failed to connect to Redis: %v", err)
	} else {
		log.Info("Successfully connected to Redis")
	}

	return NewWithClient(client, log)
}

func NewWithClient(client *redis.Client, log *logrus.Logger) IRedis {
	return &redisClient{client: client, log: log}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *redisClient) SaveSession(ctx context.Context, snapshot entity.SessionSnapshot, expiration time.Duration) error {
	payload, err := jsoniter.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(snapshot.SessionID), payload, expiration).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": snapshot.SessionID,
			"error":      err.Error(),
		}).Error("Error saving session snapshot")
		return err
	}

	r.log.WithFields(logrus.Fields{
		"session_id": snapshot.SessionID,
		"last_zone":  snapshot.LastZone,
		"expiration": expiration.String(),
	}).Debug("Saved session snapshot")
	return nil
}

func (r *redisClient) GetSession(ctx context.Context, sessionID string) (entity.SessionSnapshot, error) {
	val, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.log.WithField("session_id", sessionID).Debug("Session snapshot not found")
		return entity.SessionSnapshot{}, ErrSnapshotNotFound
	} else if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error getting session snapshot")
		return entity.SessionSnapshot{}, err
	}

	var snapshot entity.SessionSnapshot
	if err := jsoniter.Unmarshal(val, &snapshot); err != nil {
		return entity.SessionSnapshot{}, fmt.Errorf("failed to decode session snapshot: %w", err)
	}

	return snapshot, nil
}

func (r *redisClient) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := r.client.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error deleting session snapshot")
		return err
	}

	if result == 0 {
		r.log.WithField("session_id", sessionID).Debug("Session snapshot not found for deletion")
	}

	return nil
}
