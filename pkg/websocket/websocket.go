package websocketPkg

import (
	"KYCCapture/internal/entity"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("not connected to face detection service")

// IFaceEngine forwards camera frames to the external face detection service.
type IFaceEngine interface {
	ProcessFaceFrame(ctx context.Context, frame []byte) (*entity.DetectionResult, error)
	IsConnected() bool
	Reconnect() error
	Close()
}

type faceEngineClient struct {
	url          string
	conn         *websocket.Conn
	mu           sync.Mutex
	log          *logrus.Logger
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewFaceEngineClient dials AI_FACE_DETECTION_URL in the background. A failed
// first dial is retried on the next frame.
func NewFaceEngineClient(log *logrus.Logger) IFaceEngine {
	url := os.Getenv("AI_FACE_DETECTION_URL")
	if url == "" {
		url = "ws://localhost:8000/api/v1/face/ws"
	}

	client := newFaceEngineClient(log, url)
	go client.connectInBackground()

	return client
}

func newFaceEngineClient(log *logrus.Logger, url string) *faceEngineClient {
	return &faceEngineClient{
		url:          url,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

func (c *faceEngineClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.Warnf("Initial connection to face detection service failed: %v. Will retry on demand.", err)
		return
	}
	c.log.Info("Successfully connected to face detection service")
}

func (c *faceEngineClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

func (c *faceEngineClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if c.url == "" {
		return fmt.Errorf("face detection URL not configured")
	}

	c.log.Infof("Connecting to face detection service at %s", c.url)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *faceEngineClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// keepAlive pings conn until it is replaced, closed, or a ping fails.
func (c *faceEngineClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Warnf("Ping failed for face detection service, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *faceEngineClient) connection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// dropConnection forgets conn if it is still the current one.
func (c *faceEngineClient) dropConnection(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

// ProcessFaceFrame sends one frame and waits for the matching verdict. The
// engine answers frames in order, so the whole exchange holds the client lock.
func (c *faceEngineClient) ProcessFaceFrame(ctx context.Context, frame []byte) (*entity.DetectionResult, error) {
	conn, err := c.connection()
	if err != nil {
		if err := c.Reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to face detection service: %w", err)
		}
		if conn, err = c.connection(); err != nil {
			return nil, err
		}
	}

	readDeadline := time.Now().Add(c.readTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(readDeadline) {
		readDeadline = deadline
	}

	c.mu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.mu.Unlock()
		c.dropConnection(conn)
		return nil, fmt.Errorf("error sending face frame: %w", err)
	}

	_ = conn.SetReadDeadline(readDeadline)
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.mu.Unlock()
		c.dropConnection(conn)
		return nil, fmt.Errorf("error reading face message: %w", err)
	}

	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})
	c.mu.Unlock()

	var result entity.DetectionResult
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling face response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"frame_bytes":  len(frame),
		"status":       result.Status,
		"instructions": result.Instructions,
		"deviations":   result.Deviations,
	}).Debug("Face detection result")

	return &result, nil
}
