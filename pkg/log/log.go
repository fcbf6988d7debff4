package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	contextPkg "KYCCapture/pkg/context"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

const (
	RequestIDKey = "request_id"
	SessionIDKey = "session_id"
)

type Fields = logrus.Fields

func NewLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(levelFromEnv())

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        false,
			TimestampFormat: "02 Jan 06 - 15:04",
			HideKeys:        false,
			CallerFirst:     true,
			FieldsOrder:     []string{RequestIDKey, SessionIDKey},
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}

		if os.Getenv("APP_ENV") != "test" {
			logDir := os.Getenv("LOG_DIR")
			if logDir == "" {
				logDir = "./storage/logs"
			}
			writers = append(writers, &lumberjack.Logger{
				Filename:   filepath.Join(logDir, fmt.Sprintf("capture-%s.log", time.Now().Format("2006-01-02"))),
				LocalTime:  true,
				Compress:   true,
				MaxSize:    100,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})

	return logger
}

func levelFromEnv() logrus.Level {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return logrus.DebugLevel
	}
	return level
}

func Debug(fields Fields, msg string) {
	NewLogger().WithFields(orEmpty(fields)).Debug(msg)
}

func Info(fields Fields, msg string) {
	NewLogger().WithFields(orEmpty(fields)).Info(msg)
}

func Warn(fields Fields, msg string) {
	NewLogger().WithFields(orEmpty(fields)).Warn(msg)
}

func Error(fields Fields, msg string) {
	NewLogger().WithFields(orEmpty(fields)).Error(msg)
}

// ErrorWithTraceID logs msg and returns the id a client can quote back. The
// request id is reused when present.
func ErrorWithTraceID(fields Fields, msg string) string {
	fields = orEmpty(fields)

	var traceID string
	if reqID, ok := fields[RequestIDKey].(string); ok && reqID != "" && reqID != "unknown" {
		traceID = reqID
	} else {
		id, err := uuid.NewRandom()
		if err != nil {
			Error(Fields{
				"error": err.Error(),
			}, "[log.ErrorWithTraceID] failed to generate trace ID")
			traceID = "unknown"
		} else {
			traceID = id.String()
		}
	}

	fields["trace_id"] = traceID
	NewLogger().WithFields(fields).Error(msg)

	return traceID
}

func Fatal(fields Fields, msg string) {
	NewLogger().WithFields(orEmpty(fields)).Fatal(msg)
}

// WithRequestID returns an entry tagged with the request and session ids
// carried by ctx.
func WithRequestID(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return NewLogger().WithField(RequestIDKey, "unknown")
	}

	fields := Fields{RequestIDKey: contextPkg.GetRequestID(ctx)}
	if sessionID := contextPkg.GetSessionID(ctx); sessionID != "" {
		fields[SessionIDKey] = sessionID
	}

	return NewLogger().WithFields(fields)
}

func orEmpty(fields Fields) Fields {
	if fields == nil {
		return Fields{}
	}
	return fields
}
