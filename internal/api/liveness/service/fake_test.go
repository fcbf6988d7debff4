package livenessService

import (
	"KYCCapture/internal/api/liveness"
	livenessRepository "KYCCapture/internal/api/liveness/repository"
	"KYCCapture/internal/entity"
	"context"
	"errors"
	"sync"
	"time"
)

type memoryStore struct {
	mu         sync.Mutex
	sessions   map[string]entity.LivenessSession
	events     []entity.ZoneEvent
	failEvents error
	commits    int
	rollbacks  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]entity.LivenessSession)}
}

func (m *memoryStore) NewClient(tx bool) (livenessRepository.Client, error) {
	return livenessRepository.Client{
		Session: m,
		Event:   m,
		Commit: func() error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.commits++
			return nil
		},
		Rollback: func() error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.rollbacks++
			return nil
		},
	}, nil
}

func (m *memoryStore) CreateSession(_ context.Context, session entity.LivenessSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *memoryStore) GetSessionByID(_ context.Context, id string) (entity.LivenessSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return entity.LivenessSession{}, liveness.ErrSessionNotFound
	}
	return session, nil
}

func (m *memoryStore) mutate(id string, fn func(*entity.LivenessSession) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || !session.IsActive() {
		return liveness.ErrSessionClosed
	}
	if err := fn(&session); err != nil {
		return err
	}
	m.sessions[id] = session
	return nil
}

func (m *memoryStore) UpdateTolerance(_ context.Context, id string, tolerance int) error {
	return m.mutate(id, func(s *entity.LivenessSession) error {
		s.Tolerance = tolerance
		return nil
	})
}

func (m *memoryStore) UpdateZoneState(_ context.Context, id string, lastZone int, centered bool) error {
	return m.mutate(id, func(s *entity.LivenessSession) error {
		s.LastZone = lastZone
		s.Centered = centered
		return nil
	})
}

func (m *memoryStore) ClaimSession(_ context.Context, id string, claimedAt time.Time) error {
	return m.mutate(id, func(s *entity.LivenessSession) error {
		if s.ClaimedAt != nil {
			return liveness.ErrSessionAlreadyClaimed
		}
		s.ClaimedAt = &claimedAt
		return nil
	})
}

func (m *memoryStore) EndSession(_ context.Context, id string, endedAt time.Time) error {
	return m.mutate(id, func(s *entity.LivenessSession) error {
		s.Status = entity.SessionEnded
		s.EndedAt = &endedAt
		return nil
	})
}

func (m *memoryStore) CreateEvent(_ context.Context, event entity.ZoneEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEvents != nil {
		return m.failEvents
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memoryStore) ListEventsBySessionID(_ context.Context, sessionID string) ([]entity.ZoneEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.ZoneEvent
	for _, e := range m.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubFaceEngine struct {
	result *entity.DetectionResult
	err    error
	frames int
}

func (f *stubFaceEngine) ProcessFaceFrame(_ context.Context, _ []byte) (*entity.DetectionResult, error) {
	f.frames++
	return f.result, f.err
}

func (f *stubFaceEngine) IsConnected() bool { return f.err == nil }
func (f *stubFaceEngine) Reconnect() error  { return nil }
func (f *stubFaceEngine) Close()            {}

var errEngineDown = errors.New("engine down")

// testClock is a settable clock for session expiry.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
