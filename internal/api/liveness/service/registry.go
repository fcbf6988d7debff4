package livenessService

import (
	"KYCCapture/internal/entity"
	"KYCCapture/pkg/facezone"
	"sync"
	"sync/atomic"
	"time"
)

// sessionState is the live classifier of one session. mu serializes every
// Observe and the persistence that follows it.
type sessionState struct {
	mu         sync.Mutex
	id         string
	userID     string
	axis       entity.CaptureAxis
	classifier *facezone.Classifier
	compliant  bool
	centered   bool

	// expiresAt mirrors the Redis snapshot TTL, in unix nanoseconds.
	expiresAt atomic.Int64
}

func (s *sessionState) touch(deadline time.Time) {
	s.expiresAt.Store(deadline.UnixNano())
}

func (s *sessionState) expired(now time.Time) bool {
	return now.UnixNano() >= s.expiresAt.Load()
}

func (s *sessionState) snapshot(now time.Time) entity.SessionSnapshot {
	return entity.SessionSnapshot{
		SessionID: s.id,
		UserID:    s.userID,
		Tolerance: int(s.classifier.Tolerance()),
		Axis:      s.axis,
		LastZone:  int(s.classifier.Last()),
		Compliant: s.compliant,
		Centered:  s.centered,
		UpdatedAt: now,
	}
}

func stateFromSnapshot(snapshot entity.SessionSnapshot) *sessionState {
	axis := snapshot.Axis
	if !axis.Valid() {
		axis = entity.AxisHorizontal
	}
	return &sessionState{
		id:         snapshot.SessionID,
		userID:     snapshot.UserID,
		axis:       axis,
		classifier: facezone.Restore(facezone.Tolerance(snapshot.Tolerance), facezone.Zone(snapshot.LastZone)),
		compliant:  snapshot.Compliant,
		centered:   snapshot.Centered,
	}
}

type registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[string]*sessionState),
	}
}

func (r *registry) get(id string) (*sessionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.sessions[id]
	return state, ok
}

// putIfAbsent stores state unless another goroutine got there first, and
// returns whichever state is registered.
func (r *registry) putIfAbsent(state *sessionState) *sessionState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[state.id]; ok {
		return existing
	}
	r.sessions[state.id] = state
	return state
}

func (r *registry) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
}

// evict drops state only if it is still the registered entry for its id.
func (r *registry) evict(state *sessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[state.id] == state {
		delete(r.sessions, state.id)
	}
}

// evictExpired drops every session whose TTL passed without a write and
// returns how many were dropped.
func (r *registry) evictExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, state := range r.sessions {
		if state.expired(now) {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
