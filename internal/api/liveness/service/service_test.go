package livenessService

import (
	"KYCCapture/internal/api/liveness"
	"KYCCapture/internal/entity"
	"KYCCapture/pkg/bcrypt"
	"KYCCapture/pkg/facezone"
	"KYCCapture/pkg/redis"
	"KYCCapture/pkg/utils"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cryptoBcrypt "golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc    ILivenessService
	store  *memoryStore
	redis  redis.IRedis
	mini   *miniredis.Miniredis
	engine *stubFaceEngine
	clock  *testClock
	log    *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	mini := miniredis.RunT(t)
	rdb := redis.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mini.Addr()}), log)

	f := &fixture{
		store:  newMemoryStore(),
		redis:  rdb,
		mini:   mini,
		engine: &stubFaceEngine{},
		clock:  newTestClock(),
		log:    log,
	}
	f.svc = f.newService()
	return f
}

// newService builds a second service over the same stores, standing in for
// another process.
func (f *fixture) newService() ILivenessService {
	svc := NewLivenessService(
		f.log,
		f.store,
		f.redis,
		f.engine,
		bcrypt.NewWithCost(cryptoBcrypt.MinCost),
		utils.New(),
		liveness.DefaultConfig(),
	)
	svc.(*livenessService).now = f.clock.Now
	return svc
}

// expire moves both Redis and the service clock past the session TTL.
func (f *fixture) expire(d time.Duration) {
	f.mini.FastForward(d)
	f.clock.Advance(d)
}

func intPtr(v int) *int { return &v }

func compliant(p float64) facezone.Sample {
	ok := true
	return facezone.Sample{Position: p, Compliant: &ok}
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, code, err := f.svc.CreateSession(ctx, "user-1", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	assert.Len(t, code, 6)
	assert.Equal(t, int(facezone.DefaultTolerance), session.Tolerance)
	assert.Equal(t, entity.AxisHorizontal, session.Axis)
	assert.Equal(t, int(facezone.NoZone), session.LastZone)
	assert.NotEqual(t, code, session.HandoffCodeHash)

	snapshot, err := f.redis.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", snapshot.UserID)
	assert.Equal(t, int(facezone.NoZone), snapshot.LastZone)
	assert.True(t, f.mini.TTL("liveness:session:"+session.ID) > 0)
}

func TestCreateSession_RejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateSession(context.Background(), "u", liveness.CreateSessionRequest{Tolerance: intPtr(9)})
	assert.ErrorIs(t, err, liveness.ErrInvalidTolerance)

	_, _, err = f.svc.CreateSession(context.Background(), "u", liveness.CreateSessionRequest{Axis: "z"})
	assert.ErrorIs(t, err, liveness.ErrInvalidAxis)
}

func TestProcessPosition_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{Tolerance: intPtr(1)})
	require.NoError(t, err)

	type step struct {
		p        float64
		changed  bool
		zone     facezone.Zone
		centered bool
	}
	steps := []step{
		{-0.9, true, 0, false},
		{-0.9, false, 0, false},
		{0.1, true, 4, true},
		{0.95, true, 8, false},
	}

	for i, s := range steps {
		fb, change, err := f.svc.ProcessPosition(ctx, session.ID, compliant(s.p))
		require.NoError(t, err)

		assert.Equal(t, s.changed, change != nil, "step %d", i)
		assert.Equal(t, s.zone, fb.Zone, "step %d", i)
		assert.Equal(t, s.centered, fb.Centered, "step %d", i)
	}

	events, err := f.svc.ListEvents(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int{0, 4, 8}, []int{events[0].ToZone, events[1].ToZone, events[2].ToZone})
	assert.Equal(t, int(facezone.NoZone), events[0].FromZone)

	stored, err := f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.LastZone)
	assert.False(t, stored.Centered)
}

func TestProcessPosition_CompliancePersistsWithoutEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	_, change, err := f.svc.ProcessPosition(ctx, session.ID, facezone.Sample{Position: 0})
	require.NoError(t, err)
	require.NotNil(t, change)

	fb, change, err := f.svc.ProcessPosition(ctx, session.ID, compliant(0.05))
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.True(t, fb.Centered)

	centered, err := f.svc.IsCentered(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, centered)

	assert.Len(t, f.store.events, 1)
	stored, _ := f.svc.GetSession(ctx, session.ID)
	assert.True(t, stored.Centered)
}

func TestProcessPosition_FailedPersistenceReplaysEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	f.store.failEvents = errors.New("db down")
	_, _, err = f.svc.ProcessPosition(ctx, session.ID, compliant(0))
	require.Error(t, err)
	assert.Equal(t, 1, f.store.rollbacks)

	f.store.failEvents = nil
	_, change, err := f.svc.ProcessPosition(ctx, session.ID, compliant(0))
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, facezone.NoZone, change.From)
	assert.Equal(t, facezone.CenterZone, change.To)
}

func TestProcessPosition_RebuildsFromSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{Tolerance: intPtr(3)})
	require.NoError(t, err)

	_, change, err := f.svc.ProcessPosition(ctx, session.ID, compliant(0.6))
	require.NoError(t, err)
	require.NotNil(t, change)

	restarted := f.newService()

	fb, change, err := restarted.ProcessPosition(ctx, session.ID, compliant(0.62))
	require.NoError(t, err)
	assert.Nil(t, change, "zone 6 was already reported before the restart")
	assert.Equal(t, facezone.Zone(6), fb.Zone)
	assert.True(t, fb.Centered)
}

func TestProcessPosition_MissingEverywhere(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.ProcessPosition(context.Background(), "nope", compliant(0))
	assert.ErrorIs(t, err, liveness.ErrSessionNotFound)
}

func TestProcessPosition_ExpiredSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	f.mini.FastForward(liveness.DefaultConfig().SessionTTL + time.Second)

	_, _, err = f.newService().ProcessPosition(ctx, session.ID, compliant(0))
	assert.ErrorIs(t, err, liveness.ErrSessionNotFound)
}

func TestUpdateTolerance_KeepsPreviousZone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{Tolerance: intPtr(1)})
	require.NoError(t, err)

	fb, _, err := f.svc.ProcessPosition(ctx, session.ID, compliant(0.45))
	require.NoError(t, err)
	assert.False(t, fb.Centered)

	updated, err := f.svc.UpdateTolerance(ctx, session.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Tolerance)

	fb, change, err := f.svc.ProcessPosition(ctx, session.ID, compliant(0.45))
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.True(t, fb.Centered)

	_, err = f.svc.UpdateTolerance(ctx, session.ID, 0)
	assert.ErrorIs(t, err, liveness.ErrInvalidTolerance)
}

func TestUpdateTolerance_RecomputesCentered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{Tolerance: intPtr(5)})
	require.NoError(t, err)

	fb, _, err := f.svc.ProcessPosition(ctx, session.ID, compliant(0.95))
	require.NoError(t, err)
	require.Equal(t, facezone.FarRightZone, fb.Zone)
	require.True(t, fb.Centered)

	_, err = f.svc.UpdateTolerance(ctx, session.ID, 1)
	require.NoError(t, err)

	centered, err := f.svc.IsCentered(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, centered, "zone 8 is off-centre at tolerance 1")

	stored, err := f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, stored.Centered)
	assert.Equal(t, 1, stored.Tolerance)

	snapshot, err := f.redis.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, snapshot.Centered)
	assert.True(t, snapshot.Compliant)

	// Raising it again restores centered without a new sample, in this
	// process and in a rebuilt one.
	_, err = f.svc.UpdateTolerance(ctx, session.ID, 5)
	require.NoError(t, err)

	centered, err = f.newService().IsCentered(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, centered)
}

func TestUpdateTolerance_NonCompliantStaysOffCentre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{Tolerance: intPtr(1)})
	require.NoError(t, err)

	_, _, err = f.svc.ProcessPosition(ctx, session.ID, facezone.Sample{Position: 0.95})
	require.NoError(t, err)

	_, err = f.svc.UpdateTolerance(ctx, session.ID, 5)
	require.NoError(t, err)

	centered, err := f.svc.IsCentered(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, centered)
}

func TestProcessPosition_ExpiresInSameProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ttl := liveness.DefaultConfig().SessionTTL

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	f.expire(ttl + time.Minute)

	_, _, err = f.svc.ProcessPosition(ctx, session.ID, compliant(0))
	assert.ErrorIs(t, err, liveness.ErrSessionNotFound)

	_, err = f.svc.IsCentered(ctx, session.ID)
	assert.ErrorIs(t, err, liveness.ErrSessionNotFound)
	assert.Zero(t, f.svc.(*livenessService).sessions.size())
}

func TestProcessPosition_ActivityKeepsSessionAlive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ttl := liveness.DefaultConfig().SessionTTL

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	// Samples without any edge still refresh both deadlines.
	for i := 0; i < 3; i++ {
		f.expire(ttl - time.Minute)
		_, _, err := f.svc.ProcessPosition(ctx, session.ID, facezone.Sample{Position: 0.9})
		require.NoError(t, err, "sample %d", i)
	}

	assert.True(t, f.mini.TTL("liveness:session:"+session.ID) > ttl-time.Second)

	_, _, err = f.newService().ProcessPosition(ctx, session.ID, facezone.Sample{Position: 0.9})
	assert.NoError(t, err)
}

func TestCreateSession_EvictsAbandonedSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.(*livenessService)

	for i := 0; i < 3; i++ {
		_, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
		require.NoError(t, err)
	}
	require.Equal(t, 3, svc.sessions.size())

	f.expire(liveness.DefaultConfig().SessionTTL + time.Second)

	_, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.sessions.size())
}

func TestProcessFrame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{Axis: "y"})
	require.NoError(t, err)

	f.engine.result = &entity.DetectionResult{
		Status:       entity.AdjustPosition,
		FacePosition: &entity.Position{X: 10, Y: 20},
		Deviations:   map[string]float64{"x": 0.0, "y": -0.75},
	}

	fb, change, err := f.svc.ProcessFrame(ctx, session.ID, []byte{0xff, 0xd8})
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, facezone.Zone(1), fb.Zone)
	assert.True(t, fb.Compliant)
	assert.Equal(t, facezone.DirectionLeft, fb.Direction)

	f.engine.result = &entity.DetectionResult{Status: entity.NoFaceDetected}
	fb, change, err = f.svc.ProcessFrame(ctx, session.ID, []byte{0xff})
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.False(t, fb.Compliant)
	assert.Equal(t, facezone.Zone(1), fb.Zone)
	assert.False(t, fb.Centered)
	assert.Equal(t, "look at the camera", fb.Instruction())

	events, err := f.svc.ListEvents(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].ToZone)
}

func TestProcessFrame_FaceLostDropsCentered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	f.engine.result = &entity.DetectionResult{
		Status:       entity.PerfectPosition,
		FacePosition: &entity.Position{X: 0, Y: 0},
		Deviations:   map[string]float64{"x": 0.1},
	}
	fb, _, err := f.svc.ProcessFrame(ctx, session.ID, []byte{1})
	require.NoError(t, err)
	require.True(t, fb.Centered)

	// Engine reports a face status but no face box.
	f.engine.result = &entity.DetectionResult{Status: entity.AdjustPosition}
	fb, change, err := f.svc.ProcessFrame(ctx, session.ID, []byte{1})
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.Equal(t, facezone.CenterZone, fb.Zone)
	assert.False(t, fb.Centered)

	centered, err := f.svc.IsCentered(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, centered)

	stored, err := f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int(facezone.CenterZone), stored.LastZone)
	assert.False(t, stored.Centered)
	assert.Len(t, f.store.events, 1)

	// The face comes back in the same zone: no new edge, centered again.
	f.engine.result = &entity.DetectionResult{
		Status:       entity.PerfectPosition,
		FacePosition: &entity.Position{X: 0, Y: 0},
		Deviations:   map[string]float64{"x": 0.1},
	}
	fb, change, err = f.svc.ProcessFrame(ctx, session.ID, []byte{1})
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.True(t, fb.Centered)
}

func TestProcessFrame_NoFaceBeforeAnySample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	f.engine.result = &entity.DetectionResult{Status: entity.NoFaceDetected}
	fb, change, err := f.svc.ProcessFrame(ctx, session.ID, []byte{1})
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.Equal(t, facezone.NoZone, fb.Zone)
	assert.Empty(t, f.store.events)
}

func TestProcessFrame_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	_, _, err = f.svc.ProcessFrame(ctx, session.ID, nil)
	assert.ErrorIs(t, err, liveness.ErrEmptyFrame)

	f.engine.err = errEngineDown
	_, _, err = f.svc.ProcessFrame(ctx, session.ID, []byte{1})
	assert.ErrorIs(t, err, liveness.ErrFaceEngineUnavailable)
}

func TestClaimSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, code, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	_, err = f.svc.ClaimSession(ctx, session.ID, "000000x")
	assert.ErrorIs(t, err, liveness.ErrInvalidHandoffCode)

	claimed, err := f.svc.ClaimSession(ctx, session.ID, code)
	require.NoError(t, err)
	assert.NotNil(t, claimed.ClaimedAt)

	_, err = f.svc.ClaimSession(ctx, session.ID, code)
	assert.ErrorIs(t, err, liveness.ErrSessionAlreadyClaimed)

	assert.NoError(t, f.svc.VerifyHandoffCode(ctx, session.ID, code))
}

func TestAuthorizeSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "owner", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	_, err = f.svc.AuthorizeSession(ctx, session.ID, "owner")
	assert.NoError(t, err)

	_, err = f.svc.AuthorizeSession(ctx, session.ID, "intruder")
	assert.ErrorIs(t, err, liveness.ErrSessionNotOwned)
}

func TestEndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, code, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	require.NoError(t, f.svc.EndSession(ctx, session.ID))

	_, err = f.redis.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, redis.ErrSnapshotNotFound)

	_, _, err = f.svc.ProcessPosition(ctx, session.ID, compliant(0))
	assert.ErrorIs(t, err, liveness.ErrSessionClosed)

	assert.ErrorIs(t, f.svc.EndSession(ctx, session.ID), liveness.ErrSessionClosed)
	assert.ErrorIs(t, f.svc.VerifyHandoffCode(ctx, session.ID, code), liveness.ErrSessionClosed)
}

func TestProcessPosition_ConcurrentProducersEmitEachEdgeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.svc.CreateSession(ctx, "u", liveness.CreateSessionRequest{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	changes := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, change, err := f.svc.ProcessPosition(ctx, session.ID, compliant(0.1))
			assert.NoError(t, err)
			if change != nil {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changes)
}
