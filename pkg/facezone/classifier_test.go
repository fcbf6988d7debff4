package facezone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestIsCentered_Tolerance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		zone      Zone
		tolerance Tolerance
		want      bool
	}{
		{"strict accepts centre", 4, 1, true},
		{"strict rejects neighbour", 3, 1, false},
		{"two accepts neighbours", 5, 2, true},
		{"two rejects second ring", 6, 2, false},
		{"three accepts second ring", 2, 3, true},
		{"four accepts third ring", 7, 4, true},
		{"four rejects edges", 0, 4, false},
		{"lenient accepts left edge", 0, 5, true},
		{"lenient accepts right edge", 8, 5, true},
		{"tolerance below range clamps to strict", 5, 0, false},
		{"tolerance above range clamps to lenient", 8, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCentered(tt.zone, tt.tolerance, true))
		})
	}
}

func TestIsCentered_RequiresCompliance(t *testing.T) {
	t.Parallel()

	for tol := MinTolerance; tol <= MaxTolerance; tol++ {
		assert.False(t, IsCentered(CenterZone, tol, false))
	}
	assert.False(t, IsCentered(NoZone, MaxTolerance, true))
}

func TestIsCentered_MonotonicInTolerance(t *testing.T) {
	t.Parallel()

	for z := FarLeftZone; z <= FarRightZone; z++ {
		wasCentered := false
		for tol := MinTolerance; tol <= MaxTolerance; tol++ {
			centered := IsCentered(z, tol, true)
			if wasCentered {
				assert.Truef(t, centered, "zone %d lost centered status at tolerance %d", z, tol)
			}
			wasCentered = centered
		}
		assert.Truef(t, wasCentered, "zone %d must be centered at max tolerance", z)
	}
}

func TestClassifier_EdgeTriggered(t *testing.T) {
	t.Parallel()

	c := New(DefaultTolerance)
	require.Equal(t, NoZone, c.Last())

	_, change := c.Observe(0.1, true)
	require.NotNil(t, change)
	assert.Equal(t, ZoneChange{From: NoZone, To: CenterZone}, *change)

	_, change = c.Observe(0.1, true)
	assert.Nil(t, change)

	// Different input inside the same zone stays quiet.
	_, change = c.Observe(-0.3, false)
	assert.Nil(t, change)

	_, change = c.Observe(0.6, true)
	require.NotNil(t, change)
	assert.Equal(t, ZoneChange{From: CenterZone, To: 6}, *change)
	assert.Equal(t, Zone(6), c.Last())
}

func TestClassifier_CenteredIsLevelTriggered(t *testing.T) {
	t.Parallel()

	c := New(1)

	fb, change := c.Observe(0, true)
	require.NotNil(t, change)
	assert.True(t, fb.Centered)

	// Compliance drops without a zone change: no event, but the signal follows.
	fb, change = c.Observe(0, false)
	assert.Nil(t, change)
	assert.False(t, fb.Centered)
	assert.Equal(t, "look at the camera", fb.Instruction())
}

func TestClassifier_Scenario(t *testing.T) {
	t.Parallel()

	c := New(1)
	inputs := []float64{-0.9, -0.9, 0.1, 0.95}

	type step struct {
		changed  bool
		zone     Zone
		centered bool
	}
	want := []step{
		{true, 0, false},
		{false, 0, false},
		{true, 4, true},
		{true, 8, false},
	}

	for i, p := range inputs {
		fb, change := c.Observe(p, true)
		assert.Equalf(t, want[i].changed, change != nil, "step %d", i)
		assert.Equalf(t, want[i].zone, fb.Zone, "step %d", i)
		assert.Equalf(t, want[i].centered, fb.Centered, "step %d", i)
		if change != nil {
			assert.Equal(t, fb.Zone, change.To)
		}
	}
}

func TestClassifier_ObserveSample(t *testing.T) {
	t.Parallel()

	c := New(MaxTolerance)

	fb, _ := c.ObserveSample(Sample{Position: 0.99})
	assert.False(t, fb.Compliant, "missing compliance is read as false")
	assert.False(t, fb.Centered)
	assert.Equal(t, DirectionRight, fb.Direction)
	assert.Equal(t, "move left", fb.Instruction())

	fb, _ = c.ObserveSample(Sample{Position: 0.99, Compliant: boolPtr(true)})
	assert.True(t, fb.Centered)
}

func TestClassifier_ToleranceAndRestore(t *testing.T) {
	t.Parallel()

	c := New(12)
	assert.Equal(t, MaxTolerance, c.Tolerance())

	c.SetTolerance(-1)
	assert.Equal(t, MinTolerance, c.Tolerance())

	r := Restore(3, 7)
	assert.Equal(t, Zone(7), r.Last())
	_, change := r.Observe(0.75, true)
	assert.Nil(t, change, "restored zone must suppress a duplicate event")

	r.Reset()
	_, change = r.Observe(0.75, true)
	assert.NotNil(t, change)

	assert.Equal(t, NoZone, Restore(3, 42).Last())
}

func TestClassifier_ClampsPosition(t *testing.T) {
	t.Parallel()

	fb, _ := New(DefaultTolerance).Observe(-4, true)
	assert.Equal(t, -1.0, fb.Position)
	assert.Equal(t, FarLeftZone, fb.Zone)
	assert.Equal(t, DirectionLeft, fb.Direction)
}
