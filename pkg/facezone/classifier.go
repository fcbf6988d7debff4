package facezone

// Tolerance is the capture strictness. 1 only accepts the centre zone, 5
// accepts every zone.
type Tolerance int

const (
	MinTolerance     Tolerance = 1
	MaxTolerance     Tolerance = 5
	DefaultTolerance Tolerance = 2
)

func (t Tolerance) Valid() bool {
	return t >= MinTolerance && t <= MaxTolerance
}

func (t Tolerance) Clamp() Tolerance {
	switch {
	case t < MinTolerance:
		return MinTolerance
	case t > MaxTolerance:
		return MaxTolerance
	default:
		return t
	}
}

// IsCentered reports whether a zone counts as in position. A zone qualifies
// when it lies at most t-1 zones away from the centre, both ends inclusive.
func IsCentered(z Zone, t Tolerance, compliant bool) bool {
	if !compliant || !z.Valid() {
		return false
	}
	return z.Distance() <= int(t.Clamp())-1
}

// Sample is one frame worth of input. A nil Compliant is read as false.
type Sample struct {
	Position  float64 `json:"position" yaml:"position"`
	Compliant *bool   `json:"compliant,omitempty" yaml:"compliant"`
}

func (s Sample) IsCompliant() bool {
	return s.Compliant != nil && *s.Compliant
}

type Feedback struct {
	Zone      Zone      `json:"zone"`
	Position  float64   `json:"position"`
	Compliant bool      `json:"compliant"`
	Centered  bool      `json:"centered"`
	Direction Direction `json:"direction"`
}

// Instruction is the correction shown to the user. A rejected frame with no
// position to correct asks the user to face the camera.
func (f Feedback) Instruction() string {
	switch {
	case f.Centered:
		return "hold still"
	case !f.Compliant && f.Direction == DirectionNone:
		return "look at the camera"
	}
	return f.Direction.Instruction()
}

type ZoneChange struct {
	From Zone `json:"from"`
	To   Zone `json:"to"`
}

// Classifier tracks the last reported zone of one capture session so that
// zone changes are reported once per edge. It is not safe for concurrent use;
// callers feeding it from several goroutines must serialize calls.
type Classifier struct {
	prev      Zone
	tolerance Tolerance
}

func New(t Tolerance) *Classifier {
	return Restore(t, NoZone)
}

// Restore rebuilds a classifier whose last reported zone was prev.
func Restore(t Tolerance, prev Zone) *Classifier {
	if !prev.Valid() {
		prev = NoZone
	}
	return &Classifier{
		prev:      prev,
		tolerance: t.Clamp(),
	}
}

// Observe classifies p. The centered signal is recomputed on every call. The
// returned change is nil unless the zone differs from the last reported one.
func (c *Classifier) Observe(p float64, compliant bool) (Feedback, *ZoneChange) {
	zone := Classify(p)

	fb := Feedback{
		Zone:      zone,
		Position:  Clamp(p),
		Compliant: compliant,
		Centered:  IsCentered(zone, c.tolerance, compliant),
		Direction: zone.Direction(),
	}

	var change *ZoneChange
	if zone != c.prev {
		change = &ZoneChange{From: c.prev, To: zone}
	}
	c.prev = zone

	return fb, change
}

func (c *Classifier) ObserveSample(s Sample) (Feedback, *ZoneChange) {
	return c.Observe(s.Position, s.IsCompliant())
}

func (c *Classifier) Last() Zone {
	return c.prev
}

func (c *Classifier) Tolerance() Tolerance {
	return c.tolerance
}

func (c *Classifier) SetTolerance(t Tolerance) {
	c.tolerance = t.Clamp()
}

// Reset forgets the last reported zone so the next sample always reports.
func (c *Classifier) Reset() {
	c.prev = NoZone
}
