package swipe

import (
	"context"
	"time"

	"github.com/ayusman/swipectl/internal/log"
)

// GapPolicy controls what happens to the motion history when a frame has no hand.
type GapPolicy int

const (
	// KeepHistory leaves the buffer untouched on frames without a hand, so
	// positions from before and after a detection gap can share one window.
	KeepHistory GapPolicy = iota
	// ClearOnGap empties the buffer whenever a frame has no hand.
	ClearOnGap
)

// Config holds Recognizer options. The zero value matches DefaultConfig.
type Config struct {
	Velocity VelocityMode
	Gap      GapPolicy
	// Now reads the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the standard per-frame, keep-history configuration.
func DefaultConfig() Config {
	return Config{
		Velocity: VelocityPerFrame,
		Gap:      KeepHistory,
		Now:      time.Now,
	}
}

// Event is the outcome of one frame.
type Event struct {
	Direction Direction `json:"direction"`
	Label     string    `json:"label"`
	Action    string    `json:"action"`
	Err       error     `json:"-"`
	At        time.Time `json:"timestamp"`
}

// Fired reports whether an action was dispatched on this frame.
func (e Event) Fired() bool {
	return e.Direction != None
}

// Recognizer runs the per-frame pipeline: buffer, classify, gate.
// A Recognizer must be fed from a single goroutine, in frame order.
type Recognizer struct {
	buffer     *MotionBuffer
	classifier *Classifier
	gate       *Gate
	actions    *ActionTable
	gap        GapPolicy
	now        func() time.Time
}

// NewRecognizer creates a Recognizer dispatching through actions.
func NewRecognizer(cfg Config, actions *ActionTable) *Recognizer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if actions == nil {
		actions = NewActionTable()
	}

	return &Recognizer{
		buffer:     NewMotionBuffer(),
		classifier: NewClassifier(cfg.Velocity),
		gate:       NewGate(actions),
		actions:    actions,
		gap:        cfg.Gap,
		now:        cfg.Now,
	}
}

// OnFrame feeds one frame's detection result. pos is nil when no hand was
// visible. It returns the event for the frame; Event.Direction is None unless
// an action fired.
func (r *Recognizer) OnFrame(ctx context.Context, pos *Position) Event {
	now := r.now()

	if pos == nil {
		if r.gap == ClearOnGap {
			r.buffer.Reset()
		}
		return Event{At: now}
	}

	r.buffer.PushAt(*pos, now)

	fired, binding, err := r.gate.fire(ctx, r.classifier.Evaluate(r.buffer), now)
	if fired == None {
		return Event{At: now}
	}

	ev := Event{
		Direction: fired,
		Label:     fired.Label(),
		Action:    binding.Description,
		Err:       err,
		At:        now,
	}

	if err != nil {
		log.Warn("swipe action failed", "direction", fired, "error", err)
	} else {
		log.Info("swipe", "direction", fired, "action", ev.Action)
	}
	return ev
}

// Now reads the recognizer's clock.
func (r *Recognizer) Now() time.Time {
	return r.now()
}

// Buffer exposes the motion history for inspection.
func (r *Recognizer) Buffer() *MotionBuffer {
	return r.buffer
}

// Actions returns the table the recognizer dispatches through.
func (r *Recognizer) Actions() *ActionTable {
	return r.actions
}

// Gate returns the recognizer's dispatch gate.
func (r *Recognizer) Gate() *Gate {
	return r.gate
}
