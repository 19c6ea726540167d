package swipe

import (
	"fmt"
	"strings"
)

// VelocityMode selects how the classifier measures swipe speed.
type VelocityMode int

const (
	// VelocityPerFrame divides the window displacement by HistoryLen.
	// Recognition therefore depends on the upstream frame rate.
	VelocityPerFrame VelocityMode = iota
	// VelocityPerSecond divides the window displacement by the elapsed capture
	// time and compares against MinVelocity*NominalFPS.
	VelocityPerSecond
)

// ParseVelocityMode accepts "frame" or "time".
func ParseVelocityMode(s string) (VelocityMode, error) {
	switch strings.ToLower(s) {
	case "", "frame":
		return VelocityPerFrame, nil
	case "time":
		return VelocityPerSecond, nil
	}
	return VelocityPerFrame, fmt.Errorf("unknown velocity mode %q (want frame or time)", s)
}

func (m VelocityMode) String() string {
	if m == VelocityPerSecond {
		return "time"
	}
	return "frame"
}

// Classifier decides whether a MotionBuffer currently holds a confident
// single-direction swipe. It is stateless apart from its mode.
type Classifier struct {
	mode VelocityMode
}

// NewClassifier creates a Classifier using the given velocity mode.
func NewClassifier(mode VelocityMode) *Classifier {
	return &Classifier{mode: mode}
}

// Mode returns the classifier's velocity mode.
func (c *Classifier) Mode() VelocityMode {
	return c.mode
}

// Evaluate returns the swipe direction held by b, or None.
//
// Algorithm:
// 1. Refuse to classify until the buffer is full
// 2. Measure the oldest-to-newest displacement and its average speed
// 3. Reject movement below MinDistance or MinVelocity
// 4. Let every consecutive pair vote for its dominant axis direction
// 5. Return the first direction in EvaluationOrder whose share of the votes
//    reaches DirectionRequired
func (c *Classifier) Evaluate(b *MotionBuffer) Direction {
	if !b.IsFull() {
		return None
	}

	oldest, _ := b.Oldest()
	newest, _ := b.Newest()
	dist := newest.Vec().Sub(oldest.Vec()).Norm()

	if !c.fastEnough(b, dist) || dist < MinDistance {
		return None
	}

	var t tally
	for _, p := range b.Pairs() {
		t.add(StepDirection(p.Prev, p.Next))
	}
	return t.dominant(DirectionRequired)
}

// perSecondVelocity restates MinVelocity per second at NominalFPS. The
// per-frame rule divides by all HistoryLen positions while the capture times
// span HistoryLen-1 intervals; scaling by that ratio makes both modes agree on
// a window captured at exactly NominalFPS.
const perSecondVelocity = MinVelocity * NominalFPS * HistoryLen / (HistoryLen - 1)

func (c *Classifier) fastEnough(b *MotionBuffer, dist float64) bool {
	if c.mode == VelocityPerSecond {
		start, end := b.Span()
		if elapsed := end.Sub(start).Seconds(); elapsed > 0 {
			return dist/elapsed >= perSecondVelocity
		}
		// No capture times recorded; fall back to per-frame speed.
	}
	return dist/float64(b.Cap()) >= MinVelocity
}

// tally counts direction votes for a single evaluation. It is rebuilt from
// scratch every time Evaluate runs.
type tally struct {
	counts map[Direction]int
	total  int
}

func (t *tally) add(d Direction) {
	if t.counts == nil {
		t.counts = make(map[Direction]int, len(EvaluationOrder))
	}
	t.counts[d]++
	t.total++
}

func (t *tally) fraction(d Direction) float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.counts[d]) / float64(t.total)
}

// dominant returns the first direction in EvaluationOrder whose vote share is
// at least required. Ties are broken by that order, not by count.
func (t *tally) dominant(required float64) Direction {
	for _, d := range EvaluationOrder {
		if t.fraction(d) >= required {
			return d
		}
	}
	return None
}
