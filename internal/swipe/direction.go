// Package swipe turns a stream of fingertip positions into debounced
// directional swipe events.
//
// A Recognizer owns a fixed-window MotionBuffer, a Classifier that decides
// whether the window holds a confident single-direction swipe, and a Gate that
// enforces a cooldown before running the action bound to that direction.
package swipe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/geo/r2"
)

// Recognition thresholds. These are fixed; only the action table is rebindable.
const (
	// HistoryLen is the number of most recent positions kept in the window.
	HistoryLen = 14
	// MinDistance is the minimum normalized oldest-to-newest displacement.
	MinDistance = 0.11
	// MinVelocity is the minimum average displacement per frame.
	MinVelocity = 0.011
	// DirectionRequired is the fraction of frame pairs that must agree.
	DirectionRequired = 0.78
	// Cooldown is the minimum time between two dispatched actions.
	Cooldown = 450 * time.Millisecond
	// NominalFPS converts MinVelocity to units per second in VelocityPerSecond
	// mode, assuming the window was captured at this rate.
	NominalFPS = 15
)

// ErrInvalidDirection is returned when a string does not name a swipe direction.
var ErrInvalidDirection = errors.New("invalid direction")

// Direction is a cardinal swipe direction. The zero value None means no gesture.
type Direction string

const (
	None  Direction = ""
	Right Direction = "right"
	Left  Direction = "left"
	Up    Direction = "up"
	Down  Direction = "down"
)

// EvaluationOrder is the order in which directions are checked against the
// dominance threshold. The first qualifying direction wins.
var EvaluationOrder = [...]Direction{Right, Left, Up, Down}

// ParseDirection converts a user supplied name into a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return None, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// Valid reports whether d is one of the four swipe directions.
func (d Direction) Valid() bool {
	switch d {
	case Right, Left, Up, Down:
		return true
	}
	return false
}

// Label returns the on-screen label for d, e.g. "RIGHT".
func (d Direction) Label() string {
	return strings.ToUpper(string(d))
}

func (d Direction) String() string {
	if d == None {
		return "none"
	}
	return string(d)
}

// Position is a fingertip location normalized to [0,1] of frame width and height.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec returns p as a planar vector.
func (p Position) Vec() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// StepDirection classifies the movement from p1 to p2 by its dominant axis.
// There is no magnitude gate: even sub-pixel jitter produces a vote.
func StepDirection(p1, p2 Position) Direction {
	d := p2.Vec().Sub(p1.Vec())

	if abs(d.X) > abs(d.Y) {
		if d.X > 0 {
			return Right
		}
		return Left
	}
	if d.Y > 0 {
		return Down
	}
	return Up
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
