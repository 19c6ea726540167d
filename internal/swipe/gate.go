package swipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/swipectl/internal/log"
)

var (
	// ErrActionFailed wraps any failure of the external action run for a swipe.
	ErrActionFailed = errors.New("swipe action failed")
	// ErrNoAction is returned when a fired direction has no bound action.
	ErrNoAction = errors.New("no action bound")
)

// Action is an external side effect run when a swipe fires,
// e.g. switching browser tabs or scrolling.
type Action interface {
	Perform(ctx context.Context) error
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context) error

// Perform calls f(ctx).
func (f ActionFunc) Perform(ctx context.Context) error {
	return f(ctx)
}

// Binding associates a direction with an action and a human readable description.
type Binding struct {
	Direction   Direction
	Description string
	Action      Action
}

// DefaultDescriptions names the action each direction performs out of the box.
var DefaultDescriptions = map[Direction]string{
	Right: "next tab",
	Left:  "previous tab",
	Up:    "scroll up",
	Down:  "scroll down",
}

// ActionTable maps directions to actions. It may be rebound from other
// goroutines while a frame loop is dispatching.
type ActionTable struct {
	mu       sync.RWMutex
	bindings map[Direction]Binding
}

// NewActionTable creates an empty table.
func NewActionTable() *ActionTable {
	return &ActionTable{bindings: make(map[Direction]Binding)}
}

// Bind sets the action for a direction, replacing any previous binding.
func (t *ActionTable) Bind(d Direction, description string, a Action) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
	}
	if a == nil {
		return fmt.Errorf("bind %s: nil action", d)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings[d] = Binding{Direction: d, Description: description, Action: a}
	return nil
}

// Unbind removes the action for a direction.
func (t *ActionTable) Unbind(d Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bindings, d)
}

// Replace atomically swaps the whole table for the given bindings.
func (t *ActionTable) Replace(bindings []Binding) error {
	next := make(map[Direction]Binding, len(bindings))
	for _, b := range bindings {
		if !b.Direction.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidDirection, string(b.Direction))
		}
		if b.Action == nil {
			return fmt.Errorf("bind %s: nil action", b.Direction)
		}
		next[b.Direction] = b
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = next
	return nil
}

// Lookup returns the binding for a direction.
func (t *ActionTable) Lookup(d Direction) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bindings[d]
	return b, ok
}

// Bindings returns all bindings in EvaluationOrder.
func (t *ActionTable) Bindings() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Binding, 0, len(t.bindings))
	for _, d := range EvaluationOrder {
		if b, ok := t.bindings[d]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Gate turns classified directions into at most one action per cooldown window.
// Gate is owned by a single frame loop and is not safe for concurrent use.
type Gate struct {
	actions  *ActionTable
	cooldown time.Duration
	last     time.Time
	fired    bool
}

// NewGate creates a Gate dispatching through the given action table.
func NewGate(actions *ActionTable) *Gate {
	return &Gate{
		actions:  actions,
		cooldown: Cooldown,
	}
}

// LastActionTime returns when an action last fired, or false if none has.
func (g *Gate) LastActionTime() (time.Time, bool) {
	return g.last, g.fired
}

// MaybeFire dispatches d unless it is None or the cooldown is still active.
// It returns the direction actually dispatched, or None.
//
// Once the cooldown check passes the cooldown is consumed, even when the bound
// action then fails. Failed actions are not retried; the error wraps
// ErrActionFailed and is returned together with d.
func (g *Gate) MaybeFire(ctx context.Context, d Direction, now time.Time) (Direction, error) {
	fired, _, err := g.fire(ctx, d, now)
	return fired, err
}

// fire is MaybeFire that also returns the binding it ran, as looked up at
// dispatch time. The binding is zero when d had none.
func (g *Gate) fire(ctx context.Context, d Direction, now time.Time) (Direction, Binding, error) {
	if d == None {
		return None, Binding{}, nil
	}

	if g.fired && now.Sub(g.last) <= g.cooldown {
		log.Debug("swipe suppressed by cooldown",
			"direction", d,
			"since_last", now.Sub(g.last),
		)
		return None, Binding{}, nil
	}

	g.last = now
	g.fired = true

	binding, ok := g.actions.Lookup(d)
	if !ok {
		return d, Binding{}, fmt.Errorf("%w: %s: %w", ErrActionFailed, d, ErrNoAction)
	}

	if err := binding.Action.Perform(ctx); err != nil {
		return d, binding, fmt.Errorf("%w: %s (%s): %w", ErrActionFailed, d, binding.Description, err)
	}
	return d, binding, nil
}
