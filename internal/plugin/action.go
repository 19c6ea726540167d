package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrActionUnsuccessful is returned when a plugin runs but reports failure.
var ErrActionUnsuccessful = errors.New("plugin reported failure")

// Action runs one plugin action with fixed parameters. It satisfies
// swipe.Action so it can be bound directly into an action table.
type Action struct {
	executor *Executor
	plugin   *Plugin
	req      Request
}

// NewAction binds a plugin action for direction. Params may be nil.
func NewAction(executor *Executor, plugin *Plugin, action, direction string, params json.RawMessage) *Action {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	return &Action{
		executor: executor,
		plugin:   plugin,
		req: Request{
			Action:    action,
			Direction: direction,
			Config:    json.RawMessage("{}"),
			Params:    params,
		},
	}
}

// Perform runs the plugin and converts an unsuccessful response into an error.
func (a *Action) Perform(ctx context.Context) error {
	req := a.req
	resp, err := a.executor.Execute(ctx, a.plugin, &req)
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Error == "" {
			return ErrActionUnsuccessful
		}
		return fmt.Errorf("%w: %s", ErrActionUnsuccessful, resp.Error)
	}
	return nil
}

// String names the action as plugin/action.
func (a *Action) String() string {
	return a.plugin.Manifest.Name + "/" + a.req.Action
}
