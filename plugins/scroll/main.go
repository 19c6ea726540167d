// Package main provides a scroll plugin for macOS.
// It posts pixel scroll-wheel events through the CoreGraphics bridge of
// JavaScript for Automation.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Direction string          `json:"direction"`
	Config    json.RawMessage `json:"config"`
	Params    json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ScrollParams defines parameters for scroll actions.
type ScrollParams struct {
	// Amount is the scroll distance in pixels. Must be positive.
	Amount int `json:"amount"`
}

const defaultAmount = 1100

// axis selects the scroll-wheel event field a handler drives.
type axis int

const (
	vertical axis = iota
	horizontal
)

type scrollAction struct {
	axis axis
	sign int
}

// scrollActions maps action names to their axis and sign. Positive
// vertical deltas scroll content up.
var scrollActions = map[string]scrollAction{
	"scroll-up":    {vertical, 1},
	"scroll-down":  {vertical, -1},
	"scroll-left":  {horizontal, 1},
	"scroll-right": {horizontal, -1},
}

var errInvalidAmount = errors.New("amount must be positive")

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	action, ok := scrollActions[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	amount, err := parseAmount(req.Params)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	if err := runJXA(buildScrollScript(action, amount)); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

// parseAmount reads the amount param, defaulting to defaultAmount when
// params are empty or omit it.
func parseAmount(params json.RawMessage) (int, error) {
	p := ScrollParams{Amount: defaultAmount}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return 0, fmt.Errorf("failed to parse params: %w", err)
		}
	}
	if p.Amount <= 0 {
		return 0, errInvalidAmount
	}
	return p.Amount, nil
}

// buildScrollScript generates a JXA script posting one pixel scroll event.
func buildScrollScript(a scrollAction, amount int) string {
	dy, dx := 0, 0
	if a.axis == vertical {
		dy = a.sign * amount
	} else {
		dx = a.sign * amount
	}
	return fmt.Sprintf(`ObjC.import("CoreGraphics");
var e = $.CGEventCreateScrollWheelEvent(null, $.kCGScrollEventUnitPixel, 2, %d, %d);
$.CGEventPost($.kCGHIDEventTap, e);`, dy, dx)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runJXA executes a JavaScript for Automation script and returns any error.
func runJXA(script string) error {
	cmd := exec.Command("osascript", "-l", "JavaScript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
