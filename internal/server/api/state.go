package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/swipe"
)

// Controller exposes the running recognizer to the API.
type Controller interface {
	Enabled() bool
	SetEnabled(enabled bool) error
	LastEvent() (swipe.Event, bool)
}

// StateHandler serves recognizer state and the plugin catalogue.
type StateHandler struct {
	controller Controller
	plugins    *plugin.Manager
}

// NewStateHandler creates a StateHandler. plugins may be nil.
func NewStateHandler(c Controller, plugins *plugin.Manager) *StateHandler {
	return &StateHandler{controller: c, plugins: plugins}
}

// Register mounts the state and plugin routes on r.
func (h *StateHandler) Register(r *mux.Router) {
	r.HandleFunc("/state", h.get).Methods(http.MethodGet)
	r.HandleFunc("/state", h.put).Methods(http.MethodPut)
	r.HandleFunc("/plugins", h.listPlugins).Methods(http.MethodGet)

	AllowOnly(r, "/state", http.MethodGet, http.MethodPut)
	AllowOnly(r, "/plugins", http.MethodGet)
}

type stateResponse struct {
	Enabled bool          `json:"enabled"`
	Last    *EventMessage `json:"last"`
}

type putStateRequest struct {
	Enabled *bool `json:"enabled"`
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

func (h *StateHandler) state() stateResponse {
	resp := stateResponse{Enabled: h.controller.Enabled()}
	if ev, ok := h.controller.LastEvent(); ok {
		msg := NewEventMessage(ev)
		resp.Last = &msg
	}
	return resp
}

// get handles GET /api/state.
func (h *StateHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state())
}

// put handles PUT /api/state, pausing or resuming recognition.
func (h *StateHandler) put(w http.ResponseWriter, r *http.Request) {
	var req putStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := h.controller.SetEnabled(*req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update state")
		return
	}

	writeJSON(w, http.StatusOK, h.state())
}

// listPlugins handles GET /api/plugins.
func (h *StateHandler) listPlugins(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Plugins []pluginResponse `json:"plugins"`
	}{Plugins: []pluginResponse{}}

	if h.plugins != nil {
		for _, p := range h.plugins.List() {
			resp.Plugins = append(resp.Plugins, pluginResponse{
				Name:        p.Manifest.Name,
				Version:     p.Manifest.Version,
				Description: p.Manifest.Description,
				Actions:     p.Manifest.Actions,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
