package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/swipectl/internal/log"
	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/store"
	"github.com/ayusman/swipectl/internal/swipe"
)

// BindingHandler handles HTTP requests for direction bindings.
type BindingHandler struct {
	store   *store.Store
	plugins *plugin.Manager

	// onChange runs after every successful write so the running
	// recognizer picks up the new table.
	onChange func() error
}

// NewBindingHandler creates a BindingHandler. plugins may be nil, in which
// case plugin and action names are not checked. onChange may be nil.
func NewBindingHandler(s *store.Store, plugins *plugin.Manager, onChange func() error) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins, onChange: onChange}
}

// Register mounts the binding routes on r.
func (h *BindingHandler) Register(r *mux.Router) {
	r.HandleFunc("/bindings", h.list).Methods(http.MethodGet)
	r.HandleFunc("/bindings/{direction}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/bindings/{direction}", h.put).Methods(http.MethodPut)
	r.HandleFunc("/bindings/{direction}", h.delete).Methods(http.MethodDelete)

	AllowOnly(r, "/bindings", http.MethodGet)
	AllowOnly(r, "/bindings/{direction}", http.MethodGet, http.MethodPut, http.MethodDelete)
}

// Request and response types

type putBindingRequest struct {
	PluginName  string          `json:"plugin_name"`
	ActionName  string          `json:"action_name"`
	Params      json.RawMessage `json:"params"`
	Description string          `json:"description"`
	Enabled     *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID          string          `json:"id"`
	Direction   string          `json:"direction"`
	PluginName  string          `json:"plugin_name"`
	ActionName  string          `json:"action_name"`
	Params      json.RawMessage `json:"params"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	UpdatedAt   string          `json:"updated_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	params := b.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:          b.ID,
		Direction:   b.Direction,
		PluginName:  b.PluginName,
		ActionName:  b.ActionName,
		Params:      params,
		Description: b.Description,
		Enabled:     b.Enabled,
		UpdatedAt:   b.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// direction parses the {direction} path variable, writing a 400 on failure.
func direction(w http.ResponseWriter, r *http.Request) (swipe.Direction, bool) {
	d, err := swipe.ParseDirection(mux.Vars(r)["direction"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "direction must be one of right, left, up, down")
		return swipe.None, false
	}
	return d, true
}

// list handles GET /api/bindings.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/bindings/{direction}.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request) {
	d, ok := direction(w, r)
	if !ok {
		return
	}

	b, err := h.store.Bindings().GetByDirection(string(d))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// put handles PUT /api/bindings/{direction}, creating or replacing the binding.
func (h *BindingHandler) put(w http.ResponseWriter, r *http.Request) {
	d, ok := direction(w, r)
	if !ok {
		return
	}

	var req putBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if len(req.Params) > 0 && !json.Valid(req.Params) {
		writeError(w, http.StatusBadRequest, "params must be valid JSON")
		return
	}

	if h.plugins != nil {
		if _, err := h.plugins.Resolve(req.PluginName, req.ActionName); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	binding := &store.Binding{
		Direction:   string(d),
		PluginName:  req.PluginName,
		ActionName:  req.ActionName,
		Params:      req.Params,
		Description: req.Description,
		Enabled:     req.Enabled == nil || *req.Enabled,
	}

	if err := h.store.Bindings().Upsert(binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save binding")
		return
	}
	h.changed()

	writeJSON(w, http.StatusOK, toBindingResponse(binding))
}

// delete handles DELETE /api/bindings/{direction}.
func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request) {
	d, ok := direction(w, r)
	if !ok {
		return
	}

	if err := h.store.Bindings().Delete(string(d)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	h.changed()

	w.WriteHeader(http.StatusNoContent)
}

func (h *BindingHandler) changed() {
	if h.onChange == nil {
		return
	}
	if err := h.onChange(); err != nil {
		log.Warn("reloading bindings failed", "error", err)
	}
}
