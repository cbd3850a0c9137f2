package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"optix/services/ui"
)

type uiState interface {
	OpenTrailer(key string)
	CloseTrailer()
	ToggleSidebar() bool
	SetSidebarOpen(open bool)
	Snapshot() ui.Snapshot
}

var _ uiState = (*ui.State)(nil)

type UIHandler struct {
	State uiState
}

func NewUIHandler(state uiState) *UIHandler {
	return &UIHandler{State: state}
}

func (h *UIHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.State.Snapshot())
}

func (h *UIHandler) OpenTrailer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Key) == "" {
		http.Error(w, "trailer key is required", http.StatusBadRequest)
		return
	}

	h.State.OpenTrailer(body.Key)
	writeJSON(w, http.StatusOK, h.State.Snapshot())
}

func (h *UIHandler) CloseTrailer(w http.ResponseWriter, r *http.Request) {
	h.State.CloseTrailer()
	writeJSON(w, http.StatusOK, h.State.Snapshot())
}

// Sidebar toggles the sidebar, or sets it when the body carries {"open": bool}.
func (h *UIHandler) Sidebar(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Open *bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if body.Open != nil {
		h.State.SetSidebarOpen(*body.Open)
	} else {
		h.State.ToggleSidebar()
	}
	writeJSON(w, http.StatusOK, h.State.Snapshot())
}
