package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/brick-commander/internal/brick"
	"github.com/nerrad567/brick-commander/internal/session"
)

// transitionRequest is the body of POST /devices/{name}/transitions.
//
//	{"kind": "set_power", "power": 55}
//	{"kind": "set_direction", "direction": "backward"}
type transitionRequest struct {
	Kind      string `json:"kind"`
	Power     int    `json:"power"`
	Direction string `json:"direction"`
}

func (req transitionRequest) transition() brick.Transition {
	return brick.Transition{
		Kind:      brick.Kind(req.Kind),
		Power:     req.Power,
		Direction: brick.Direction(req.Direction),
	}
}

// handleListDevices returns every brick with its runtime state.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.controller.ListDevices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleCreateDevice adds a brick from a JSON record.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var rec brick.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	dev, err := s.controller.AddDevice(r.Context(), rec)
	if err != nil {
		writeDriverError(w, err)
		return
	}

	s.hub.Broadcast(ChannelDeviceState, dev)
	writeJSON(w, http.StatusCreated, dev)
}

// handleGetDevice returns one brick.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.controller.Device(chi.URLParam(r, "name"))
	if err != nil {
		writeDriverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes a brick.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if _, err := s.controller.RemoveDevice(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeDriverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectDevice marks a brick as the operator's current one.
func (s *Server) handleSelectDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.controller.SelectDevice(chi.URLParam(r, "name"))
	if err != nil {
		writeDriverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleGetSelection returns the selected brick.
func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	dev, err := s.controller.Selected()
	if err != nil {
		writeDriverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleTransition applies one transition and publishes its command.
//
// When the state changed but the command could not be sent the response is
// 503 or 502 and the new state is broadcast anyway.
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Kind == "" {
		writeBadRequest(w, "kind is required")
		return
	}

	name := chi.URLParam(r, "name")
	dev, err := s.controller.Apply(r.Context(), name, req.transition())
	if err == nil || errors.Is(err, session.ErrNotConnected) || errors.Is(err, session.ErrTransport) {
		s.hub.Broadcast(ChannelDeviceState, dev)
	}
	if err != nil {
		writeDriverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}
