package api

import (
	"context"
	"net/http"
	"time"
)

// sessionWaitTimeout bounds how long open and reconnect requests wait for
// the broker.
const sessionWaitTimeout = 15 * time.Second

// handleGetSession returns the session state.
func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"state": s.controller.Gateway().Session})
}

// handleOpenSession connects to the broker and waits for the result.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	s.awaitSession(w, r, s.controller.OpenSession)
}

// handleReconnectSession drops and re-establishes the broker connection.
func (s *Server) handleReconnectSession(w http.ResponseWriter, r *http.Request) {
	s.awaitSession(w, r, s.controller.ReconnectSession)
}

// handleCloseSession disconnects from the broker.
func (s *Server) handleCloseSession(w http.ResponseWriter, _ *http.Request) {
	s.controller.CloseSession()
	writeJSON(w, http.StatusOK, map[string]any{"state": s.controller.Gateway().Session})
}

func (s *Server) awaitSession(w http.ResponseWriter, r *http.Request, start func(context.Context) <-chan error) {
	// The connect outlives the request; only the wait is bounded by it.
	result := start(context.WithoutCancel(r.Context()))

	timer := time.NewTimer(sessionWaitTimeout)
	defer timer.Stop()

	select {
	case err := <-result:
		if err != nil {
			writeDriverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": s.controller.Gateway().Session})
	case <-timer.C:
		writeJSON(w, http.StatusAccepted, map[string]any{"state": s.controller.Gateway().Session})
	case <-r.Context().Done():
	}
}

// handleGetGateway returns the last gateway status and availability.
func (s *Server) handleGetGateway(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Gateway())
}

// handleGatewayStatusRequest asks the gateway to report its status.
func (s *Server) handleGatewayStatusRequest(w http.ResponseWriter, _ *http.Request) {
	if err := s.controller.RequestGatewayStatus(); err != nil {
		writeDriverError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"requested": true})
}
