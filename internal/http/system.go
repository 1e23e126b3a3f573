package http

import "net/http"

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings the backing store; a failing store takes the instance
// out of rotation.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "not_ready", "store unreachable", 1503)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
