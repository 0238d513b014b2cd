package api

import "net/http"

func (s *Server) handleOracleStats(w http.ResponseWriter, r *http.Request) {
	if s.oracle == nil {
		jsonError(w, "oracle stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.oracle.Provider(),
		"model":    s.oracle.Model(),
		"stats":    s.oracle.Stats(),
	})
}
