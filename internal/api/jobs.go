package api

import "net/http"

// runExtractJob is the externally triggered periodic PDF extraction job,
// authenticated with the shared cron secret rather than a user session.
func (s *Server) runExtractJob(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Extract.ProcessBatch(r.Context())
	if err != nil {
		s.logger.Error("extraction job failed", "error", err)
		respondError(w, http.StatusInternalServerError, "extraction job failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"processed": len(results),
		"results":   results,
	})
}
