package api

import (
	"encoding/json"
	"net/http"

	"github.com/callcoachhq/callcoach/internal/analysis"
	"github.com/callcoachhq/callcoach/internal/coach"
)

type chatRequest struct {
	Messages        []coach.Message  `json:"messages"`
	AnalysisContext *analysis.Result `json:"analysisContext"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// coachingChat runs one turn of the coaching conversation. Validation failures
// are rejected before any model dispatch.
func (s *Server) coachingChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := coach.ValidateMessages(req.Messages); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AnalysisContext == nil {
		respondError(w, http.StatusBadRequest, "analysisContext is required")
		return
	}

	reply, err := s.deps.Coach.Respond(r.Context(), req.Messages, req.AnalysisContext)
	if err != nil {
		s.logger.Error("coaching chat failed", "error", err)
		respondError(w, llmErrorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{Response: reply})
}
