package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"fixmate/api/internal/session"
)

type StepRequest struct {
	SessionID string `json:"session_id"`
	StepIndex int    `json:"step_index"`
}

type StepResponse struct {
	StepsDone int `json:"steps_done"`
}

// CompleteStep advances the step-progress counter. Out-of-range indexes are
// rejected; the counter never moves backwards.
func (h *Handle) CompleteStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess, ok := h.sessions.Get(req.SessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	done, err := sess.CompleteStep(req.StepIndex)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, session.ErrNoSolution) {
			code = http.StatusConflict
		}
		http.Error(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, StepResponse{StepsDone: done})
}

type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// Reset returns the whole session to its initial state.
func (h *Handle) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if sess, ok := h.sessions.Get(req.SessionID); ok {
		sess.Reset()
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(session.PhaseIdle)})
}
