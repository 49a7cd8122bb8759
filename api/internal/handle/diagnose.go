package handle

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/prompt"
	"fixmate/api/internal/fix/types"
	"fixmate/api/internal/session"
	"fixmate/api/internal/util"
)

type DiagnoseRequest struct {
	SessionID   string `json:"session_id,omitempty"`
	MediaB64    string `json:"media_b64"`
	MimeType    string `json:"mime_type,omitempty"`
	Description string `json:"description"`
	Locale      string `json:"locale,omitempty"`
}

type DiagnoseResponse struct {
	SessionID     string          `json:"session_id"`
	State         session.Phase   `json:"state"`
	Solution      *types.Solution `json:"solution,omitempty"`
	ChatAvailable bool            `json:"chat_available"`
	Error         string          `json:"error,omitempty"`
}

func (h *Handle) Diagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}
	media, mime, ok := decodeMedia(req.MediaB64, req.MimeType)
	if !ok {
		http.Error(w, "bad media_b64", http.StatusBadRequest)
		return
	}
	loc := types.ParseLocale(req.Locale)

	sess := h.sessions.GetOrCreate(req.SessionID)
	if err := sess.BeginDiagnose(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout(r))
	defer cancel()

	sol, err := h.fetchSolution(ctx, types.DiagnoseRequest{
		Media:       media,
		MimeType:    mime,
		Description: req.Description,
		Locale:      loc,
	})
	if err != nil {
		msg := fix.UserMessage(err)
		sess.FailDiagnose(msg)
		writeJSON(w, http.StatusBadGateway, DiagnoseResponse{
			SessionID: sess.ID,
			State:     session.PhaseError,
			Error:     msg,
		})
		return
	}

	// Risk gate: a chat session exists only for an assessed solution.
	var chat fix.ChatSession
	if sol.Assessed() {
		// The chat outlives this request, so it is not bound to r.Context.
		c, cerr := h.engs.Default().StartChat(context.Background(), prompt.ChatContext(&sol), loc)
		if cerr != nil {
			log.Printf("diagnose: chat init failed: %v", cerr)
		} else {
			chat = c
		}
	}
	sess.CompleteDiagnose(sol, chat)

	writeJSON(w, http.StatusOK, DiagnoseResponse{
		SessionID:     sess.ID,
		State:         session.PhaseSolution,
		Solution:      &sol,
		ChatAvailable: chat != nil,
	})
}

// fetchSolution consults the cache when configured, otherwise goes straight
// to the engine.
func (h *Handle) fetchSolution(ctx context.Context, in types.DiagnoseRequest) (types.Solution, error) {
	if h.Cache == nil {
		return h.engs.Default().Diagnose(ctx, in)
	}
	hash := util.SHA256Hex(append([]byte(in.Description+"\x00"), in.Media...))
	if sol, err := h.Cache.Find(ctx, hash, h.Model, in.Locale, h.CacheTTL); err == nil {
		return sol, nil
	}
	sol, err := h.engs.Default().Diagnose(ctx, in)
	if err != nil {
		return types.Solution{}, err
	}
	if err := h.Cache.Upsert(ctx, hash, h.Model, in.Locale, sol); err != nil {
		log.Printf("diagnose: cache upsert: %v", err)
	}
	return sol, nil
}
