package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/types"
)

type PartRequest struct {
	SessionID string `json:"session_id,omitempty"`
	MediaB64  string `json:"media_b64"`
	MimeType  string `json:"mime_type,omitempty"`
	Hint      string `json:"hint,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

type PartResponse struct {
	SessionID string                    `json:"session_id"`
	Part      *types.PartIdentification `json:"part,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// IdentifyPart runs the part-finder flow. Its sub-state is tracked on the
// session but never touches the main diagnose flow's state.
func (h *Handle) IdentifyPart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req PartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	media, mime, ok := decodeMedia(req.MediaB64, req.MimeType)
	if !ok {
		http.Error(w, "bad media_b64", http.StatusBadRequest)
		return
	}

	sess := h.sessions.GetOrCreate(req.SessionID)
	if err := sess.BeginPart(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout(r))
	defer cancel()

	part, err := h.engs.Default().IdentifyPart(ctx, types.PartRequest{
		Media:    media,
		MimeType: mime,
		Hint:     req.Hint,
		Locale:   types.ParseLocale(req.Locale),
	})
	if err != nil {
		msg := fix.UserMessage(err)
		sess.FailPart(msg)
		writeJSON(w, http.StatusBadGateway, PartResponse{SessionID: sess.ID, Error: msg})
		return
	}
	sess.CompletePart(part)

	writeJSON(w, http.StatusOK, PartResponse{SessionID: sess.ID, Part: &part})
}

// PartState exposes the part-finder sub-state triple.
func (h *Handle) PartState(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	st := sess.Part()
	writeJSON(w, http.StatusOK, map[string]any{
		"state": st.Phase,
		"part":  st.Result,
		"error": st.Err,
	})
}
