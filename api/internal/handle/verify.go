package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/types"
)

type VerifyRequest struct {
	MediaB64 string `json:"media_b64"`
	MimeType string `json:"mime_type,omitempty"`
	Step     string `json:"step"`
	Locale   string `json:"locale,omitempty"`
}

// VerifyStep checks a photo of an attempted repair step against the
// instruction text. Stateless: no session required.
func (h *Handle) VerifyStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Step) == "" {
		http.Error(w, "step is required", http.StatusBadRequest)
		return
	}
	media, mime, ok := decodeMedia(req.MediaB64, req.MimeType)
	if !ok {
		http.Error(w, "bad media_b64", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout(r))
	defer cancel()

	out, err := h.engs.Default().VerifyStep(ctx, types.VerifyRequest{
		Media:    media,
		MimeType: mime,
		Step:     req.Step,
		Locale:   types.ParseLocale(req.Locale),
	})
	if err != nil {
		http.Error(w, "verify error: "+fix.UserMessage(err), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
