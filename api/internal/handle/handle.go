package handle

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/session"
	"fixmate/api/internal/store"
	"fixmate/api/internal/util"
)

type Handle struct {
	engs     *fix.Engines
	sessions *session.Manager

	// Cache is optional; nil disables it.
	Cache    *store.SolutionRepo
	CacheTTL time.Duration
	Model    string
}

func New(engs *fix.Engines, sessions *session.Manager) *Handle {
	return &Handle{
		engs:     engs,
		sessions: sessions,
		CacheTTL: 24 * time.Hour,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// reqTimeout reads the per-request deadline from X-Request-Timeout or
// timeoutSec, defaulting to 180s.
func reqTimeout(r *http.Request) time.Duration {
	deadline := 180 * time.Second
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}

// decodeMedia turns a base64/data-URL payload into bytes plus final MIME.
func decodeMedia(b64, explicitMIME string) ([]byte, string, bool) {
	data, hint, err := util.DecodeBase64MaybeDataURL(b64)
	if err != nil || len(data) == 0 {
		return nil, "", false
	}
	return data, util.PickMIME(explicitMIME, hint, data), true
}
