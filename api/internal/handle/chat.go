package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/types"
	"fixmate/api/internal/session"
)

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	Reply      string              `json:"reply"`
	Transcript []types.ChatMessage `json:"transcript"`
}

// chatSession resolves the request to a live chat or writes the error.
func (h *Handle) chatSession(w http.ResponseWriter, req *ChatRequest) (*session.Session, fix.ChatSession, bool) {
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return nil, nil, false
	}
	sess, ok := h.sessions.Get(req.SessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return nil, nil, false
	}
	chat, err := sess.Chat()
	if err != nil {
		code := http.StatusConflict
		if errors.Is(err, session.ErrNoChat) {
			// High-risk solutions never get a chat.
			code = http.StatusForbidden
		}
		http.Error(w, err.Error(), code)
		return nil, nil, false
	}
	return sess, chat, true
}

func (h *Handle) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess, chat, ok := h.chatSession(w, &req)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout(r))
	defer cancel()

	sess.AppendUserMessage(req.Message)
	reply, err := chat.Send(ctx, req.Message, sess.AppendChunk)
	if err != nil {
		msg := fix.UserMessage(err)
		sess.FinishAIMessage(msg)
		http.Error(w, "chat error: "+msg, http.StatusBadGateway)
		return
	}
	sess.FinishAIMessage("")

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:      reply,
		Transcript: sess.Transcript(),
	})
}

// ChatStream is the SSE variant: each chunk is flushed as a data event, with
// a terminal done event. GET takes session_id/message from the query so
// EventSource can be used directly.
func (h *Handle) ChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	switch r.Method {
	case http.MethodGet:
		req.SessionID = r.URL.Query().Get("session_id")
		req.Message = r.URL.Query().Get("message")
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "GET or POST only", http.StatusMethodNotAllowed)
		return
	}
	sess, chat, ok := h.chatSession(w, &req)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout(r))
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sess.AppendUserMessage(req.Message)
	_, err := chat.Send(ctx, req.Message, func(chunk string) {
		sess.AppendChunk(chunk)
		writeSSE(w, "", chunk)
		flusher.Flush()
	})
	if err != nil {
		msg := fix.UserMessage(err)
		sess.FinishAIMessage(msg)
		writeSSE(w, "error", msg)
		flusher.Flush()
		return
	}
	sess.FinishAIMessage("")
	writeSSE(w, "done", "")
	flusher.Flush()
}

// writeSSE emits one event; multi-line payloads become multiple data lines
// per the SSE framing rules.
func writeSSE(w http.ResponseWriter, event, data string) {
	if event != "" {
		_, _ = w.Write([]byte("event: " + event + "\n"))
	}
	for _, line := range strings.Split(data, "\n") {
		_, _ = w.Write([]byte("data: " + line + "\n"))
	}
	_, _ = w.Write([]byte("\n"))
}
