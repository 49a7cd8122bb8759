package handle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/types"
	"fixmate/api/internal/session"
)

// ---------------- fakes -----------------

type fakeChat struct {
	chunks []string
	closed bool
}

func (c *fakeChat) Send(ctx context.Context, message string, onChunk func(string)) (string, error) {
	var b strings.Builder
	for _, ch := range c.chunks {
		b.WriteString(ch)
		if onChunk != nil {
			onChunk(ch)
		}
	}
	return b.String(), nil
}

func (c *fakeChat) Close() error {
	c.closed = true
	return nil
}

type fakeEngine struct {
	mu            sync.Mutex
	diagnoseCalls int
	partCalls     int
	verifyCalls   int

	sol     types.Solution
	solErr  error
	part    types.PartIdentification
	verdict types.VerificationResult

	chatContext string
	chat        *fakeChat
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Diagnose(ctx context.Context, in types.DiagnoseRequest) (types.Solution, error) {
	e.mu.Lock()
	e.diagnoseCalls++
	e.mu.Unlock()
	if e.solErr != nil {
		return types.Solution{}, e.solErr
	}
	return e.sol, nil
}

func (e *fakeEngine) IdentifyPart(ctx context.Context, in types.PartRequest) (types.PartIdentification, error) {
	e.mu.Lock()
	e.partCalls++
	e.mu.Unlock()
	return e.part, nil
}

func (e *fakeEngine) VerifyStep(ctx context.Context, in types.VerifyRequest) (types.VerificationResult, error) {
	e.mu.Lock()
	e.verifyCalls++
	e.mu.Unlock()
	return e.verdict, nil
}

func (e *fakeEngine) StartChat(ctx context.Context, solutionContext string, loc types.Locale) (fix.ChatSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chatContext = solutionContext
	if e.chat == nil {
		e.chat = &fakeChat{chunks: []string{"use ", "an adjustable ", "wrench"}}
	}
	return e.chat, nil
}

func (e *fakeEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.diagnoseCalls
}

// ---------------- helpers -----------------

var mediaB64 = base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01})

func assessedSolution() types.Solution {
	return types.Solution{
		Risk:         types.RiskLow,
		Diagnosis:    "worn cartridge",
		Instructions: []string{"shut off water", "swap cartridge"},
		Tools:        []string{"wrench"},
	}
}

func newHandle(eng *fakeEngine) *Handle {
	return New(&fix.Engines{Gemini: eng}, session.NewManager(time.Hour))
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func diagnose(t *testing.T, h *Handle, req DiagnoseRequest) DiagnoseResponse {
	t.Helper()
	w := postJSON(t, h.Diagnose, req)
	if w.Code != http.StatusOK {
		t.Fatalf("diagnose: status %d: %s", w.Code, w.Body.String())
	}
	var out DiagnoseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("diagnose: bad response json: %v", err)
	}
	return out
}

// ---------------- diagnose -----------------

func TestDiagnoseCallsEngineOnce(t *testing.T) {
	eng := &fakeEngine{sol: assessedSolution()}
	h := newHandle(eng)

	out := diagnose(t, h, DiagnoseRequest{
		MediaB64:    mediaB64,
		Description: "leaking sink",
	})

	if eng.calls() != 1 {
		t.Fatalf("engine called %d times, want 1", eng.calls())
	}
	if out.SessionID == "" {
		t.Fatal("missing session id")
	}
	if out.State != session.PhaseSolution {
		t.Fatalf("state %s, want solution", out.State)
	}
	if out.Solution == nil || out.Solution.Diagnosis != "worn cartridge" {
		t.Fatalf("solution not returned: %+v", out.Solution)
	}
	if !out.ChatAvailable {
		t.Fatal("assessed solution should open a chat")
	}
}

func TestDiagnoseChatContext(t *testing.T) {
	eng := &fakeEngine{sol: assessedSolution()}
	h := newHandle(eng)

	diagnose(t, h, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})

	want := "worn cartridge\nshut off water\nswap cartridge"
	if eng.chatContext != want {
		t.Fatalf("chat context %q, want %q", eng.chatContext, want)
	}
}

func TestDiagnoseHighRiskRendersWarningOnly(t *testing.T) {
	eng := &fakeEngine{sol: types.Solution{
		Risk:          types.RiskHigh,
		SafetyWarning: "Do not touch this. Call a licensed plumber.",
	}}
	h := newHandle(eng)

	out := diagnose(t, h, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})

	if out.ChatAvailable {
		t.Fatal("high risk must not start a chat session")
	}
	sol := out.Solution
	if sol == nil || sol.SafetyWarning == "" {
		t.Fatal("safety warning missing")
	}
	if len(sol.Instructions) != 0 || len(sol.Tools) != 0 || sol.Diagnosis != "" {
		t.Fatalf("high risk must carry the warning only: %+v", sol)
	}

	// And the chat endpoint refuses the session.
	w := postJSON(t, h.Chat, ChatRequest{SessionID: out.SessionID, Message: "can I try anyway?"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("chat on high-risk session: status %d, want 403", w.Code)
	}
}

func TestDiagnoseValidation(t *testing.T) {
	eng := &fakeEngine{sol: assessedSolution()}
	h := newHandle(eng)

	tests := []struct {
		name string
		req  DiagnoseRequest
	}{
		{"empty description", DiagnoseRequest{MediaB64: mediaB64}},
		{"missing media", DiagnoseRequest{Description: "leaking sink"}},
		{"garbage media", DiagnoseRequest{MediaB64: "!!", Description: "leaking sink"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.Diagnose, tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", w.Code)
			}
		})
	}
	if eng.calls() != 0 {
		t.Fatalf("engine must not be called on invalid input, got %d calls", eng.calls())
	}
}

func TestDiagnoseCredentialError(t *testing.T) {
	eng := &fakeEngine{solErr: errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key.")}
	h := newHandle(eng)

	w := postJSON(t, h.Diagnose, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", w.Code)
	}
	var out DiagnoseResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Error != fix.CredentialMessage {
		t.Fatalf("error %q, want credential message", out.Error)
	}
	if out.State != session.PhaseError {
		t.Fatalf("state %s, want error", out.State)
	}
}

func TestDiagnoseMethodGuard(t *testing.T) {
	h := newHandle(&fakeEngine{sol: assessedSolution()})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Diagnose(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", w.Code)
	}
}

// ---------------- chat -----------------

func TestChatStreamsIntoTranscript(t *testing.T) {
	eng := &fakeEngine{sol: assessedSolution()}
	h := newHandle(eng)
	out := diagnose(t, h, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})

	w := postJSON(t, h.Chat, ChatRequest{SessionID: out.SessionID, Message: "which wrench?"})
	if w.Code != http.StatusOK {
		t.Fatalf("chat: status %d: %s", w.Code, w.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad chat response: %v", err)
	}
	if resp.Reply != "use an adjustable wrench" {
		t.Fatalf("reply %q", resp.Reply)
	}
	if len(resp.Transcript) != 2 {
		t.Fatalf("transcript length %d, want 2", len(resp.Transcript))
	}
	if resp.Transcript[1].Text != resp.Reply || resp.Transcript[1].IsLoading {
		t.Fatalf("streamed message not finalized: %+v", resp.Transcript[1])
	}
}

func TestChatUnknownSession(t *testing.T) {
	h := newHandle(&fakeEngine{sol: assessedSolution()})
	w := postJSON(t, h.Chat, ChatRequest{SessionID: "nope", Message: "hi"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestChatStreamSSE(t *testing.T) {
	eng := &fakeEngine{sol: assessedSolution()}
	h := newHandle(eng)
	out := diagnose(t, h, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})

	req := httptest.NewRequest(http.MethodGet,
		"/v1/fix/chat/stream?session_id="+out.SessionID+"&message=which+wrench", nil)
	w := httptest.NewRecorder()
	h.ChatStream(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "data: use ") {
		t.Fatalf("chunk events missing: %q", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Fatalf("done event missing: %q", body)
	}
}

// ---------------- progress / reset -----------------

func TestStepProgressEndpoint(t *testing.T) {
	eng := &fakeEngine{sol: assessedSolution()}
	h := newHandle(eng)
	out := diagnose(t, h, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})

	w := postJSON(t, h.CompleteStep, StepRequest{SessionID: out.SessionID, StepIndex: 0})
	if w.Code != http.StatusOK {
		t.Fatalf("step: status %d: %s", w.Code, w.Body.String())
	}
	var resp StepResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.StepsDone != 1 {
		t.Fatalf("steps_done %d, want 1", resp.StepsDone)
	}

	// Out of range (solution has 2 instructions).
	w = postJSON(t, h.CompleteStep, StepRequest{SessionID: out.SessionID, StepIndex: 2})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range step: status %d, want 400", w.Code)
	}

	w = postJSON(t, h.CompleteStep, StepRequest{SessionID: "nope", StepIndex: 0})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown session: status %d, want 404", w.Code)
	}
}

func TestResetEndpoint(t *testing.T) {
	eng := &fakeEngine{sol: assessedSolution()}
	h := newHandle(eng)
	out := diagnose(t, h, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})

	w := postJSON(t, h.Reset, ResetRequest{SessionID: out.SessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("reset: status %d", w.Code)
	}
	if eng.chat == nil || !eng.chat.closed {
		t.Fatal("reset must close the chat session")
	}

	// Chat is gone after reset.
	w = postJSON(t, h.Chat, ChatRequest{SessionID: out.SessionID, Message: "hi"})
	if w.Code != http.StatusConflict {
		t.Fatalf("chat after reset: status %d, want 409", w.Code)
	}
}

// ---------------- part / verify -----------------

func TestIdentifyPartEndpoint(t *testing.T) {
	eng := &fakeEngine{
		sol:  assessedSolution(),
		part: types.PartIdentification{PartName: "cartridge", Description: "valve insert", PurchaseLocations: []string{"hardware store"}},
	}
	h := newHandle(eng)

	w := postJSON(t, h.IdentifyPart, PartRequest{MediaB64: mediaB64, Hint: "from the faucet"})
	if w.Code != http.StatusOK {
		t.Fatalf("part: status %d: %s", w.Code, w.Body.String())
	}
	var resp PartResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Part == nil || resp.Part.PartName != "cartridge" {
		t.Fatalf("part not returned: %+v", resp.Part)
	}
	if eng.partCalls != 1 {
		t.Fatalf("part engine calls %d, want 1", eng.partCalls)
	}
}

func TestPartFinderDoesNotTouchMainFlow(t *testing.T) {
	eng := &fakeEngine{
		sol:  assessedSolution(),
		part: types.PartIdentification{PartName: "p", Description: "d"},
	}
	h := newHandle(eng)
	out := diagnose(t, h, DiagnoseRequest{MediaB64: mediaB64, Description: "leaking sink"})

	w := postJSON(t, h.IdentifyPart, PartRequest{SessionID: out.SessionID, MediaB64: mediaB64})
	if w.Code != http.StatusOK {
		t.Fatalf("part: status %d", w.Code)
	}

	// The main solution and its chat survive the part flow.
	w = postJSON(t, h.Chat, ChatRequest{SessionID: out.SessionID, Message: "still there?"})
	if w.Code != http.StatusOK {
		t.Fatalf("chat after part flow: status %d", w.Code)
	}
}

func TestVerifyStepEndpoint(t *testing.T) {
	eng := &fakeEngine{verdict: types.VerificationResult{IsCorrect: true, Feedback: "looks right"}}
	h := newHandle(eng)

	w := postJSON(t, h.VerifyStep, VerifyRequest{MediaB64: mediaB64, Step: "seat the cartridge"})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: status %d: %s", w.Code, w.Body.String())
	}
	var out types.VerificationResult
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if !out.IsCorrect || out.Feedback != "looks right" {
		t.Fatalf("verdict %+v", out)
	}

	w = postJSON(t, h.VerifyStep, VerifyRequest{MediaB64: mediaB64})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing step: status %d, want 400", w.Code)
	}
}
