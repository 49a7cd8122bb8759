// Package session holds the per-user view state of the repair flows: the
// main idle/loading/error/solution machine, the independent part-finder
// sub-flow, step progress and the chat transcript. Everything here is
// transient; Reset or expiry drops it without a trace.
package session

import (
	"errors"
	"sync"
	"time"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/types"
)

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseError    Phase = "error"
	PhaseSolution Phase = "solution"
)

// PartPhase — the part finder keeps its own triple, unrelated to the main
// flow's state.
type PartPhase string

const (
	PartIdle    PartPhase = "idle"
	PartLoading PartPhase = "loading"
	PartError   PartPhase = "error"
	PartResult  PartPhase = "result"
)

var (
	ErrBusy       = errors.New("session: a request is already in flight")
	ErrNoSolution = errors.New("session: no solution yet")
	ErrNoChat     = errors.New("session: chat is not available for this solution")
	ErrBadStep    = errors.New("session: step index out of range")
)

type PartState struct {
	Phase  PartPhase
	Result *types.PartIdentification
	Err    string
}

type Session struct {
	ID string

	mu         sync.Mutex
	phase      Phase
	solution   *types.Solution
	errMsg     string
	chat       fix.ChatSession
	transcript []types.ChatMessage
	stepsDone  int
	part       PartState
	lastSeen   time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:       id,
		phase:    PhaseIdle,
		part:     PartState{Phase: PartIdle},
		lastSeen: time.Now(),
	}
}

func (s *Session) touch() { s.lastSeen = time.Now() }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Solution returns the current solution, nil outside the solution phase.
func (s *Session) Solution() *types.Solution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solution
}

func (s *Session) ErrMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// --------------------------- main flow ---------------------------

// BeginDiagnose moves idle/error/solution → loading. Overlapping submits are
// rejected rather than coordinated; one call per user action.
func (s *Session) BeginDiagnose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseLoading {
		return ErrBusy
	}
	s.phase = PhaseLoading
	s.errMsg = ""
	s.touch()
	return nil
}

// CompleteDiagnose stores the solution and the chat session opened for it
// (nil when the risk gate forbids one). Progress and transcript start fresh.
func (s *Session) CompleteDiagnose(sol types.Solution, chat fix.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat != nil {
		_ = s.chat.Close()
	}
	s.phase = PhaseSolution
	s.solution = &sol
	s.errMsg = ""
	s.chat = chat
	s.transcript = nil
	s.stepsDone = 0
	s.touch()
}

func (s *Session) FailDiagnose(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseError
	s.errMsg = msg
	s.touch()
}

// --------------------------- step progress ---------------------------

// CompleteStep marks instruction idx done. Only indexes below the
// instruction count advance it, and it never moves backwards within one
// solution's lifetime.
func (s *Session) CompleteStep(idx int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.solution == nil || s.phase != PhaseSolution {
		return s.stepsDone, ErrNoSolution
	}
	if idx < 0 || idx >= len(s.solution.Instructions) {
		return s.stepsDone, ErrBadStep
	}
	if idx+1 > s.stepsDone {
		s.stepsDone = idx + 1
	}
	s.touch()
	return s.stepsDone, nil
}

func (s *Session) StepsDone() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepsDone
}

// --------------------------- chat ---------------------------

// Chat returns the live chat session; ErrNoChat when the solution was
// high-risk or no solution exists.
func (s *Session) Chat() (fix.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseSolution {
		return nil, ErrNoSolution
	}
	if s.chat == nil {
		return nil, ErrNoChat
	}
	return s.chat, nil
}

// AppendUserMessage records the outgoing message plus a loading placeholder
// the streamed reply is appended into.
func (s *Session) AppendUserMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript,
		types.ChatMessage{Sender: types.SenderUser, Text: text},
		types.ChatMessage{Sender: types.SenderAI, IsLoading: true},
	)
	s.touch()
}

// AppendChunk grows the last AI message in place.
func (s *Session) AppendChunk(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.transcript); n > 0 && s.transcript[n-1].Sender == types.SenderAI {
		s.transcript[n-1].Text += chunk
	}
}

// FinishAIMessage clears the loading flag; on failure the placeholder is
// replaced with the error text.
func (s *Session) FinishAIMessage(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.transcript)
	if n == 0 || s.transcript[n-1].Sender != types.SenderAI {
		return
	}
	s.transcript[n-1].IsLoading = false
	if errMsg != "" {
		s.transcript[n-1].Text = errMsg
	}
}

func (s *Session) Transcript() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// --------------------------- part finder ---------------------------

func (s *Session) BeginPart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.part.Phase == PartLoading {
		return ErrBusy
	}
	s.part = PartState{Phase: PartLoading}
	s.touch()
	return nil
}

func (s *Session) CompletePart(res types.PartIdentification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.part = PartState{Phase: PartResult, Result: &res}
	s.touch()
}

func (s *Session) FailPart(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.part = PartState{Phase: PartError, Err: msg}
	s.touch()
}

func (s *Session) Part() PartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.part
}

// --------------------------- reset ---------------------------

// Reset returns every piece of state to its initial value and closes the
// chat session if one is open.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat != nil {
		_ = s.chat.Close()
		s.chat = nil
	}
	s.phase = PhaseIdle
	s.solution = nil
	s.errMsg = ""
	s.transcript = nil
	s.stepsDone = 0
	s.part = PartState{Phase: PartIdle}
	s.touch()
}
