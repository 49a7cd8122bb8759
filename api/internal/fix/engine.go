// Package fix defines the engine contract shared by the real Gemini backend
// and the keyless mock, plus the error mapping the UI surfaces.
package fix

import (
	"context"

	"fixmate/api/internal/fix/types"
)

// ChatSession — one streaming follow-up conversation bound to a delivered
// solution. Send blocks until the reply is complete; onChunk is invoked for
// each incremental piece in order (chunks are awaited sequentially from one
// stream, so ordering needs no extra coordination).
type ChatSession interface {
	Send(ctx context.Context, message string, onChunk func(string)) (string, error)
	Close() error
}

// Engine — everything the flows need from a model backend.
type Engine interface {
	Name() string
	Diagnose(ctx context.Context, in types.DiagnoseRequest) (types.Solution, error)
	IdentifyPart(ctx context.Context, in types.PartRequest) (types.PartIdentification, error)
	VerifyStep(ctx context.Context, in types.VerifyRequest) (types.VerificationResult, error)
	StartChat(ctx context.Context, solutionContext string, loc types.Locale) (ChatSession, error)
}

// Engines selects the backend. Without a configured credential the mock
// engine answers with canned demo payloads after a fixed delay.
type Engines struct {
	Gemini Engine
	Mock   Engine
}

func (e *Engines) Default() Engine {
	if e.Gemini != nil {
		return e.Gemini
	}
	return e.Mock
}
