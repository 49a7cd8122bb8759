// Package mock answers every flow with canned payloads after a fixed delay.
// It stands in for the real engine when no API key is configured, so the demo
// stays usable end to end. It is not a resilience fallback.
package mock

import (
	"context"
	"strings"
	"time"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/types"
)

const ResponseDelay = 1500 * time.Millisecond

type Engine struct {
	// Delay overrides ResponseDelay when set; tests shorten it.
	Delay time.Duration
}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "mock" }

func (e *Engine) wait(ctx context.Context) error {
	d := e.Delay
	if d == 0 {
		d = ResponseDelay
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) Diagnose(ctx context.Context, in types.DiagnoseRequest) (types.Solution, error) {
	if err := e.wait(ctx); err != nil {
		return types.Solution{}, err
	}
	// Gas-related descriptions demo the high-risk path.
	if desc := strings.ToLower(in.Description); strings.Contains(desc, "gas") {
		return types.Solution{
			Risk:          types.RiskHigh,
			SafetyWarning: "This looks like a gas appliance fault. Do not attempt any repair yourself: ventilate the room, avoid switches and open flames, and call a licensed gas engineer immediately.",
		}, nil
	}
	return types.Solution{
		Risk:      types.RiskLow,
		Diagnosis: "The faucet cartridge is worn, letting water seep past the seal and drip from the spout.",
		Tools: []string{
			"Adjustable wrench",
			"Phillips screwdriver",
			"Replacement cartridge (take the old one to the store to match)",
			"Clean cloth",
		},
		Instructions: []string{
			"SAFETY: Shut off the water supply valves under the sink before you start.",
			"Open the faucet to drain remaining water and plug the drain so small parts cannot fall in.",
			"Pry off the handle cap, remove the handle screw and lift the handle off.",
			"Unscrew the retaining nut with the wrench and pull the old cartridge straight out.",
			"Insert the new cartridge in the same orientation, tighten the retaining nut and refit the handle.",
			"Reopen the supply valves slowly and check for drips around the handle and spout.",
		},
		Difficulty:        "Easy",
		EstimatedTime:     "30-45 minutes",
		PotentialPitfalls: "Over-tightening the retaining nut can crack the faucet body; hand-tight plus a quarter turn is enough.",
	}, nil
}

func (e *Engine) IdentifyPart(ctx context.Context, in types.PartRequest) (types.PartIdentification, error) {
	if err := e.wait(ctx); err != nil {
		return types.PartIdentification{}, err
	}
	return types.PartIdentification{
		PartName:    "Single-handle faucet cartridge",
		ModelNumber: "1225",
		Description: "Replaceable valve cartridge that controls water flow and temperature in single-handle faucets. A worn cartridge is the usual cause of dripping.",
		PurchaseLocations: []string{
			"Local hardware store",
			"Plumbing supply shop",
			"Online marketplaces",
		},
		InstallationVideo: "https://www.youtube.com/watch?v=Ro9cXrB8TFA",
	}, nil
}

func (e *Engine) VerifyStep(ctx context.Context, in types.VerifyRequest) (types.VerificationResult, error) {
	if err := e.wait(ctx); err != nil {
		return types.VerificationResult{}, err
	}
	return types.VerificationResult{
		IsCorrect: true,
		Feedback:  "That looks right. The part is seated evenly with no visible gap; you are good to move on to the next step.",
	}, nil
}

func (e *Engine) StartChat(ctx context.Context, solutionContext string, loc types.Locale) (fix.ChatSession, error) {
	return &chatSession{delay: e.Delay}, nil
}

// chatSession streams a scripted reply in word-sized chunks so the streaming
// UI path is exercised without a real backend.
type chatSession struct {
	delay time.Duration
}

const scriptedReply = "Good question. For this repair the key thing is to work slowly and keep every small part in one place. If anything does not match what you see, send another photo and I will take a look."

func (s *chatSession) Send(ctx context.Context, message string, onChunk func(string)) (string, error) {
	d := s.delay
	if d == 0 {
		d = 40 * time.Millisecond
	}
	words := strings.SplitAfter(scriptedReply, " ")
	var b strings.Builder
	for _, w := range words {
		select {
		case <-time.After(d / 10):
		case <-ctx.Done():
			return b.String(), ctx.Err()
		}
		b.WriteString(w)
		if onChunk != nil {
			onChunk(w)
		}
	}
	return b.String(), nil
}

func (s *chatSession) Close() error { return nil }
