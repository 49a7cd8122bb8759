package mock

import (
	"context"
	"strings"
	"testing"
	"time"

	"fixmate/api/internal/fix/types"
)

func fastEngine() *Engine {
	return &Engine{Delay: time.Millisecond}
}

func TestDiagnoseReturnsValidSolution(t *testing.T) {
	e := fastEngine()
	sol, err := e.Diagnose(context.Background(), types.DiagnoseRequest{Description: "leaking sink"})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if err := sol.Validate(); err != nil {
		t.Fatalf("canned solution violates the contract: %v", err)
	}
	if !sol.Assessed() {
		t.Fatal("default canned solution should be assessed")
	}
}

func TestDiagnoseGasDemoIsHighRisk(t *testing.T) {
	e := fastEngine()
	sol, err := e.Diagnose(context.Background(), types.DiagnoseRequest{Description: "smell of gas near the stove"})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if err := sol.Validate(); err != nil {
		t.Fatalf("canned high-risk solution violates the contract: %v", err)
	}
	if !sol.HighRisk() {
		t.Fatal("gas description should demo the high-risk path")
	}
	if len(sol.Instructions) != 0 || len(sol.Tools) != 0 || sol.Diagnosis != "" {
		t.Fatal("high-risk payload must carry the warning only")
	}
}

func TestDiagnoseHonorsCancellation(t *testing.T) {
	e := &Engine{Delay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := e.Diagnose(ctx, types.DiagnoseRequest{Description: "x"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestIdentifyPartAndVerify(t *testing.T) {
	e := fastEngine()

	part, err := e.IdentifyPart(context.Background(), types.PartRequest{})
	if err != nil {
		t.Fatalf("part: %v", err)
	}
	if err := part.Validate(); err != nil {
		t.Fatalf("canned part violates the contract: %v", err)
	}

	vr, err := e.VerifyStep(context.Background(), types.VerifyRequest{Step: "seat the cartridge"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := vr.Validate(); err != nil {
		t.Fatalf("canned verification violates the contract: %v", err)
	}
}

func TestChatStreamsInOrder(t *testing.T) {
	e := fastEngine()
	cs, err := e.StartChat(context.Background(), "ctx", types.LocaleGeneric)
	if err != nil {
		t.Fatalf("start chat: %v", err)
	}
	defer cs.Close()

	var streamed strings.Builder
	reply, err := cs.Send(context.Background(), "which wrench?", func(chunk string) {
		streamed.WriteString(chunk)
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply == "" {
		t.Fatal("empty reply")
	}
	if streamed.String() != reply {
		t.Fatalf("concatenated chunks %q != reply %q", streamed.String(), reply)
	}
}
