package types

import (
	"errors"
	"strings"
)

// Risk — categorical safety tag returned by the model. High risk gates the
// whole repair plan behind a safety warning.
type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Locale biases terminology in the generated prompts (trade terms, store
// names). Fixed enumeration; anything unknown falls back to generic.
type Locale string

const (
	LocaleGeneric Locale = "generic"
	LocaleUS      Locale = "us"
	LocaleUK      Locale = "uk"
	LocaleAU      Locale = "au"
)

func ParseLocale(s string) Locale {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case LocaleUS:
		return LocaleUS
	case LocaleUK:
		return LocaleUK
	case LocaleAU:
		return LocaleAU
	}
	return LocaleGeneric
}

// Solution — diagnosis plus repair plan (SOLUTION.response.v1).
//
// Conditional contract: High ⇒ only risk+safetyWarning; Low/Medium ⇒ the full
// field set. The schema marks only risk as required, so we check the rest here.
type Solution struct {
	Risk              Risk     `json:"risk"`
	SafetyWarning     string   `json:"safetyWarning,omitempty"`
	Diagnosis         string   `json:"diagnosis,omitempty"`
	Tools             []string `json:"tools,omitempty"`
	Instructions      []string `json:"instructions,omitempty"`
	Difficulty        string   `json:"difficulty,omitempty"`
	EstimatedTime     string   `json:"estimatedTime,omitempty"`
	PotentialPitfalls string   `json:"potentialPitfalls,omitempty"`
}

var (
	ErrBadRisk           = errors.New("solution: unknown risk level")
	ErrNoSafetyWarning   = errors.New("solution: high risk without safety warning")
	ErrIncompleteAnswer  = errors.New("solution: assessed risk without diagnosis or instructions")
	ErrHighRiskWithSteps = errors.New("solution: high risk must not carry a repair plan")
)

// Validate enforces the risk-gated field split the model is only asked for in
// prose.
func (s *Solution) Validate() error {
	if !s.Risk.Valid() {
		return ErrBadRisk
	}
	if s.Risk == RiskHigh {
		if strings.TrimSpace(s.SafetyWarning) == "" {
			return ErrNoSafetyWarning
		}
		if s.Diagnosis != "" || len(s.Tools) > 0 || len(s.Instructions) > 0 {
			return ErrHighRiskWithSteps
		}
		return nil
	}
	if strings.TrimSpace(s.Diagnosis) == "" || len(s.Instructions) == 0 {
		return ErrIncompleteAnswer
	}
	return nil
}

// HighRisk reports whether only the safety warning may be rendered.
func (s *Solution) HighRisk() bool { return s.Risk == RiskHigh }

// Assessed reports whether the full repair plan is present and renderable.
func (s *Solution) Assessed() bool {
	return s.Risk != RiskHigh && s.Diagnosis != "" && len(s.Instructions) > 0
}

// VerificationResult — verdict for a "did I do this step right?" photo check
// (VERIFY.response.v1).
type VerificationResult struct {
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

func (v *VerificationResult) Validate() error {
	if strings.TrimSpace(v.Feedback) == "" {
		return errors.New("verification: empty feedback")
	}
	return nil
}
