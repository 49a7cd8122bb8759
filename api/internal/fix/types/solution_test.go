package types

import (
	"errors"
	"testing"
)

func TestSolutionValidate(t *testing.T) {
	tests := []struct {
		name    string
		sol     Solution
		wantErr error
	}{
		{
			name: "high risk with warning only",
			sol: Solution{
				Risk:          RiskHigh,
				SafetyWarning: "Call a licensed gas engineer.",
			},
		},
		{
			name:    "high risk without warning",
			sol:     Solution{Risk: RiskHigh},
			wantErr: ErrNoSafetyWarning,
		},
		{
			name: "high risk carrying a plan",
			sol: Solution{
				Risk:          RiskHigh,
				SafetyWarning: "Stop.",
				Instructions:  []string{"step one"},
			},
			wantErr: ErrHighRiskWithSteps,
		},
		{
			name: "low risk full set",
			sol: Solution{
				Risk:         RiskLow,
				Diagnosis:    "worn cartridge",
				Instructions: []string{"shut off water", "swap cartridge"},
			},
		},
		{
			name: "medium risk missing instructions",
			sol: Solution{
				Risk:      RiskMedium,
				Diagnosis: "loose trap",
			},
			wantErr: ErrIncompleteAnswer,
		},
		{
			name: "low risk missing diagnosis",
			sol: Solution{
				Risk:         RiskLow,
				Instructions: []string{"tighten"},
			},
			wantErr: ErrIncompleteAnswer,
		},
		{
			name:    "unknown risk",
			sol:     Solution{Risk: "Critical"},
			wantErr: ErrBadRisk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sol.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSolutionAccessors(t *testing.T) {
	high := Solution{Risk: RiskHigh, SafetyWarning: "stop"}
	if !high.HighRisk() || high.Assessed() {
		t.Fatal("high-risk solution must be HighRisk and not Assessed")
	}

	low := Solution{Risk: RiskLow, Diagnosis: "d", Instructions: []string{"s"}}
	if low.HighRisk() || !low.Assessed() {
		t.Fatal("low-risk solution must be Assessed and not HighRisk")
	}
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in   string
		want Locale
	}{
		{"us", LocaleUS},
		{"UK", LocaleUK},
		{" au ", LocaleAU},
		{"generic", LocaleGeneric},
		{"", LocaleGeneric},
		{"fr", LocaleGeneric},
	}
	for _, tt := range tests {
		if got := ParseLocale(tt.in); got != tt.want {
			t.Errorf("ParseLocale(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
