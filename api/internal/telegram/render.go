package telegram

import (
	"fmt"
	"strings"

	"fixmate/api/internal/fix/types"
)

// renderSolution formats a solution for chat. High risk renders the safety
// warning and nothing else.
func renderSolution(sol *types.Solution, chatReady bool) string {
	if sol.HighRisk() {
		return "🛑 STOP — this is not a DIY job.\n\n" + sol.SafetyWarning
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Diagnosis: %s\n", sol.Diagnosis)
	fmt.Fprintf(&b, "\nRisk: %s", sol.Risk)
	if sol.Difficulty != "" {
		fmt.Fprintf(&b, " · Difficulty: %s", sol.Difficulty)
	}
	if sol.EstimatedTime != "" {
		fmt.Fprintf(&b, " · Time: %s", sol.EstimatedTime)
	}
	b.WriteString("\n")

	if len(sol.Tools) > 0 {
		b.WriteString("\n🧰 You'll need:\n")
		for _, t := range sol.Tools {
			b.WriteString("• " + t + "\n")
		}
	}

	b.WriteString("\n📋 Steps:\n")
	for i, step := range sol.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	if sol.PotentialPitfalls != "" {
		b.WriteString("\n⚠️ Watch out: " + sol.PotentialPitfalls + "\n")
	}
	if chatReady {
		b.WriteString("\nQuestions about any step? Just reply here.")
	}
	return b.String()
}

func renderPart(p *types.PartIdentification) string {
	var b strings.Builder
	b.WriteString("🔩 " + p.PartName)
	if p.ModelNumber != "" {
		b.WriteString(" (model " + p.ModelNumber + ")")
	}
	b.WriteString("\n\n" + p.Description + "\n")
	if len(p.PurchaseLocations) > 0 {
		b.WriteString("\n🛒 Where to buy:\n")
		for _, loc := range p.PurchaseLocations {
			b.WriteString("• " + loc + "\n")
		}
	}
	if p.InstallationVideo != "" {
		b.WriteString("\n🎬 Installation video: " + p.InstallationVideo)
	}
	return b.String()
}
