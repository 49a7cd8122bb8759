// Package prompt holds the system instructions and response-schema constants
// for every model call. Prompts are compile-time constants; the only runtime
// inputs are the locale and, for diagnosis, the media kind.
package prompt

import (
	"fmt"
	"strings"

	"fixmate/api/internal/fix/types"
)

// localeGuidance biases terminology only. It never changes the contract.
func localeGuidance(loc types.Locale) string {
	switch loc {
	case types.LocaleUS:
		return "Use US terminology and brands (e.g. \"faucet\", \"drywall\", \"outlet\"; stores like Home Depot, Lowe's, Ace Hardware)."
	case types.LocaleUK:
		return "Use UK terminology and brands (e.g. \"tap\", \"plasterboard\", \"socket\"; stores like B&Q, Screwfix, Wickes)."
	case types.LocaleAU:
		return "Use Australian terminology and brands (e.g. \"tap\", \"plasterboard\", \"power point\"; stores like Bunnings, Mitre 10)."
	}
	return "Use globally understood terminology and suggest generic store types (hardware store, plumbing supplier) rather than regional chains."
}

const diagnoseRules = `You are an expert home-repair assistant. The user sends one attachment showing
a household problem and a short description of it.

First assess the safety risk of a layperson attempting this repair:
- "High": gas, mains electrical work beyond resetting a breaker, structural
  damage, sewage, or anything requiring a licensed professional. Return ONLY
  risk and safetyWarning. The warning must tell the user to stop and which
  professional to call. Do not include a diagnosis or any repair steps.
- "Low" or "Medium": return the full assessment — diagnosis, tools,
  numbered instructions, difficulty, estimatedTime, potentialPitfalls.
  If a step still carries a hazard, make it the first instruction prefixed
  with "SAFETY: ".

Instructions must be ordered, self-contained steps a beginner can follow.
Output ONLY JSON conforming to the schema below. Any text outside JSON is an
error.`

const photoClause = `The attachment is a photo. Base the diagnosis on what is visible in the single
frame plus the description.`

const videoClause = `The attachment is a short video. Watch for motion, drips, flicker and sound
cues the description may not mention, and fold them into the diagnosis.`

// DiagnoseSystem selects the photo or video template on the MIME type and
// interpolates the locale guidance.
func DiagnoseSystem(mime string, loc types.Locale) string {
	clause := photoClause
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "video/") {
		clause = videoClause
	}
	var b strings.Builder
	b.WriteString(diagnoseRules)
	b.WriteString("\n\n")
	b.WriteString(clause)
	b.WriteString("\n")
	b.WriteString(localeGuidance(loc))
	b.WriteString("\n\nsolution.schema.json:\n")
	b.WriteString(SolutionSchema)
	return b.String()
}

// DiagnoseUser wraps the free-text description for the user turn.
func DiagnoseUser(description string) string {
	return fmt.Sprintf("Problem description: %s\n\nAnswer strictly with JSON per solution.schema.json. No commentary.",
		strings.TrimSpace(description))
}

// PartSystem — instruction for the part-finder flow.
func PartSystem(loc types.Locale) string {
	var b strings.Builder
	b.WriteString(`You are a hardware part identifier. The user sends a close-up photo of a part
from a household appliance or fixture. Identify it as precisely as possible:
common part name, model/series number if legible, what it does, and where a
consumer can buy a replacement. If a well-known installation video exists for
this exact part type, include its URL; otherwise omit installationVideo.
Output ONLY JSON conforming to the schema below.`)
	b.WriteString("\n")
	b.WriteString(localeGuidance(loc))
	b.WriteString("\n\npart.schema.json:\n")
	b.WriteString(PartSchema)
	return b.String()
}

// PartUser wraps the optional user hint.
func PartUser(hint string) string {
	if h := strings.TrimSpace(hint); h != "" {
		return "User hint: " + h + "\n\nAnswer strictly with JSON per part.schema.json."
	}
	return "Answer strictly with JSON per part.schema.json."
}

// VerifySystem — instruction for the step-verification flow.
func VerifySystem(loc types.Locale) string {
	var b strings.Builder
	b.WriteString(`You are checking a repair step. The user was given one instruction and sends a
photo of their attempt. Judge whether the photo shows the step done correctly.
Be encouraging but concrete: if wrong, say what to redo; if right, say what to
watch for in the next step. Output ONLY JSON conforming to the schema below.`)
	b.WriteString("\n")
	b.WriteString(localeGuidance(loc))
	b.WriteString("\n\nverify.schema.json:\n")
	b.WriteString(VerifySchema)
	return b.String()
}

// VerifyUser wraps the step under check.
func VerifyUser(step string) string {
	return fmt.Sprintf("The instruction was: %q\n\nAnswer strictly with JSON per verify.schema.json.",
		strings.TrimSpace(step))
}

// ChatContext builds the grounding preamble for a follow-up chat session:
// the diagnosis plus every instruction, joined by newlines.
func ChatContext(sol *types.Solution) string {
	lines := make([]string, 0, len(sol.Instructions)+1)
	lines = append(lines, sol.Diagnosis)
	lines = append(lines, sol.Instructions...)
	return strings.Join(lines, "\n")
}

// ChatSystem — instruction for the follow-up chat about a delivered solution.
func ChatSystem(loc types.Locale) string {
	return `You are the same home-repair assistant continuing a conversation about the
repair plan below. Answer follow-up questions briefly and practically. Stay on
the topic of this repair; if asked about an unrelated or dangerous job, advise
consulting a professional.
` + localeGuidance(loc)
}
