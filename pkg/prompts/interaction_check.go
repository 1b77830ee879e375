package prompts

import (
	"fmt"
	"strings"
)

// CandidateMedication identifies one medication to check against the subject.
type CandidateMedication struct {
	ID   int64
	Name string
}

// BuildInteractionCheckSystemMessage returns the fixed system message for the
// interaction classifier. It pins the response contract: JSON only, an
// `interactions` array, the closed severity vocabulary, and a bounded
// description.
func BuildInteractionCheckSystemMessage() string {
	return `You are a clinical pharmacology assistant that assesses pairwise drug-drug interactions.

Respond with valid JSON only, no prose and no markdown. The response must be a single object of the form:

{
  "interactions": [
    {
      "medication_id": <integer, the candidate medication id exactly as given>,
      "medication_name": <string, the candidate medication name exactly as given>,
      "has_interaction": <boolean>,
      "severity": <"severe" | "moderate" | "minor" | "none">,
      "description": <string, at most 200 characters>
    }
  ]
}

Rules:
- Include exactly one element per candidate medication, in the order given.
- severity must be one of: severe, moderate, minor, none. Use "none" with has_interaction=false when no clinically relevant interaction exists.
- description must be clinically specific (mechanism or consequence), at most 200 characters. When there is no interaction, use "No clinically relevant interaction known."
- Never invent medication ids or names.`
}

// BuildInteractionCheckPrompt creates the per-call user message listing the
// subject medication and the enumerated candidates. Pure function of its
// inputs; identical input yields an identical prompt.
func BuildInteractionCheckPrompt(subjectName string, candidates []CandidateMedication) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Assess drug-drug interactions between the subject medication %q and each candidate medication below.\n\n", subjectName))

	prompt.WriteString("Candidate medications:\n")
	for i, c := range candidates {
		prompt.WriteString(fmt.Sprintf("%d. id=%d name=%q\n", i+1, c.ID, c.Name))
	}

	prompt.WriteString("\nReturn one interactions element per candidate, following the response contract exactly.\n")

	return prompt.String()
}
