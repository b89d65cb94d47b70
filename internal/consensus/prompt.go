// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package consensus

import (
	"fmt"
	"strings"

	"github.com/wayfarer-travel/matchcore/internal/match"
)

// systemPrompt is the anti-hallucination contract. The service judges
// using only the structured facts supplied and must answer in the
// fixed two-line format parseVerdict expects.
const systemPrompt = `You are a travel-companion compatibility reviewer.
Judge the proposed match using ONLY the facts listed in the message.
Never invent shared traits, history or preferences that are not listed.
Respond with exactly two lines and nothing else:
VERDICT: one of PERFECT, GREAT, GOOD, POOR
REASON: one sentence justifying the verdict from the listed facts`

// buildPrompt renders the structured facts for one match. Only fields
// the algorithmic pipeline already used are forwarded; the bio is
// truncated to an excerpt.
func (v *Verifier) buildPrompt(requester, candidate *match.User, result *match.MatchResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Requester (%s):\n", requester.Kind)
	writeUserFacts(&b, requester, v.config.BioExcerptLen)

	fmt.Fprintf(&b, "\nCandidate (%s):\n", candidate.Kind)
	writeUserFacts(&b, candidate, v.config.BioExcerptLen)

	fmt.Fprintf(&b, "\nAlgorithmic assessment:\n")
	fmt.Fprintf(&b, "- composite score: %.2f (%s)\n", result.Score, result.Label)
	fmt.Fprintf(&b, "- shared interests: %s\n", orNone(result.SharedInterests))
	fmt.Fprintf(&b, "- common languages: %s\n", orNone(result.SharedLanguages))

	return b.String()
}

// writeUserFacts lists one user's structured facts.
func writeUserFacts(b *strings.Builder, u *match.User, bioLen int) {
	fmt.Fprintf(b, "- interests: %s\n", orNone(u.Interests()))
	fmt.Fprintf(b, "- languages: %s\n", orNone(u.Languages()))
	fmt.Fprintf(b, "- budget: %.0f-%.0f\n", u.Budget.Min, u.Budget.Max)
	if u.Nationality != "" {
		fmt.Fprintf(b, "- nationality: %s\n", u.Nationality)
	}
	if bio := excerpt(u.Bio, bioLen); bio != "" {
		fmt.Fprintf(b, "- bio excerpt: %s\n", bio)
	}
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none listed"
	}
	return strings.Join(items, ", ")
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
