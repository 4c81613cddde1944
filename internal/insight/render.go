// Package insight – plain-text rendering of a GeneratedInsight.
//
// The section ordering and bullet formatting below are the contract for any
// caller expecting the text rendering; change them and downstream formatters
// break.
package insight

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// Render produces the plain-text form of an insight:
//
//	<Title-Cased Topic>
//	Summary: ...
//	Key Learnings:
//	- ...
//	Evolution Timeline:
//	- Stage 1: ...
//	Breakthrough Moments:
//	- [12345678] "snippet"
//	Next Steps:
//	- ...
//	Confidence: 87%
//
// Empty sections are omitted entirely rather than rendered with no bullets.
func Render(ins domain.GeneratedInsight) string {
	var b strings.Builder

	caser := cases.Title(language.English)
	b.WriteString(caser.String(Topic(ins.Intent)))
	b.WriteByte('\n')

	b.WriteString("Summary: ")
	b.WriteString(ins.Summary)
	b.WriteByte('\n')

	if len(ins.KeyLearnings) > 0 {
		b.WriteString("Key Learnings:\n")
		for _, l := range ins.KeyLearnings {
			b.WriteString("- ")
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}

	if len(ins.EvolutionTimeline) > 0 {
		b.WriteString("Evolution Timeline:\n")
		for _, s := range ins.EvolutionTimeline {
			fmt.Fprintf(&b, "- %s: %s\n", s.Stage, s.Description)
		}
	}

	if len(ins.BreakthroughMoments) > 0 {
		b.WriteString("Breakthrough Moments:\n")
		for _, m := range ins.BreakthroughMoments {
			fmt.Fprintf(&b, "- [%s] %q\n", shortID(m.ConversationID), m.Content)
		}
	}

	if len(ins.ActionableNextSteps) > 0 {
		b.WriteString("Next Steps:\n")
		for _, s := range ins.ActionableNextSteps {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "Confidence: %d%%\n", int(ins.ConfidenceScore*100))
	return b.String()
}

// shortID truncates a conversation id to its first eight characters for
// display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
