// Package insight turns search results into a structured, confidence-scored
// narrative answer. This file holds the analysis half: aggregate statistics
// computed from the retrieved conversations before any template is applied.
//
// Every algorithm here is deterministic, with explicit sort keys that do not
// depend on input completion order.
package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// Analysis caps and thresholds. Part of the insight contract; tests pin them.
const (
	maxAnalysisThemes        = 5
	maxAnalysisBreakthroughs = 5
	maxCommonPatterns        = 3
	maxActionableInsights    = 5

	breakthroughSnippetRunes = 200
	highIntensityMin         = 0.5
	complexityReflectiveMin  = 5.0
	complexitySimpleMax      = 3.0

	stageSentimentPositive = 0.2
	stageSentimentNegative = -0.2
)

// Evolution pattern values.
const (
	PatternEvolutionary     = "evolutionary"
	PatternInsufficientData = "insufficient_data"
)

// actionKeywords trigger the actionable-phrase scan over user messages.
var actionKeywords = []string{
	"should", "need to", "will", "going to", "plan to", "try to", "practice",
}

// Analysis is the aggregate view of a result set, consumed by Synthesize.
type Analysis struct {
	DateFrom time.Time
	DateTo   time.Time

	KeyThemes      []string
	SentimentMean  float64
	SentimentLabel string

	Breakthroughs []domain.BreakthroughMoment

	EvolutionPattern string
	EvolutionStages  []domain.EvolutionStage

	CommonPatterns     []string
	ActionableInsights []string
}

// Analyze computes the aggregate analytics over the search results. An empty
// result set yields a degenerate but valid Analysis (date range defaults to
// now, everything else zero); it never panics.
func Analyze(results []domain.SearchResult) Analysis {
	a := Analysis{EvolutionPattern: PatternInsufficientData}

	now := time.Now().UTC()
	a.DateFrom, a.DateTo = now, now
	if len(results) == 0 {
		a.SentimentLabel = domain.SentimentNeutral
		return a
	}

	// Date range: min/max conversation start date.
	first := true
	var sentimentSum float64
	for _, r := range results {
		c := r.Conversation
		if c == nil {
			continue
		}
		if first {
			a.DateFrom, a.DateTo = c.StartedAt, c.StartedAt
			first = false
		} else {
			if c.StartedAt.Before(a.DateFrom) {
				a.DateFrom = c.StartedAt
			}
			if c.StartedAt.After(a.DateTo) {
				a.DateTo = c.StartedAt
			}
		}
		sentimentSum += c.Meta.SentimentTrend
	}

	a.KeyThemes = rankThemes(results, maxAnalysisThemes, 0)
	a.SentimentMean = sentimentSum / float64(len(results))
	a.SentimentLabel = domain.SentimentLabel(a.SentimentMean)
	a.Breakthroughs = collectBreakthroughs(results)
	a.EvolutionPattern, a.EvolutionStages = evolve(results)
	a.CommonPatterns = commonPatterns(results)
	a.ActionableInsights = actionableInsights(results)
	return a
}

// rankThemes flattens conversation key themes (the first themesPerConv of
// each when > 0) and frequency-ranks them, first occurrence breaking ties.
func rankThemes(results []domain.SearchResult, top, themesPerConv int) []string {
	counts := make(map[string]int)
	first := make(map[string]int)
	pos := 0
	for _, r := range results {
		if r.Conversation == nil {
			continue
		}
		themes := r.Conversation.Meta.KeyThemes
		if themesPerConv > 0 && len(themes) > themesPerConv {
			themes = themes[:themesPerConv]
		}
		for _, t := range themes {
			if _, ok := first[t]; !ok {
				first[t] = pos
			}
			counts[t]++
			pos++
		}
	}
	ranked := make([]string, 0, len(counts))
	for t := range counts {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if counts[ranked[a]] != counts[ranked[b]] {
			return counts[ranked[a]] > counts[ranked[b]]
		}
		return first[ranked[a]] < first[ranked[b]]
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}

// collectBreakthroughs emits one record per flagged message index across all
// results, sorted descending by emotional intensity with date as tiebreak,
// keeping the top five. Indices that fall outside the message slice (stale
// metadata) are skipped rather than trusted.
func collectBreakthroughs(results []domain.SearchResult) []domain.BreakthroughMoment {
	var out []domain.BreakthroughMoment
	for _, r := range results {
		c := r.Conversation
		if c == nil {
			continue
		}
		for _, idx := range c.Meta.BreakthroughMoments {
			if idx < 0 || idx >= len(c.Messages) {
				continue
			}
			m := &c.Messages[idx]
			out = append(out, domain.BreakthroughMoment{
				ConversationID:    c.ID,
				ConversationTitle: c.Title,
				Date:              c.StartedAt,
				MessageIndex:      idx,
				Content:           truncate(m.Content, breakthroughSnippetRunes),
				Sentiment:         m.Meta.SentimentScore,
				Intensity:         m.Meta.EmotionalIntensity,
			})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Intensity != out[b].Intensity {
			return out[a].Intensity > out[b].Intensity
		}
		return out[a].Date.After(out[b].Date)
	})
	if len(out) > maxAnalysisBreakthroughs {
		out = out[:maxAnalysisBreakthroughs]
	}
	return out
}

// evolve splits the chronologically sorted results into chunks of size
// max(1, n/3); the final chunk absorbs any remainder, so small inputs can
// yield two stages and size-1 chunks more than three. Fewer than two results
// is insufficient data.
func evolve(results []domain.SearchResult) (string, []domain.EvolutionStage) {
	ordered := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Conversation != nil {
			ordered = append(ordered, r)
		}
	}
	if len(ordered) < 2 {
		return PatternInsufficientData, nil
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Conversation.StartedAt.Before(ordered[b].Conversation.StartedAt)
	})

	n := len(ordered)
	size := n / 3
	if size == 0 {
		size = 1
	}
	full := n / size

	var stages []domain.EvolutionStage
	for k := 0; k < full; k++ {
		start := k * size
		end := start + size
		if k == full-1 {
			end = n // remainder folds into the last chunk
		}
		chunk := ordered[start:end]

		var sentSum float64
		for _, r := range chunk {
			sentSum += r.Conversation.Meta.SentimentTrend
		}
		avg := sentSum / float64(len(chunk))
		themes := rankThemes(chunk, 2, 2)

		stages = append(stages, domain.EvolutionStage{
			Stage:          fmt.Sprintf("Stage %d", k+1),
			Description:    stageDescription(themes, avg),
			AvgSentiment:   avg,
			DominantThemes: themes,
		})
	}
	return PatternEvolutionary, stages
}

// stageDescription renders "Focus on {themes} with {tone}" where tone is
// keyed by the chunk's average sentiment at the +-0.2 thresholds.
func stageDescription(themes []string, avgSentiment float64) string {
	topic := "general reflection"
	if len(themes) > 0 {
		topic = strings.Join(themes, " and ")
	}
	tone := "balanced exploration"
	switch {
	case avgSentiment > stageSentimentPositive:
		tone = "positive growth"
	case avgSentiment < stageSentimentNegative:
		tone = "challenging period"
	}
	return fmt.Sprintf("Focus on %s with %s", topic, tone)
}

// commonPatterns produces up to three informational observations: the top
// key phrases across all messages, a count of emotionally intense messages,
// and a complexity-based note on communication style.
func commonPatterns(results []domain.SearchResult) []string {
	phraseCounts := make(map[string]int)
	phraseFirst := make(map[string]int)
	pos := 0
	intense := 0
	var complexitySum float64
	msgs := 0

	for _, r := range results {
		if r.Conversation == nil {
			continue
		}
		for i := range r.Conversation.Messages {
			m := &r.Conversation.Messages[i]
			msgs++
			complexitySum += m.Meta.ComplexityScore
			if m.Meta.EmotionalIntensity > highIntensityMin {
				intense++
			}
			for _, p := range m.Meta.KeyPhrases {
				if _, ok := phraseFirst[p]; !ok {
					phraseFirst[p] = pos
				}
				phraseCounts[p]++
				pos++
			}
		}
	}

	var out []string
	if len(phraseCounts) > 0 {
		phrases := make([]string, 0, len(phraseCounts))
		for p := range phraseCounts {
			phrases = append(phrases, p)
		}
		sort.Slice(phrases, func(a, b int) bool {
			if phraseCounts[phrases[a]] != phraseCounts[phrases[b]] {
				return phraseCounts[phrases[a]] > phraseCounts[phrases[b]]
			}
			return phraseFirst[phrases[a]] < phraseFirst[phrases[b]]
		})
		if len(phrases) > 3 {
			phrases = phrases[:3]
		}
		out = append(out, "You frequently return to: "+strings.Join(phrases, ", "))
	}
	if intense > 0 {
		out = append(out, fmt.Sprintf("%d of these moments carried strong emotional engagement", intense))
	}
	if msgs > 0 {
		avg := complexitySum / float64(msgs)
		switch {
		case avg > complexityReflectiveMin:
			out = append(out, "Your language here is complex and reflective")
		case avg < complexitySimpleMax:
			out = append(out, "You communicate about this directly and simply")
		}
	}
	if len(out) > maxCommonPatterns {
		out = out[:maxCommonPatterns]
	}
	return out
}

// actionableInsights scans user messages (assistant messages excluded) for
// action keywords, collecting the first period-delimited sentence containing
// one. Duplicates are removed with set semantics; the surviving entries are
// sorted for a stable order and capped at five.
func actionableInsights(results []domain.SearchResult) []string {
	seen := make(map[string]struct{})
	for _, r := range results {
		if r.Conversation == nil {
			continue
		}
		for i := range r.Conversation.Messages {
			m := &r.Conversation.Messages[i]
			if m.Role != domain.RoleUser {
				continue
			}
			if s := firstActionSentence(m.Content); s != "" {
				seen[s] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > maxActionableInsights {
		out = out[:maxActionableInsights]
	}
	return out
}

// firstActionSentence returns the first period-delimited sentence of text
// containing an action keyword, trimmed, or "" when none matches.
func firstActionSentence(text string) string {
	for _, sentence := range strings.Split(text, ".") {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, kw := range actionKeywords {
			if strings.Contains(lower, kw) {
				return trimmed
			}
		}
	}
	return ""
}

// truncate clips s to max runes, appending "..." when anything was cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
