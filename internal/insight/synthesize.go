// Package insight – synthesis half: template selection, confidence scoring,
// and assembly of the final GeneratedInsight.
package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// Synthesis caps. Part of the insight contract; tests pin them.
const (
	maxKeyLearnings         = 5
	maxLearningThemes       = 3
	maxLearningPatterns     = 2
	maxLearningActions      = 2
	maxInsightBreakthroughs = 3
	maxNextSteps            = 4
	maxNextStepActions      = 3
	maxSupporting           = 5
)

// Confidence formula terms. The exact additive structure and cutoffs are the
// contract: confidence is monotonic in result count, mean similarity, and
// breakthrough count, and clamps at 1.0.
const (
	confidenceBase          = 0.5
	confidenceManyResults   = 0.2 // >= 10 results
	confidenceSomeResults   = 0.1 // >= 5 results
	confidenceSimWeight     = 0.2 // x mean similarity
	confidencePerBreak      = 0.05
	confidenceBreakCap      = 0.1
	confidenceEvolutionary  = 0.1
	confidenceEmptyInsight  = 0.1
	confidenceErrorInsight  = 0.0
	manyResultsMin          = 10
	someResultsMin          = 5
)

// summaryTemplates keys a narrative sentence pattern by intent. Placeholders:
// {topic}, {time_period}, {key_insight}.
var summaryTemplates = map[string]string{
	domain.IntentLearning:      "Over the past {time_period}, your conversations about {topic} show steady learning. {key_insight}",
	domain.IntentRelationships: "Across {time_period} of conversations about {topic}, your relational awareness has been developing. {key_insight}",
	domain.IntentGoals:         "Your goal-focused conversations about {topic} span {time_period}. {key_insight}",
	domain.IntentEmotions:      "Over {time_period}, you've been processing how you feel about {topic}. {key_insight}",
	domain.IntentGeneral:       "Your conversations touching on {topic} cover {time_period}. {key_insight}",
}

// keyInsightByTrend supplies the closing sentence per overall sentiment label.
var keyInsightByTrend = map[string]string{
	domain.SentimentPositive: "The overall trajectory is positive, with growing clarity and confidence.",
	domain.SentimentNegative: "This has been a challenging area, and working through it is itself progress.",
	domain.SentimentNeutral:  "You've been exploring this area with a balanced, steady perspective.",
}

// genericNextStepByTrend supplies the single sentiment-keyed generic step
// appended after the actionable ones.
var genericNextStepByTrend = map[string]string{
	domain.SentimentPositive: "Continue the practices that are building momentum",
	domain.SentimentNegative: "Consider seeking support around the recurring challenges",
	domain.SentimentNeutral:  "Maintain your balanced approach while exploring new angles",
}

// Synthesize combines the analysis and search results into the final
// structured insight for the classified query.
func Synthesize(qi domain.QueryIntent, a Analysis, results []domain.SearchResult) domain.GeneratedInsight {
	ins := domain.GeneratedInsight{
		Summary:             summary(qi, a),
		KeyLearnings:        keyLearnings(a),
		EvolutionTimeline:   a.EvolutionStages,
		ActionableNextSteps: nextSteps(a),
		ConfidenceScore:     confidence(a, results),
		Intent:              qi,
		GeneratedAt:         time.Now().UTC(),
	}

	bts := a.Breakthroughs
	if len(bts) > maxInsightBreakthroughs {
		bts = bts[:maxInsightBreakthroughs]
	}
	ins.BreakthroughMoments = bts

	n := len(results)
	if n > maxSupporting {
		n = maxSupporting
	}
	for _, r := range results[:n] {
		c := r.Conversation
		if c == nil {
			continue
		}
		ins.SupportingConversations = append(ins.SupportingConversations, domain.SupportingConversation{
			ID:              c.ID,
			Title:           c.Title,
			Date:            c.StartedAt.Format(time.RFC3339),
			SimilarityScore: r.SimilarityScore,
			KeyThemes:       c.Meta.KeyThemes,
			SentimentTrend:  c.Meta.SentimentTrend,
		})
	}
	return ins
}

// Topic derives the narrative subject of a query: its joined entities, else
// its intent name, else "personal growth".
func Topic(qi domain.QueryIntent) string {
	if len(qi.Entities) > 0 {
		return strings.Join(qi.Entities, " and ")
	}
	if qi.Intent != domain.IntentGeneral {
		return qi.Intent
	}
	return "personal growth"
}

// summary fills the intent's template with topic, human time period, and the
// sentiment-keyed key insight.
func summary(qi domain.QueryIntent, a Analysis) string {
	tpl, ok := summaryTemplates[qi.Intent]
	if !ok {
		tpl = summaryTemplates[domain.IntentGeneral]
	}
	r := strings.NewReplacer(
		"{topic}", Topic(qi),
		"{time_period}", humanPeriod(a.DateFrom, a.DateTo),
		"{key_insight}", keyInsightByTrend[a.SentimentLabel],
	)
	return r.Replace(tpl)
}

// humanPeriod renders the span between two dates as "<n> days" (< 30 days),
// "<n> months" (< 365 days, floor division by 30), or "<n> years" (floor
// division by 365).
func humanPeriod(from, to time.Time) string {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		days = 0
	}
	switch {
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return fmt.Sprintf("%d months", days/30)
	default:
		return fmt.Sprintf("%d years", days/365)
	}
}

// keyLearnings concatenates up to three theme learnings, two common
// patterns, and two actionable insights, capped at five total.
func keyLearnings(a Analysis) []string {
	var out []string
	themes := a.KeyThemes
	if len(themes) > maxLearningThemes {
		themes = themes[:maxLearningThemes]
	}
	for _, t := range themes {
		out = append(out, "Developed deep insights about "+t)
	}
	patterns := a.CommonPatterns
	if len(patterns) > maxLearningPatterns {
		patterns = patterns[:maxLearningPatterns]
	}
	out = append(out, patterns...)

	actions := a.ActionableInsights
	if len(actions) > maxLearningActions {
		actions = actions[:maxLearningActions]
	}
	out = append(out, actions...)

	if len(out) > maxKeyLearnings {
		out = out[:maxKeyLearnings]
	}
	return out
}

// nextSteps takes up to three actionable insights and exactly one
// sentiment-keyed generic step, capped at four.
func nextSteps(a Analysis) []string {
	actions := a.ActionableInsights
	if len(actions) > maxNextStepActions {
		actions = actions[:maxNextStepActions]
	}
	out := append([]string{}, actions...)
	out = append(out, genericNextStepByTrend[a.SentimentLabel])
	if len(out) > maxNextSteps {
		out = out[:maxNextSteps]
	}
	return out
}

// confidence implements the additive formula:
//
//	base 0.5
//	+ 0.2 if >= 10 results, else + 0.1 if >= 5
//	+ mean similarity x 0.2
//	+ min(breakthroughs x 0.05, 0.1)
//	+ 0.1 if the evolution pattern is evolutionary
//	clamped to 1.0
func confidence(a Analysis, results []domain.SearchResult) float64 {
	score := confidenceBase
	switch {
	case len(results) >= manyResultsMin:
		score += confidenceManyResults
	case len(results) >= someResultsMin:
		score += confidenceSomeResults
	}
	if len(results) > 0 {
		var sum float64
		for _, r := range results {
			sum += r.SimilarityScore
		}
		score += (sum / float64(len(results))) * confidenceSimWeight
	}
	b := float64(len(a.Breakthroughs)) * confidencePerBreak
	if b > confidenceBreakCap {
		b = confidenceBreakCap
	}
	score += b
	if a.EvolutionPattern == PatternEvolutionary {
		score += confidenceEvolutionary
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// EmptyInsight is the fixed response for a query that matched nothing: a
// well-formed insight with low confidence and no analysis performed.
func EmptyInsight(qi domain.QueryIntent) domain.GeneratedInsight {
	return domain.GeneratedInsight{
		Summary:      fmt.Sprintf("There isn't enough conversation history about %s to generate insights yet.", Topic(qi)),
		KeyLearnings: []string{"Consider starting conversations about this topic to build insights"},
		ActionableNextSteps: []string{
			"Explore this topic in future conversations",
			"Revisit this question once more history has accumulated",
		},
		ConfidenceScore: confidenceEmptyInsight,
		Intent:          qi,
		GeneratedAt:     time.Now().UTC(),
	}
}

// ErrorInsight is the fixed response when query processing failed
// internally: confidence zero, intent forced to general, and generic next
// steps distinct from the empty-insight ones. The caller still receives a
// well-formed insight, never a stack trace.
func ErrorInsight(query string) domain.GeneratedInsight {
	return domain.GeneratedInsight{
		Summary:      "Something went wrong while analyzing your conversations for this question.",
		KeyLearnings: []string{"The question could not be analyzed this time"},
		ActionableNextSteps: []string{
			"Try rephrasing the question",
			"Try again in a moment",
		},
		ConfidenceScore: confidenceErrorInsight,
		Intent: domain.QueryIntent{
			Intent:      domain.IntentGeneral,
			TimeContext: domain.TimeAllTime,
			QueryType:   "general",
			RawQuery:    query,
		},
		GeneratedAt: time.Now().UTC(),
	}
}
