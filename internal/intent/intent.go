// Package intent classifies a free-text growth question into a coarse
// intent, detected topic entities, a time context, and a query type.
//
// Classification is a pure function over fixed keyword tables: no scoring,
// no ties, no state. The intent groups are checked in a fixed priority order
// (learning > relationships > goals > emotions) and the first group with any
// keyword hit wins; everything else falls through to "general". Entities are
// accumulated from every topic dictionary that matches, in dictionary order.
package intent

import (
	"strings"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// intentGroups lists the intent keyword groups in priority order. Slice
// order is the contract: the first group with any match decides the intent.
var intentGroups = []struct {
	Intent   string
	Keywords []string
}{
	{domain.IntentLearning, []string{"learn", "learned", "learning", "understand", "knowledge", "skill", "study", "studied", "insight", "grow", "growth", "improve"}},
	{domain.IntentRelationships, []string{"relationship", "relationships", "friend", "friends", "family", "partner", "boundaries", "people", "social", "communicate", "communication"}},
	{domain.IntentGoals, []string{"goal", "goals", "achieve", "achievement", "plan", "plans", "ambition", "target", "progress", "accomplish"}},
	{domain.IntentEmotions, []string{"feel", "feeling", "feelings", "emotion", "emotions", "mood", "happy", "sad", "anxious", "stress", "stressed"}},
}

// entityTable maps topic categories to their detection terms. Unlike intents,
// every matching category is collected; emission follows table order.
var entityTable = []struct {
	Category string
	Terms    []string
}{
	{"work", []string{"work", "job", "career", "boss", "colleague", "office", "interview", "promotion"}},
	{"relationships", []string{"relationship", "relationships", "partner", "friend", "friends", "family", "marriage", "dating"}},
	{"boundaries", []string{"boundaries", "boundary", "limits", "saying no", "assertive"}},
	{"health", []string{"health", "sleep", "exercise", "therapy", "anxiety", "stress", "meditation"}},
	{"learning", []string{"learn", "study", "course", "book", "skill", "reading", "practice"}},
	{"creativity", []string{"writing", "music", "art", "creative", "project", "design"}},
	{"finance", []string{"money", "budget", "saving", "debt", "invest", "salary"}},
}

// Time-context phrase tables. "Recent" phrases are checked before
// "past month" phrases; first match wins, default all-time.
var (
	recentPhrases    = []string{"recently", "lately", "this week", "past week", "last few days", "these days"}
	pastMonthPhrases = []string{"past month", "last month", "this month", "past few weeks"}
)

// intentExpansions supplies query-expansion terms per intent, in fixed
// dictionary order. The search orchestrator appends up to the first three.
var intentExpansions = map[string][]string{
	domain.IntentLearning:      {"understanding", "insight", "knowledge", "lesson", "discovery"},
	domain.IntentRelationships: {"connection", "communication", "boundaries", "trust", "conflict"},
	domain.IntentGoals:         {"progress", "plan", "achievement", "milestone", "habit"},
	domain.IntentEmotions:      {"feeling", "mood", "emotional", "coping", "wellbeing"},
}

// entityExpansions supplies expansion terms per detected entity, in fixed
// dictionary order. The orchestrator appends up to the first two per entity.
var entityExpansions = map[string][]string{
	"work":          {"career", "professional", "workplace"},
	"relationships": {"partner", "connection", "communication"},
	"boundaries":    {"limits", "assertiveness", "self-respect"},
	"health":        {"wellbeing", "habits", "recovery"},
	"learning":      {"practice", "study", "skills"},
	"creativity":    {"expression", "projects", "ideas"},
	"finance":       {"budgeting", "savings", "spending"},
}

// queryTypeWords is the closed set of interrogatives recognized as the
// literal first word of a query.
var queryTypeWords = map[string]struct{}{
	"what": {}, "how": {}, "when": {}, "why": {},
}

// Classify maps a free-text question to its QueryIntent. It is deterministic
// and stateless; the result is created fresh per call.
func Classify(query string) domain.QueryIntent {
	lower := strings.ToLower(query)

	qi := domain.QueryIntent{
		Intent:      domain.IntentGeneral,
		TimeContext: domain.TimeAllTime,
		QueryType:   "general",
		RawQuery:    query,
	}

	// Intent: first keyword group with any hit wins.
	for _, g := range intentGroups {
		if containsAnyWord(lower, g.Keywords) {
			qi.Intent = g.Intent
			break
		}
	}

	// Entities: every matching category, table order.
	for _, row := range entityTable {
		if containsAnyTerm(lower, row.Terms) {
			qi.Entities = append(qi.Entities, row.Category)
		}
	}

	// Time context: recent phrases before past-month phrases.
	switch {
	case containsAnyTerm(lower, recentPhrases):
		qi.TimeContext = domain.TimeRecent
	case containsAnyTerm(lower, pastMonthPhrases):
		qi.TimeContext = domain.TimePastMonth
	}

	// Query type: the literal first word only.
	if fields := strings.Fields(lower); len(fields) > 0 {
		first := strings.Trim(fields[0], "?!.,")
		if _, ok := queryTypeWords[first]; ok {
			qi.QueryType = first
		}
	}

	// Focus areas: intent (when not general), then entities; duplicates kept.
	if qi.Intent != domain.IntentGeneral {
		qi.FocusAreas = append(qi.FocusAreas, qi.Intent)
	}
	qi.FocusAreas = append(qi.FocusAreas, qi.Entities...)

	return qi
}

// ExpansionTerms returns the fixed expansion dictionary for an intent, in
// dictionary order. Unknown intents (including "general") yield nil.
func ExpansionTerms(intent string) []string {
	return intentExpansions[intent]
}

// EntityExpansionTerms returns the fixed expansion dictionary for a detected
// entity, in dictionary order.
func EntityExpansionTerms(entity string) []string {
	return entityExpansions[entity]
}

// containsAnyWord reports whether any keyword appears in lower as a whole
// word token.
func containsAnyWord(lower string, keywords []string) bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '\'')
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	for _, k := range keywords {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

// containsAnyTerm reports whether any term (word or phrase) is a substring
// of lower.
func containsAnyTerm(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
