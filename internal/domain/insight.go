// Package domain – ephemeral query-time types.
//
// The types in this file are constructed per query and never persisted on
// their own (GeneratedInsight is embedded as the JSON payload of the Insight
// row when the caller chooses to keep it). They form the wire contract of
// the ask endpoint.
package domain

import "time"

// Query intents, in the fixed classification priority order:
// learning > relationships > goals > emotions > general.
const (
	IntentLearning      = "learning"
	IntentRelationships = "relationships"
	IntentGoals         = "goals"
	IntentEmotions      = "emotions"
	IntentGeneral       = "general"
)

// Time contexts for a query.
const (
	TimeRecent    = "recent"
	TimePastMonth = "past_month"
	TimeAllTime   = "all_time"
)

// QueryIntent is the classification of a free-text question. It is stateless:
// created fresh per query and never carried across queries.
type QueryIntent struct {
	// Intent is exactly one of the Intent* constants; first keyword-group
	// match wins in priority order.
	Intent string `json:"intent"`
	// Entities are topic categories detected via fixed term dictionaries.
	// Unlike Intent they are not mutually exclusive.
	Entities []string `json:"entities,omitempty"`
	// TimeContext is one of the Time* constants.
	TimeContext string `json:"time_context"`
	// QueryType is decided solely by the first word of the lowercased query:
	// "what", "how", "when", "why", or "general".
	QueryType string `json:"query_type"`
	// FocusAreas is [Intent] (when not general) followed by Entities, in
	// that order; duplicates are allowed.
	FocusAreas []string `json:"focus_areas,omitempty"`
	// RawQuery is the original question text.
	RawQuery string `json:"raw_query"`
}

// MessageHighlight is a message whose vocabulary overlaps the query strongly
// enough (> 0.3 of the query words) to surface as supporting evidence.
type MessageHighlight struct {
	Seq          int     `json:"seq"`
	Role         string  `json:"role"`
	Content      string  `json:"content"`
	OverlapRatio float64 `json:"overlap_ratio"`
}

// SearchResult pairs a conversation with per-query relevance data. The
// Conversation pointer is shared with the caller, not owned; results are
// ephemeral and rebuilt on every search call.
type SearchResult struct {
	Conversation         *Conversation      `json:"conversation"`
	SimilarityScore      float64            `json:"similarity_score"`
	MatchedTerms         []string           `json:"matched_terms,omitempty"`
	RelevanceExplanation string             `json:"relevance_explanation"`
	MessageHighlights    []MessageHighlight `json:"message_highlights,omitempty"`
}

// BreakthroughMoment is one flagged realization inside a conversation,
// projected into insight output with a truncated supporting snippet.
type BreakthroughMoment struct {
	ConversationID    string    `json:"conversation_id"`
	ConversationTitle string    `json:"conversation_title"`
	Date              time.Time `json:"date"`
	MessageIndex      int       `json:"message_index"`
	Content           string    `json:"content"`
	Sentiment         float64   `json:"sentiment"`
	Intensity         float64   `json:"emotional_intensity"`
}

// EvolutionStage is one chronological chunk of search results summarized by
// dominant themes and average sentiment.
type EvolutionStage struct {
	Stage          string   `json:"stage"`
	Description    string   `json:"description"`
	AvgSentiment   float64  `json:"avg_sentiment"`
	DominantThemes []string `json:"dominant_themes,omitempty"`
}

// SupportingConversation is a summarized reference to a conversation backing
// a generated insight.
type SupportingConversation struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	SimilarityScore float64  `json:"similarity_score"`
	KeyThemes       []string `json:"key_themes,omitempty"`
	SentimentTrend  float64  `json:"sentiment_trend"`
}

// GeneratedInsight is the structured answer to a growth question. It is
// constructed and returned per query; the caller decides persistence.
type GeneratedInsight struct {
	Summary                 string                   `json:"summary"`
	KeyLearnings            []string                 `json:"key_learnings,omitempty"`
	EvolutionTimeline       []EvolutionStage         `json:"evolution_timeline,omitempty"`
	BreakthroughMoments     []BreakthroughMoment     `json:"breakthrough_moments,omitempty"`
	ActionableNextSteps     []string                 `json:"actionable_next_steps,omitempty"`
	ConfidenceScore         float64                  `json:"confidence_score"`
	SupportingConversations []SupportingConversation `json:"supporting_conversations,omitempty"`
	Intent                  QueryIntent              `json:"query_intent"`
	GeneratedAt             time.Time                `json:"generated_at"`
}
