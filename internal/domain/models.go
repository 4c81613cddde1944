// Package domain defines the persistence models for archived conversations,
// their enrichment metadata, and generated insights. These types are mapped
// with GORM and form the core data layer of the insight backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message roles. Enrichment and insight analysis treat the two sides of a
// conversation differently (e.g., actionable phrases come from user messages
// only), so the role strings are part of the data contract.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sentiment labels derived from a score in [-1,1]. The partition is exact:
// positive iff score > 0.1, negative iff score < -0.1, neutral otherwise.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentLabel maps a polarity score to its label using the fixed
// +-0.1 thresholds.
func SentimentLabel(score float64) string {
	switch {
	case score > 0.1:
		return SentimentPositive
	case score < -0.1:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// MessageMeta is the derived, per-message enrichment metadata. It is computed
// once at import time and immutable afterwards.
type MessageMeta struct {
	SentimentScore     float64  `json:"sentiment_score"`
	SentimentLabel     string   `json:"sentiment_label"`
	Entities           []string `json:"entities,omitempty"`
	KeyPhrases         []string `json:"key_phrases,omitempty"`
	WordCount          int      `json:"word_count"`
	ComplexityScore    float64  `json:"complexity_score"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
}

// Message represents a single utterance within an archived conversation.
// Messages are owned exclusively by their parent conversation; ordering is
// chronological and significant.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ConversationID: foreign key to the owning conversation (indexed).
//   - Seq: zero-based position within the conversation. Breakthrough indices
//     in ConversationMeta refer to this value.
//   - Role: "user" or "assistant" (enforced by DB constraint).
//   - Content: full text content of the message.
//   - SentAt: timestamp of the message in the source archive.
//   - Meta: derived enrichment metadata, stored as a JSON column.
type Message struct {
	ID             string      `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string      `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	Seq            int         `json:"seq"             gorm:"not null;index:idx_conv_msgs,priority:2"`
	Role           string      `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string      `json:"content"         gorm:"type:text;not null"`
	SentAt         time.Time   `json:"sent_at"`
	Meta           MessageMeta `json:"meta"            gorm:"serializer:json"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	// Conversation is the parent aggregate. Messages are cascade-deleted
	// if their conversation is removed.
	Conversation *Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// TemporalSegment is one chronological chunk of a conversation (roughly a
// third), summarized by sentiment and volume statistics.
type TemporalSegment struct {
	StartIndex   int     `json:"start_index"`
	EndIndex     int     `json:"end_index"`
	MessageCount int     `json:"message_count"`
	TotalWords   int     `json:"total_words"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// ConversationMeta is the derived, conversation-level enrichment metadata.
// Invariant: every index in BreakthroughMoments is a valid Seq into the
// conversation's messages.
type ConversationMeta struct {
	Summary             string            `json:"summary,omitempty"`
	KeyThemes           []string          `json:"key_themes,omitempty"`
	SentimentTrend      float64           `json:"sentiment_trend"`
	ImportanceScore     float64           `json:"importance_score"`
	BreakthroughMoments []int             `json:"breakthrough_moments,omitempty"`
	TemporalSegments    []TemporalSegment `json:"temporal_segments,omitempty"`
	TopicCluster        string            `json:"topic_cluster,omitempty"`
}

// Conversation represents one archived chat-assistant conversation owned by a
// user. It is created once at import time, enriched, and read-only afterwards:
// search and insight generation never mutate it.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the archive owner; indexed for retrieval.
//   - Title: conversation title from the export.
//   - StartedAt: creation date of the conversation in the source archive
//     (distinct from CreatedAt, which is the import time).
//   - Meta: derived enrichment metadata, stored as a JSON column.
//   - DeletedAt: soft deletion marker; stale vector-index entries pointing at
//     soft-deleted rows are silently skipped during search.
type Conversation struct {
	ID        string           `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string           `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_convs"`
	Title     string           `json:"title"      gorm:"type:varchar(255);not null"`
	StartedAt time.Time        `json:"started_at" gorm:"index"`
	Meta      ConversationMeta `json:"meta"       gorm:"serializer:json"`
	Messages  []Message        `json:"messages,omitempty" gorm:"foreignKey:ConversationID;references:ID"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Insight is the persisted record of a generated insight. The full structured
// payload is kept as a JSON column so the generation contract can evolve
// without schema migrations; the queryable columns are duplicated out of it.
type Insight struct {
	ID         string           `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID     string           `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Query      string           `json:"query"      gorm:"type:text;not null"`
	Intent     string           `json:"intent"     gorm:"type:varchar(32);not null"`
	Confidence float64          `json:"confidence" gorm:"not null"`
	Payload    GeneratedInsight `json:"payload"    gorm:"serializer:json"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Insight.
func (Insight) TableName() string { return "insights" }

// InsightFeedback is a user rating (+1/-1) on a generated insight. A user can
// leave at most one rating per insight (enforced by unique index).
type InsightFeedback struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	InsightID string         `json:"insight_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_insight_feedback"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_insight_feedback"`
	Value     int            `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Insight Insight `json:"-" gorm:"foreignKey:InsightID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for InsightFeedback.
func (InsightFeedback) TableName() string { return "insight_feedback" }
