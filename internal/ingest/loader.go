// Package ingest parses chat-export payloads into domain conversations.
//
// The loader is deliberately forgiving: a malformed entry is skipped and
// counted, never allowed to abort the batch. Message ordering inside a
// conversation is preserved as-is (exports are chronological).
package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// exportConversation mirrors one conversation in the export payload.
type exportConversation struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt exportTime      `json:"created_at"`
	Messages  []exportMessage `json:"messages"`
}

// exportMessage mirrors one message in the export payload.
type exportMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp exportTime `json:"timestamp"`
}

// exportTime accepts either an RFC 3339 string or a unix-seconds number,
// since chat exports disagree on which to use.
type exportTime struct {
	time.Time
}

func (t *exportTime) UnmarshalJSON(raw []byte) error {
	s := strings.TrimSpace(string(raw))
	if s == "null" || s == `""` {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return err
	}
	t.Time = time.Unix(int64(secs), 0).UTC()
	return nil
}

// Parse converts an export payload (a JSON array of conversations) into
// domain conversations owned by userID. It returns the parsed conversations
// and the number of entries skipped as malformed.
//
// An entry is skipped when it has no title and no messages, or when a
// message carries an unknown role. Missing ids are replaced with fresh
// UUIDs; missing timestamps fall back to the conversation date.
func Parse(payload []byte, userID string) ([]*domain.Conversation, int, error) {
	var raw []exportConversation
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, 0, err
	}

	skipped := 0
	convs := make([]*domain.Conversation, 0, len(raw))
	for _, ec := range raw {
		c, ok := convert(ec, userID)
		if !ok {
			skipped++
			continue
		}
		convs = append(convs, c)
	}
	return convs, skipped, nil
}

func convert(ec exportConversation, userID string) (*domain.Conversation, bool) {
	title := strings.TrimSpace(ec.Title)
	if title == "" && len(ec.Messages) == 0 {
		return nil, false
	}
	if title == "" {
		title = "Untitled conversation"
	}

	id := strings.TrimSpace(ec.ID)
	if id == "" {
		id = uuid.NewString()
	}
	startedAt := ec.CreatedAt.Time
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	c := &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		StartedAt: startedAt,
	}
	for i, em := range ec.Messages {
		role := strings.ToLower(strings.TrimSpace(em.Role))
		if role != domain.RoleUser && role != domain.RoleAssistant {
			return nil, false
		}
		sentAt := em.Timestamp.Time
		if sentAt.IsZero() {
			sentAt = startedAt
		}
		c.Messages = append(c.Messages, domain.Message{
			ID:             uuid.NewString(),
			ConversationID: c.ID,
			Seq:            i,
			Role:           role,
			Content:        em.Content,
			SentAt:         sentAt,
		})
	}
	return c, true
}
