// Package vector provides the conversation embedding index: one normalized
// vector per conversation, cosine nearest-neighbor search, and a JSON
// snapshot that round-trips without re-embedding.
//
// Concurrency model: Rebuild constructs the new entry set off to the side and
// swaps it in under a write lock, so searches never observe a half-built
// index. Searches take a read lock and work over immutable entries.
//
// No logging in the library; callers decide how/what to log.
package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/embedding"
)

// Embedding-text selection constants. The embedding source text is title +
// summary + up to keyMessageMax key messages; user messages first, then
// assistant replies longer than assistantLongRunes, clipped to
// assistantClipRunes. This condensed text (not the raw transcript) is what
// determines retrieval behavior.
const (
	keyMessageMax      = 5
	assistantLongRunes = 100
	assistantClipRunes = 200
)

// Match is one nearest-neighbor hit: a conversation id and its cosine
// similarity to the query.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type entry struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

// Index is the in-memory vector index over conversations. Construct with
// New; the zero value is not usable.
type Index struct {
	mu       sync.RWMutex
	entries  []entry
	model    string
	provider embedding.Provider
}

// New returns an empty Index backed by the given provider. The provider may
// be nil, in which case every operation that needs an embedding reports
// embedding.ErrUnavailable.
func New(provider embedding.Provider) *Index {
	idx := &Index{provider: provider}
	if provider != nil {
		idx.model = provider.Model()
	}
	return idx
}

// Len returns the number of indexed conversations.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Model returns the embedding model identifier the current contents were
// built with.
func (x *Index) Model() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.model
}

// Rebuild replaces the entire index contents with fresh embeddings for the
// given conversations (reset-then-add, not incremental upsert). A
// conversation whose embedding fails for a data reason is skipped; an
// unavailable backend aborts the rebuild with embedding.ErrUnavailable and
// leaves the previous contents in place.
func (x *Index) Rebuild(ctx context.Context, convs []*domain.Conversation) error {
	if x.provider == nil {
		return embedding.ErrUnavailable
	}

	fresh := make([]entry, 0, len(convs))
	for _, c := range convs {
		if c == nil {
			continue
		}
		vec, err := x.provider.Embed(ctx, EmbeddingText(c))
		if err != nil {
			return err
		}
		if len(vec) == 0 {
			continue
		}
		fresh = append(fresh, entry{ID: c.ID, Vector: vec})
	}

	x.mu.Lock()
	x.entries = fresh
	x.model = x.provider.Model()
	x.mu.Unlock()
	return nil
}

// Search embeds queryText and returns up to limit matches with cosine
// similarity >= minScore, most similar first. Vectors are pre-normalized so
// the inner product is the cosine similarity. Ties break on id for a
// deterministic order.
func (x *Index) Search(ctx context.Context, queryText string, limit int, minScore float64) ([]Match, error) {
	if x.provider == nil {
		return nil, embedding.ErrUnavailable
	}
	if limit <= 0 {
		return nil, nil
	}
	q, err := x.provider.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]Match, 0, len(x.entries))
	for _, e := range x.entries {
		s := dot(q, e.Vector)
		if s >= minScore {
			matches = append(matches, Match{ID: e.ID, Score: s})
		}
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].ID < matches[b].ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// snapshot is the on-disk representation. The format is not load-bearing;
// the only requirement is that Save → Load round-trips identically.
type snapshot struct {
	Model   string  `json:"model"`
	Entries []entry `json:"entries"`
}

// Save writes the index contents (vectors, ids, model identifier) to path.
func (x *Index) Save(path string) error {
	x.mu.RLock()
	snap := snapshot{Model: x.model, Entries: x.entries}
	x.mu.RUnlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Load replaces the index contents from a snapshot previously written by
// Save, without re-embedding. When the snapshot was produced by a different
// model than the configured provider, Load refuses it: mixing vector spaces
// would silently corrupt similarity scores.
func (x *Index) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}
	if x.provider != nil && snap.Model != x.provider.Model() {
		return fmt.Errorf("index snapshot model %q does not match provider %q", snap.Model, x.provider.Model())
	}

	x.mu.Lock()
	x.entries = snap.Entries
	x.model = snap.Model
	x.mu.Unlock()
	return nil
}

// EmbeddingText builds the condensed text a conversation is embedded from:
// title + summary + up to five key messages. User messages are taken first,
// in order; remaining slots go to long assistant replies clipped to 200
// characters.
func EmbeddingText(c *domain.Conversation) string {
	parts := make([]string, 0, 2+keyMessageMax)
	if t := strings.TrimSpace(c.Title); t != "" {
		parts = append(parts, t)
	}
	if s := strings.TrimSpace(c.Meta.Summary); s != "" {
		parts = append(parts, s)
	}

	slots := keyMessageMax
	for i := range c.Messages {
		if slots == 0 {
			break
		}
		if c.Messages[i].Role == domain.RoleUser {
			parts = append(parts, c.Messages[i].Content)
			slots--
		}
	}
	for i := range c.Messages {
		if slots == 0 {
			break
		}
		m := &c.Messages[i]
		if m.Role != domain.RoleAssistant {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) <= assistantLongRunes {
			continue
		}
		if len(runes) > assistantClipRunes {
			runes = runes[:assistantClipRunes]
		}
		parts = append(parts, string(runes))
		slots--
	}
	return strings.Join(parts, " ")
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}
