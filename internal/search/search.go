// Package search orchestrates semantic retrieval over the conversation
// archive: it expands the query using its classified intent, consults the
// vector index, resolves hits back to live conversations, and decorates each
// result with matched terms, a relevance explanation, and message highlights.
//
// Deterministic by construction: expansion follows fixed dictionary order,
// scoring and sorting have explicit tie-breaks, and result caps are stable.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/enrich"
	"github.com/tbourn/go-insight-backend/internal/intent"
	"github.com/tbourn/go-insight-backend/internal/vector"
)

// Tuning constants for result decoration. Part of the search contract;
// tests pin them.
const (
	maxMatchedTerms      = 5
	maxHighlights        = 3
	highlightOverlapMin  = 0.3
	maxIntentExpansions  = 3
	maxEntityExpansions  = 2
	explanationThemesMax = 2
)

// Score bands used in relevance explanations.
const (
	bandHigh     = "High semantic similarity"
	bandGood     = "Good semantic match"
	bandModerate = "Moderate relevance"
)

// Orchestrator coordinates intent-aware retrieval. Construct with New.
type Orchestrator struct {
	index *vector.Index
}

// New returns an Orchestrator over the given vector index.
func New(idx *vector.Index) *Orchestrator {
	return &Orchestrator{index: idx}
}

// Search retrieves up to limit conversations relevant to the classified
// query, most similar first, each with similarity >= minScore.
//
// The index is over-fetched at limit*2 so that hits referencing conversations
// no longer present in convs (stale index entries) can be skipped silently
// without starving the result set. Errors from the index, including the
// embedding backend being unavailable, are returned to the caller, which is
// responsible for degraded-mode behavior; an error is never conflated with
// the legitimate empty result.
func (o *Orchestrator) Search(ctx context.Context, qi domain.QueryIntent, convs []*domain.Conversation, limit int, minScore float64) ([]domain.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	expanded := ExpandQuery(qi)
	matches, err := o.index.Search(ctx, expanded, limit*2, minScore)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Conversation, len(convs))
	for _, c := range convs {
		if c != nil {
			byID[c.ID] = c
		}
	}

	queryWords := queryTerms(qi.RawQuery)

	results := make([]domain.SearchResult, 0, limit)
	for _, m := range matches {
		c, ok := byID[m.ID]
		if !ok {
			// Stale index entry: conversation deleted since the last rebuild.
			continue
		}
		results = append(results, domain.SearchResult{
			Conversation:         c,
			SimilarityScore:      m.Score,
			MatchedTerms:         matchedTerms(queryWords, c),
			RelevanceExplanation: explain(qi, m.Score, c),
			MessageHighlights:    highlights(queryWords, c),
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// ExpandQuery joins the original query with up to the first three expansion
// terms for its intent and up to the first two per detected entity, in fixed
// dictionary order.
func ExpandQuery(qi domain.QueryIntent) string {
	parts := []string{qi.RawQuery}
	terms := intent.ExpansionTerms(qi.Intent)
	if len(terms) > maxIntentExpansions {
		terms = terms[:maxIntentExpansions]
	}
	parts = append(parts, terms...)

	for _, e := range qi.Entities {
		et := intent.EntityExpansionTerms(e)
		if len(et) > maxEntityExpansions {
			et = et[:maxEntityExpansions]
		}
		parts = append(parts, et...)
	}
	return strings.Join(parts, " ")
}

// queryTerms returns the stopword-filtered word set of the raw query,
// preserving first-occurrence order.
func queryTerms(query string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range enrich.Tokenize(query) {
		if enrich.IsStopword(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// matchedTerms intersects the query vocabulary with the conversation's
// embedding-text vocabulary, capped at five terms in query order.
func matchedTerms(queryWords []string, c *domain.Conversation) []string {
	vocab := make(map[string]struct{})
	for _, t := range enrich.Tokenize(vector.EmbeddingText(c)) {
		vocab[t] = struct{}{}
	}
	var out []string
	for _, w := range queryWords {
		if _, ok := vocab[w]; ok {
			out = append(out, w)
			if len(out) == maxMatchedTerms {
				break
			}
		}
	}
	return out
}

// explain builds the semicolon-joined relevance explanation: intent clause
// (when not general), entity clause (when entities were detected), the score
// band, and the conversation's first two key themes.
func explain(qi domain.QueryIntent, score float64, c *domain.Conversation) string {
	var clauses []string
	if qi.Intent != domain.IntentGeneral {
		clauses = append(clauses, fmt.Sprintf("Matches your %s focus", qi.Intent))
	}
	if len(qi.Entities) > 0 {
		clauses = append(clauses, "Touches on "+strings.Join(qi.Entities, ", "))
	}
	switch {
	case score > 0.8:
		clauses = append(clauses, bandHigh)
	case score > 0.6:
		clauses = append(clauses, bandGood)
	default:
		clauses = append(clauses, bandModerate)
	}
	if themes := c.Meta.KeyThemes; len(themes) > 0 {
		if len(themes) > explanationThemesMax {
			themes = themes[:explanationThemesMax]
		}
		clauses = append(clauses, "Key themes: "+strings.Join(themes, ", "))
	}
	return strings.Join(clauses, "; ")
}

// highlights selects up to three messages whose share of the query words
// exceeds 0.3, ordered by overlap ratio descending with message position
// breaking ties.
func highlights(queryWords []string, c *domain.Conversation) []domain.MessageHighlight {
	if len(queryWords) == 0 {
		return nil
	}
	qset := make(map[string]struct{}, len(queryWords))
	for _, w := range queryWords {
		qset[w] = struct{}{}
	}

	var hs []domain.MessageHighlight
	for i := range c.Messages {
		m := &c.Messages[i]
		common := 0
		seen := make(map[string]struct{})
		for _, t := range enrich.Tokenize(m.Content) {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, ok := qset[t]; ok {
				common++
			}
		}
		ratio := float64(common) / float64(len(queryWords))
		if ratio > highlightOverlapMin {
			hs = append(hs, domain.MessageHighlight{
				Seq:          m.Seq,
				Role:         m.Role,
				Content:      m.Content,
				OverlapRatio: ratio,
			})
		}
	}
	sort.Slice(hs, func(a, b int) bool {
		if hs[a].OverlapRatio != hs[b].OverlapRatio {
			return hs[a].OverlapRatio > hs[b].OverlapRatio
		}
		return hs[a].Seq < hs[b].Seq
	})
	if len(hs) > maxHighlights {
		hs = hs[:maxHighlights]
	}
	return hs
}
