package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/embedding"
	"github.com/tbourn/go-insight-backend/internal/intent"
	"github.com/tbourn/go-insight-backend/internal/vector"
)

func conv(id, title string, contents ...string) *domain.Conversation {
	c := &domain.Conversation{ID: id, Title: title}
	for i, text := range contents {
		c.Messages = append(c.Messages, domain.Message{Seq: i, Role: domain.RoleUser, Content: text})
	}
	return c
}

func buildIndex(t *testing.T, convs []*domain.Conversation) *vector.Index {
	t.Helper()
	idx := vector.New(embedding.NewHashProvider(128))
	if err := idx.Rebuild(context.Background(), convs); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	return idx
}

func TestExpandQuery_IntentAndEntityTerms(t *testing.T) {
	qi := intent.Classify("What have I learned about my work?")
	got := ExpandQuery(qi)

	if !strings.HasPrefix(got, "What have I learned about my work?") {
		t.Fatalf("expansion must start with the raw query: %q", got)
	}
	// First three learning expansions.
	for _, term := range []string{"understanding", "insight", "knowledge"} {
		if !strings.Contains(got, term) {
			t.Fatalf("missing intent expansion %q in %q", term, got)
		}
	}
	// Fourth learning expansion is not included.
	if strings.Contains(got, "lesson") {
		t.Fatalf("intent expansions must cap at 3: %q", got)
	}
	// First two work-entity expansions.
	for _, term := range []string{"career", "professional"} {
		if !strings.Contains(got, term) {
			t.Fatalf("missing entity expansion %q in %q", term, got)
		}
	}
	if strings.Contains(got, "workplace") {
		t.Fatalf("entity expansions must cap at 2: %q", got)
	}
}

func TestExpandQuery_GeneralIntentIsJustTheQuery(t *testing.T) {
	qi := domain.QueryIntent{Intent: domain.IntentGeneral, RawQuery: "anything at all"}
	if got := ExpandQuery(qi); got != "anything at all" {
		t.Fatalf("general expansion = %q", got)
	}
}

func TestSearch_ResolvesDecoratesAndCaps(t *testing.T) {
	convs := []*domain.Conversation{
		conv("c1", "Career growth", "thinking about my career and a promotion at work"),
		conv("c2", "Cooking", "new pasta recipe"),
	}
	convs[0].Meta.KeyThemes = []string{"career", "promotion", "growth"}
	idx := buildIndex(t, convs)
	o := New(idx)

	qi := intent.Classify("How is my career going?")
	results, err := o.Search(context.Background(), qi, convs, 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 || results[0].Conversation.ID != "c1" {
		t.Fatalf("expected c1 first, got %+v", results)
	}

	top := results[0]
	// Matched terms come from the query vocabulary, in query order.
	if len(top.MatchedTerms) == 0 || top.MatchedTerms[0] != "career" {
		t.Fatalf("matched terms = %v", top.MatchedTerms)
	}
	// Explanation carries the score band and at most two themes.
	if !strings.Contains(top.RelevanceExplanation, "Key themes: career, promotion") {
		t.Fatalf("explanation = %q", top.RelevanceExplanation)
	}
	if strings.Contains(top.RelevanceExplanation, "growth") {
		t.Fatalf("explanation should cap themes at 2: %q", top.RelevanceExplanation)
	}
}

func TestSearch_ScoreBands(t *testing.T) {
	c := conv("c", "t", "x")
	cases := []struct {
		score float64
		want  string
	}{
		{0.9, bandHigh},
		{0.8, bandGood}, // 0.8 is not "high"; the band boundary is exclusive
		{0.7, bandGood},
		{0.6, bandModerate},
		{0.1, bandModerate},
	}
	for _, tc := range cases {
		got := explain(domain.QueryIntent{Intent: domain.IntentGeneral}, tc.score, c)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("explain(score=%v) = %q; want band %q", tc.score, got, tc.want)
		}
	}
}

func TestExplain_IntentAndEntityClauses(t *testing.T) {
	c := conv("c", "t", "x")
	qi := domain.QueryIntent{
		Intent:   domain.IntentLearning,
		Entities: []string{"work", "health"},
	}
	got := explain(qi, 0.9, c)
	for _, part := range []string{"Matches your learning focus", "Touches on work, health", bandHigh} {
		if !strings.Contains(got, part) {
			t.Fatalf("explanation missing %q: %q", part, got)
		}
	}
	if !strings.Contains(got, "; ") {
		t.Fatalf("clauses must be semicolon-joined: %q", got)
	}
}

func TestSearch_SkipsStaleIndexEntries(t *testing.T) {
	indexed := []*domain.Conversation{
		conv("live", "Career talk", "career career career"),
		conv("gone", "Career talk too", "career career career"),
	}
	idx := buildIndex(t, indexed)
	o := New(idx)

	// Only "live" remains in the corpus; the stale hit is skipped silently.
	live := indexed[:1]
	qi := intent.Classify("my career")
	results, err := o.Search(context.Background(), qi, live, 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Conversation.ID != "live" {
		t.Fatalf("stale entry not skipped: %+v", results)
	}
}

func TestSearch_IndexErrorIsReturned(t *testing.T) {
	idx := vector.New(nil) // no provider: every search fails
	o := New(idx)
	_, err := o.Search(context.Background(), intent.Classify("anything"), nil, 5, 0)
	if !errors.Is(err, embedding.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestSearch_ZeroLimit(t *testing.T) {
	o := New(vector.New(embedding.NewHashProvider(32)))
	results, err := o.Search(context.Background(), intent.Classify("x"), nil, 0, 0)
	if err != nil || results != nil {
		t.Fatalf("limit=0 should be a no-op, got %v %v", results, err)
	}
}

func TestHighlights_ThresholdOrderAndCap(t *testing.T) {
	queryWords := []string{"career", "promotion", "boss"}
	c := &domain.Conversation{
		ID: "c",
		Messages: []domain.Message{
			{Seq: 0, Role: domain.RoleUser, Content: "career promotion boss all three"}, // ratio 1.0
			{Seq: 1, Role: domain.RoleAssistant, Content: "career and promotion"},       // ratio 2/3
			{Seq: 2, Role: domain.RoleUser, Content: "career only"},                     // ratio 1/3
			{Seq: 3, Role: domain.RoleUser, Content: "nothing relevant here"},           // ratio 0
			{Seq: 4, Role: domain.RoleUser, Content: "boss promotion career again"},     // ratio 1.0
		},
	}
	hs := highlights(queryWords, c)
	if len(hs) != 3 {
		t.Fatalf("highlights = %d; want cap of 3", len(hs))
	}
	// Ratio descending; ties break on Seq ascending.
	if hs[0].Seq != 0 || hs[1].Seq != 4 {
		t.Fatalf("tie-break order wrong: %+v", hs)
	}
	if hs[2].Seq != 1 {
		t.Fatalf("third highlight = %+v; want Seq 1", hs[2])
	}

	for _, h := range hs {
		if h.Seq == 3 {
			t.Fatalf("zero-overlap message must not be highlighted")
		}
	}

	if got := highlights(nil, c); got != nil {
		t.Fatalf("no query words should yield no highlights")
	}
}

func TestMatchedTerms_CapAndOrder(t *testing.T) {
	c := conv("c", "alpha beta gamma delta epsilon zeta", "alpha beta gamma delta epsilon zeta")
	queryWords := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	got := matchedTerms(queryWords, c)
	if len(got) != 5 {
		t.Fatalf("matched terms must cap at 5, got %v", got)
	}
	if got[0] != "alpha" || got[4] != "epsilon" {
		t.Fatalf("query order not preserved: %v", got)
	}
}
