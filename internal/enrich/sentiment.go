// Package enrich – sentiment scoring.
//
// Sentiment is modeled as a capability interface with two implementations:
// a VADER-backed scorer (full NLP tier) and a small lexicon fallback. The
// implementation is chosen at construction time via configuration, never by
// probing imports or catching "unavailable" errors mid-batch.
package enrich

import (
	"strings"

	"github.com/jonreiter/govader"
)

// SentimentScorer produces a polarity score in [-1,1] for a piece of text.
// Implementations must be safe for concurrent use and deterministic for a
// given input.
type SentimentScorer interface {
	// Score returns the polarity of text. An error means the backend could
	// not score this input; the caller defaults the field and continues.
	Score(text string) (float64, error)

	// Name identifies the scorer (for logs and diagnostics).
	Name() string
}

// VaderScorer scores text with the VADER lexicon/rule model. It is the
// default scorer: fully offline, no service dependency.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer constructs a VaderScorer with the stock VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the VADER compound score, already normalized to [-1,1].
func (s *VaderScorer) Score(text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return s.analyzer.PolarityScores(text).Compound, nil
}

// Name implements SentimentScorer.
func (s *VaderScorer) Name() string { return "vader" }

// LexiconScorer is the heuristic fallback: mean polarity of lexicon hits.
// Words outside the lexicon contribute nothing; a message with no hits
// scores 0 (neutral).
type LexiconScorer struct{}

// NewLexiconScorer constructs the fallback scorer.
func NewLexiconScorer() *LexiconScorer { return &LexiconScorer{} }

// Score returns the mean polarity over lexicon hits in text.
func (LexiconScorer) Score(text string) (float64, error) {
	words := Tokenize(text)
	if len(words) == 0 {
		return 0, nil
	}
	var sum float64
	hits := 0
	for _, w := range words {
		if v, ok := fallbackPolarity[w]; ok {
			sum += v
			hits++
		}
	}
	if hits == 0 {
		return 0, nil
	}
	return sum / float64(hits), nil
}

// Name implements SentimentScorer.
func (LexiconScorer) Name() string { return "lexicon" }
