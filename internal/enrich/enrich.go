// Package enrich derives per-message and per-conversation metadata from raw
// conversation text: sentiment, emotional intensity, complexity, key phrases,
// breakthrough flags, themes, importance, and temporal segments.
//
// Design notes:
//   - Everything is computed from fixed keyword/heuristic tables plus the
//     injected SentimentScorer; enrichment needs no network access.
//   - No logging in the library (callers decide how/what to log).
//   - Deterministic: re-running enrichment on unchanged input produces an
//     identical result, including the breakthrough set.
//   - A failure in one conversation never aborts the batch; the affected
//     fields keep their zero values and processing continues.
package enrich

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// Thresholds and weights for the derived scores. These are part of the
// enrichment contract; tests pin them.
const (
	breakthroughIntensityMin = 0.7
	breakthroughSentimentMin = 0.3

	maxKeyPhrases = 3
	maxKeyThemes  = 5
	themeScoreMin = 0.1

	summaryMaxRunes = 150
)

// wordRE extracts unicode word tokens (letters with optional trailing digits).
var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// Tokenize lowercases s and returns its word tokens. Stopwords are kept;
// callers that need filtering do it themselves.
func Tokenize(s string) []string {
	return wordRE.FindAllString(strings.ToLower(s), -1)
}

// CorpusStats carries document frequencies across the loaded conversation
// corpus so theme extraction uses real IDF instead of the degenerate
// single-document case.
type CorpusStats struct {
	DocCount int
	DocFreq  map[string]int
}

// BuildCorpusStats computes document frequencies over the concatenated text
// of each conversation.
func BuildCorpusStats(convs []*domain.Conversation) *CorpusStats {
	cs := &CorpusStats{DocFreq: make(map[string]int)}
	for _, c := range convs {
		if c == nil {
			continue
		}
		cs.DocCount++
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(fullText(c)) {
			if IsStopword(tok) {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			cs.DocFreq[tok]++
		}
	}
	return cs
}

// Enricher computes enrichment metadata using an injected sentiment scorer.
// The zero value is not usable; construct with NewEnricher.
type Enricher struct {
	scorer SentimentScorer
}

// NewEnricher returns an Enricher backed by the given scorer. A nil scorer
// falls back to the lexicon implementation.
func NewEnricher(s SentimentScorer) *Enricher {
	if s == nil {
		s = NewLexiconScorer()
	}
	return &Enricher{scorer: s}
}

// EnrichCorpus enriches every conversation in place. Conversations are
// processed independently: one failing never stops the rest. It returns the
// number of conversations that could not be fully enriched.
func (e *Enricher) EnrichCorpus(convs []*domain.Conversation) int {
	stats := BuildCorpusStats(convs)
	failed := 0
	for _, c := range convs {
		if c == nil {
			continue
		}
		if err := e.enrichOne(c, stats); err != nil {
			failed++
		}
	}
	return failed
}

// EnrichConversation enriches a single conversation in place. With a nil
// stats the theme weighting degrades to plain term frequency.
func (e *Enricher) EnrichConversation(c *domain.Conversation, stats *CorpusStats) {
	_ = e.enrichOne(c, stats)
}

// enrichOne does the actual work, converting panics from unexpected data
// shapes into an error so a single bad conversation cannot take down a batch.
func (e *Enricher) enrichOne(c *domain.Conversation, stats *CorpusStats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enrich conversation %s: %v", c.ID, r)
		}
	}()

	var (
		sentimentSum  float64
		complexitySum float64
		intensitySum  float64
		totalWords    int
		breakthroughs []int
	)

	for i := range c.Messages {
		m := &c.Messages[i]
		e.EnrichMessage(m)
		sentimentSum += m.Meta.SentimentScore
		complexitySum += m.Meta.ComplexityScore
		intensitySum += m.Meta.EmotionalIntensity
		totalWords += m.Meta.WordCount
		if isBreakthrough(m.Content, m.Meta.EmotionalIntensity, m.Meta.SentimentScore) {
			breakthroughs = append(breakthroughs, i)
		}
	}

	n := len(c.Messages)
	meta := domain.ConversationMeta{
		Summary:             summarize(c),
		KeyThemes:           keyThemes(fullText(c), stats),
		BreakthroughMoments: breakthroughs,
		TemporalSegments:    temporalSegments(c.Messages),
	}
	if n > 0 {
		meta.SentimentTrend = sentimentSum / float64(n)
		meta.ImportanceScore = importanceScore(
			totalWords,
			complexitySum/float64(n),
			len(breakthroughs),
			intensitySum/float64(n),
		)
	}
	if len(meta.KeyThemes) > 0 {
		meta.TopicCluster = meta.KeyThemes[0]
	}
	c.Meta = meta
	return nil
}

// EnrichMessage computes and stores the per-message metadata. A scorer
// failure leaves the sentiment at its zero value and keeps going.
func (e *Enricher) EnrichMessage(m *domain.Message) {
	score, err := e.scorer.Score(m.Content)
	if err != nil {
		score = 0
	}
	m.Meta = domain.MessageMeta{
		SentimentScore:     score,
		SentimentLabel:     domain.SentimentLabel(score),
		Entities:           messageEntities(m.Content),
		KeyPhrases:         keyPhrases(m.Content),
		WordCount:          len(strings.Fields(m.Content)),
		ComplexityScore:    complexityScore(m.Content),
		EmotionalIntensity: emotionalIntensity(m.Content),
	}
}

// complexityScore is 0.6 x mean word length + 0.4 x mean sentence length
// (in words), over text split on whitespace and periods. Empty text scores 0.
func complexityScore(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	var runeSum int
	for _, w := range words {
		runeSum += len([]rune(w))
	}
	meanWordLen := float64(runeSum) / float64(len(words))

	sentences := 0
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	meanSentLen := float64(len(words)) / float64(sentences)

	return 0.6*meanWordLen + 0.4*meanSentLen
}

// emotionalIntensity sums lexicon weights (3.0 intense / 2.0 moderate /
// 1.0 mild) over the message words, normalizes by word count, and clamps
// to [0,1].
func emotionalIntensity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	var score float64
	for _, tok := range Tokenize(text) {
		switch {
		case contains(intenseWords, tok):
			score += 3.0
		case contains(moderateWords, tok):
			score += 2.0
		case contains(mildWords, tok):
			score += 1.0
		}
	}
	return clamp01(score / float64(len(words)))
}

// isBreakthrough flags a realization either by phrase match or by the
// high-intensity/positive-sentiment combination. The two conditions are an
// OR: either alone qualifies.
func isBreakthrough(text string, intensity, sentiment float64) bool {
	lower := strings.ToLower(text)
	for _, p := range breakthroughPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return intensity > breakthroughIntensityMin && sentiment > breakthroughSentimentMin
}

// keyPhrases returns up to 3 frequent non-stopword tokens (length >= 4),
// ranked by frequency with first occurrence breaking ties.
func keyPhrases(text string) []string {
	toks := Tokenize(text)
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, t := range toks {
		if IsStopword(t) || len([]rune(t)) < 4 {
			continue
		}
		if _, ok := first[t]; !ok {
			first[t] = i
		}
		counts[t]++
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(a, b int) bool {
		if counts[terms[a]] != counts[terms[b]] {
			return counts[terms[a]] > counts[terms[b]]
		}
		return first[terms[a]] < first[terms[b]]
	})
	if len(terms) > maxKeyPhrases {
		terms = terms[:maxKeyPhrases]
	}
	return terms
}

// messageEntities returns the typed tags whose term list matches the text,
// in table order.
func messageEntities(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, row := range messageEntityTable {
		for _, term := range row.Terms {
			if strings.Contains(lower, term) {
				tags = append(tags, row.Tag)
				break
			}
		}
	}
	return tags
}

// keyThemes runs TF-IDF over the conversation's concatenated text against the
// corpus statistics, normalizes scores to the top term, and keeps up to 5
// terms scoring above the threshold. With no corpus stats the IDF factor is
// constant and the ranking degrades to term frequency.
func keyThemes(text string, stats *CorpusStats) []string {
	toks := Tokenize(text)
	counts := make(map[string]int)
	total := 0
	for _, t := range toks {
		if IsStopword(t) || len([]rune(t)) < 3 {
			continue
		}
		counts[t]++
		total++
	}
	if total == 0 {
		return nil
	}

	scores := make(map[string]float64, len(counts))
	maxScore := 0.0
	for term, c := range counts {
		tf := float64(c) / float64(total)
		idf := 1.0
		if stats != nil && stats.DocCount > 0 {
			df := stats.DocFreq[term]
			idf = math.Log(float64(1+stats.DocCount)/float64(1+df)) + 1
		}
		s := tf * idf
		scores[term] = s
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return nil
	}

	terms := make([]string, 0, len(scores))
	for term, s := range scores {
		if s/maxScore > themeScoreMin {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(a, b int) bool {
		if scores[terms[a]] != scores[terms[b]] {
			return scores[terms[a]] > scores[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if len(terms) > maxKeyThemes {
		terms = terms[:maxKeyThemes]
	}
	return terms
}

// importanceScore blends length, complexity, breakthrough count and emotional
// engagement into [0,1]:
//
//	0.3*min(words/1000,1) + 0.2*min(complexity/10,1)
//	+ 0.3*min(breakthroughs/3,1) + 0.2*avgIntensity
func importanceScore(totalWords int, avgComplexity float64, breakthroughs int, avgIntensity float64) float64 {
	s := 0.3*math.Min(float64(totalWords)/1000.0, 1) +
		0.2*math.Min(avgComplexity/10.0, 1) +
		0.3*math.Min(float64(breakthroughs)/3.0, 1) +
		0.2*avgIntensity
	return clamp01(s)
}

// temporalSegments splits the messages into up to three chronological chunks
// of size n/3 (minimum 1); the final chunk absorbs the remainder. Small
// conversations therefore produce fewer than three segments.
func temporalSegments(msgs []domain.Message) []domain.TemporalSegment {
	n := len(msgs)
	if n == 0 {
		return nil
	}
	size := n / 3
	if size == 0 {
		size = 1
	}

	var segs []domain.TemporalSegment
	start := 0
	for k := 0; k < 3 && start < n; k++ {
		end := start + size
		if k == 2 || end > n {
			end = n
		}
		var sentSum float64
		words := 0
		for i := start; i < end; i++ {
			sentSum += msgs[i].Meta.SentimentScore
			words += msgs[i].Meta.WordCount
		}
		seg := domain.TemporalSegment{
			StartIndex:   start,
			EndIndex:     end - 1,
			MessageCount: end - start,
			TotalWords:   words,
		}
		if seg.MessageCount > 0 {
			seg.AvgSentiment = sentSum / float64(seg.MessageCount)
		}
		segs = append(segs, seg)
		start = end
	}
	return segs
}

// summarize builds the conversation summary: the first user message clipped
// to a readable length, falling back to the first message of any role.
func summarize(c *domain.Conversation) string {
	var src string
	for i := range c.Messages {
		if c.Messages[i].Role == domain.RoleUser {
			src = c.Messages[i].Content
			break
		}
	}
	if src == "" && len(c.Messages) > 0 {
		src = c.Messages[0].Content
	}
	src = strings.TrimSpace(src)
	runes := []rune(src)
	if len(runes) > summaryMaxRunes {
		return string(runes[:summaryMaxRunes]) + "..."
	}
	return src
}

// fullText concatenates title and message contents for theme extraction.
func fullText(c *domain.Conversation) string {
	var b strings.Builder
	b.WriteString(c.Title)
	for i := range c.Messages {
		b.WriteByte(' ')
		b.WriteString(c.Messages[i].Content)
	}
	return b.String()
}

func contains(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
