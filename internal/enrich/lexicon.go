// Package enrich – fixed lexicons.
//
// All enrichment heuristics are driven by the tables in this file. They are
// deliberately plain data: deterministic input → deterministic metadata, with
// no network access required.
package enrich

// Emotional-intensity lexicons. A word contributes 3.0 (intense), 2.0
// (moderate) or 1.0 (mild) to the raw intensity sum; the sum is normalized by
// word count and clamped to [0,1].
var (
	intenseWords = map[string]struct{}{
		"amazing": {}, "incredible": {}, "devastated": {}, "thrilled": {},
		"terrified": {}, "ecstatic": {}, "furious": {}, "overwhelmed": {},
		"heartbroken": {}, "exhilarated": {}, "desperate": {}, "euphoric": {},
		"breakthrough": {}, "transformed": {}, "shattered": {}, "elated": {},
	}
	moderateWords = map[string]struct{}{
		"happy": {}, "sad": {}, "angry": {}, "excited": {}, "worried": {},
		"anxious": {}, "frustrated": {}, "grateful": {}, "proud": {},
		"disappointed": {}, "hopeful": {}, "scared": {}, "confident": {},
		"stressed": {}, "relieved": {}, "inspired": {},
	}
	mildWords = map[string]struct{}{
		"good": {}, "bad": {}, "nice": {}, "fine": {}, "okay": {},
		"pleased": {}, "concerned": {}, "curious": {}, "interested": {},
		"unsure": {}, "calm": {}, "tired": {}, "content": {}, "bothered": {},
	}
)

// breakthroughPhrases flags a message as a breakthrough moment when any of
// them appears in its lowercased text. The alternative trigger (intensity >
// 0.7 AND sentiment > 0.3) lives in the enricher.
var breakthroughPhrases = []string{
	"realized",
	"realised",
	"epiphany",
	"it clicked",
	"finally understood",
	"now i see",
	"aha moment",
	"breakthrough",
	"suddenly understood",
	"never thought of it that way",
	"eye-opening",
	"makes so much sense",
}

// messageEntityTable maps a typed tag to the terms that trigger it in a
// message. Order matters: tags are emitted in table order.
var messageEntityTable = []struct {
	Tag   string
	Terms []string
}{
	{"work", []string{"job", "career", "work", "boss", "colleague", "interview", "promotion", "office"}},
	{"relationships", []string{"relationship", "partner", "friend", "family", "boundaries", "marriage", "dating"}},
	{"health", []string{"health", "sleep", "exercise", "therapy", "anxiety", "stress", "meditation", "diet"}},
	{"learning", []string{"learn", "study", "course", "book", "skill", "practice", "reading"}},
	{"creativity", []string{"writing", "music", "art", "creative", "project", "design", "hobby"}},
	{"finance", []string{"money", "budget", "saving", "debt", "invest", "salary", "spending"}},
}

// fallbackPolarity is the tiny polarity lexicon used by LexiconScorer when no
// NLP backend is configured. Values are in [-1,1] per word; the message score
// is the mean over hits, so it stays inside the range by construction.
var fallbackPolarity = map[string]float64{
	// positive
	"love": 0.8, "great": 0.7, "good": 0.5, "happy": 0.7, "excited": 0.7,
	"wonderful": 0.8, "amazing": 0.9, "proud": 0.7, "grateful": 0.8,
	"better": 0.4, "progress": 0.5, "hopeful": 0.6, "calm": 0.4,
	"success": 0.7, "enjoy": 0.6, "confident": 0.6, "relieved": 0.5,
	// negative
	"hate": -0.8, "bad": -0.5, "sad": -0.6, "angry": -0.7, "terrible": -0.8,
	"awful": -0.8, "worried": -0.5, "anxious": -0.6, "stressed": -0.6,
	"worse": -0.5, "stuck": -0.4, "afraid": -0.6, "failure": -0.7,
	"tired": -0.3, "frustrated": -0.6, "lonely": -0.6, "hurt": -0.6,
}

// stopwords excluded from theme and key-phrase extraction. Shared with the
// search package through Stopwords().
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"been": {}, "but": {}, "by": {}, "can": {}, "could": {}, "did": {},
	"do": {}, "does": {}, "for": {}, "from": {}, "had": {}, "has": {},
	"have": {}, "he": {}, "her": {}, "his": {}, "how": {}, "i": {},
	"if": {}, "in": {}, "is": {}, "it": {}, "its": {}, "just": {},
	"like": {}, "me": {}, "my": {}, "no": {}, "not": {}, "of": {},
	"on": {}, "or": {}, "our": {}, "she": {}, "so": {}, "some": {},
	"than": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "they": {}, "this": {}, "to": {}, "up": {},
	"was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "which": {},
	"who": {}, "will": {}, "with": {}, "would": {}, "you": {}, "your": {},
	"about": {}, "also": {}, "am": {}, "because": {}, "being": {},
	"get": {}, "im": {}, "into": {}, "more": {}, "much": {}, "out": {},
	"really": {}, "very": {}, "youre": {},
}

// Stopwords returns the shared stopword set. The returned map must be treated
// as read-only.
func Stopwords() map[string]struct{} { return stopwords }

// IsStopword reports whether the lowercased token is in the stopword set.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
