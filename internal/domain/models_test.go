package domain

import "testing"

func TestSentimentLabel_Partition(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.5, SentimentPositive},
		{0.11, SentimentPositive},
		{0.1, SentimentNeutral}, // boundary is exclusive
		{0.0, SentimentNeutral},
		{-0.1, SentimentNeutral}, // boundary is exclusive
		{-0.11, SentimentNegative},
		{-0.9, SentimentNegative},
		{1.0, SentimentPositive},
		{-1.0, SentimentNegative},
	}
	for _, tc := range cases {
		if got := SentimentLabel(tc.score); got != tc.want {
			t.Fatalf("SentimentLabel(%v) = %q; want %q", tc.score, got, tc.want)
		}
	}
}
