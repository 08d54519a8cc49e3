package ranking

import (
	"math"
	"testing"
	"time"

	"ArticlesDigest/internal/domain"
)

const tolerance = 1e-9

func itemAt(published time.Time) domain.SummarizedItem {
	return domain.SummarizedItem{Item: domain.Item{ID: "x", PublishedAt: published}}
}

func TestScore(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published time.Time
		matched   []string
		want      float64
	}{
		{name: "fresh without topics", published: now, want: 20},
		{name: "one topic ten days old", published: now.Add(-240 * time.Hour), matched: []string{"ai"}, want: 20 + 20*math.Exp(-0.5)},
		{name: "topic points saturate", published: now, matched: []string{"a", "b", "c", "d", "e"}, want: 100},
		{name: "fractional age", published: now.Add(-12 * time.Hour), matched: []string{"a", "b"}, want: 40 + 20*math.Exp(-0.025)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Score(itemAt(tt.published), tt.matched, now)
			if math.Abs(got-tt.want) > tolerance {
				t.Fatalf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreFutureItemIsNotClamped(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)
	future := itemAt(now.Add(time.Hour))

	recency := Score(future, nil, now)
	if recency <= 20 {
		t.Fatalf("expected recency above 20 for a future item, got %v", recency)
	}

	total := Score(future, []string{"a", "b", "c", "d"}, now)
	if total <= 100 {
		t.Fatalf("expected total above 100, got %v", total)
	}
	if math.Abs(total-(80+recency)) > tolerance {
		t.Fatalf("expected total %v, got %v", 80+recency, total)
	}
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)
	ages := []time.Duration{0, time.Minute, 36 * time.Hour, 400 * 24 * time.Hour, 100 * 365 * 24 * time.Hour}

	for _, age := range ages {
		item := itemAt(now.Add(-age))
		got := Score(item, nil, now)
		if got < 0 {
			t.Fatalf("negative score %v for age %v", got, age)
		}
		if got > 20.000001 {
			t.Fatalf("score %v above recency cap for age %v", got, age)
		}
		if again := Score(item, nil, now); again != got {
			t.Fatalf("score not deterministic: %v then %v", got, again)
		}
	}

	if got := Score(itemAt(time.Time{}), nil, now); got < 0 {
		t.Fatalf("negative score for zero timestamp: %v", got)
	}
}
