package ranking

import (
	"math"
	"time"

	"ArticlesDigest/internal/domain"
)

const (
	pointsPerTopic = 20
	maxTopicPoints = 80
	maxRecency     = 20
	recencyDecay   = 0.05
)

// Score combines topic matches and recency into a relevance score.
// The sum is intentionally not clamped: future-dated items get recency above 20,
// so an item with four or more topics can exceed 100.
func Score(item domain.SummarizedItem, matched []string, now time.Time) float64 {
	topicScore := float64(min(len(matched)*pointsPerTopic, maxTopicPoints))

	ageInDays := float64(now.Sub(item.PublishedAt)) / float64(24*time.Hour)
	recency := maxRecency * math.Exp(-recencyDecay*ageInDays)

	return topicScore + recency
}
