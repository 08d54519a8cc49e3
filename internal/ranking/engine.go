package ranking

import (
	"errors"
	"fmt"
	"time"

	"ArticlesDigest/internal/domain"
)

// ErrInvalidQuota is returned by Quotas.Validate for non-positive limits.
var ErrInvalidQuota = errors.New("invalid selection quota")

// Quotas bounds the digest: MaxItems overall, MaxPerTopic rounds of fairness.
type Quotas struct {
	MaxItems    int
	MaxPerTopic int
}

// Validate must be checked by callers before Rank; Rank does not re-check.
func (q Quotas) Validate() error {
	if q.MaxItems <= 0 {
		return fmt.Errorf("%w: maxItems must be positive, got %d", ErrInvalidQuota, q.MaxItems)
	}
	if q.MaxPerTopic <= 0 {
		return fmt.Errorf("%w: maxPerTopic must be positive, got %d", ErrInvalidQuota, q.MaxPerTopic)
	}
	return nil
}

// ScoreItems matches and scores every item without selecting.
func ScoreItems(items []domain.SummarizedItem, topics []string, now time.Time) []domain.RankedItem {
	ranked := make([]domain.RankedItem, 0, len(items))
	for _, item := range items {
		matched := MatchTopics(MatchContent(item), topics)
		ranked = append(ranked, domain.RankedItem{
			SummarizedItem: item,
			Score:          Score(item, matched, now),
			MatchedTopics:  matched,
		})
	}
	return ranked
}

// Rank scores items against topics at instant now and returns the
// diversified selection in final display order.
func Rank(items []domain.SummarizedItem, topics []string, q Quotas, now time.Time) []domain.RankedItem {
	ranked := ScoreItems(items, topics, now)
	return Select(ranked, GroupByTopic(ranked), q.MaxItems, q.MaxPerTopic)
}
