package ranking

import (
	"cmp"
	"slices"

	"ArticlesDigest/internal/domain"
)

// Select picks up to maxItems items round-robin across topic groups, at most
// maxPerTopic rounds, skipping items already taken through another topic.
// groups maps topic names to indices into items (see GroupByTopic) and is not modified.
// The result is ordered by score descending.
func Select(items []domain.RankedItem, groups map[string][]int, maxItems, maxPerTopic int) []domain.RankedItem {
	byScore := func(a, b int) int {
		return compareRanked(items, a, b)
	}

	sorted := make(map[string][]int, len(groups))
	topics := make([]string, 0, len(groups))
	for topic, idx := range groups {
		s := slices.Clone(idx)
		slices.SortStableFunc(s, byScore)
		sorted[topic] = s
		topics = append(topics, topic)
	}

	slices.SortFunc(topics, func(a, b string) int {
		if c := cmp.Compare(topScore(items, sorted[b]), topScore(items, sorted[a])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	var (
		picked []int
		seen   = make(map[string]struct{})
	)

rounds:
	for round := 0; round < maxPerTopic; round++ {
		for _, topic := range topics {
			if len(picked) >= maxItems {
				break rounds
			}
			group := sorted[topic]
			if round >= len(group) {
				continue
			}
			idx := group[round]
			if _, ok := seen[items[idx].ID]; ok {
				continue
			}
			seen[items[idx].ID] = struct{}{}
			picked = append(picked, idx)
		}
	}

	slices.SortStableFunc(picked, byScore)

	selected := make([]domain.RankedItem, 0, len(picked))
	for _, idx := range picked {
		selected = append(selected, items[idx])
	}
	return selected
}

// compareRanked orders by score descending, then ID, then position.
func compareRanked(items []domain.RankedItem, a, b int) int {
	if c := cmp.Compare(items[b].Score, items[a].Score); c != 0 {
		return c
	}
	if c := cmp.Compare(items[a].ID, items[b].ID); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func topScore(items []domain.RankedItem, group []int) float64 {
	if len(group) == 0 {
		return 0
	}
	return items[group[0]].Score
}
