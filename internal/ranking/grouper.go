package ranking

import "ArticlesDigest/internal/domain"

// OtherGroup collects items that matched no topic. It is always present.
const OtherGroup = "Other"

// GroupByTopic indexes items by matched topic. Values are indices into items,
// so an item matching several topics is shared between groups, not copied.
func GroupByTopic(items []domain.RankedItem) map[string][]int {
	groups := map[string][]int{OtherGroup: {}}
	for i, item := range items {
		if len(item.MatchedTopics) == 0 {
			groups[OtherGroup] = append(groups[OtherGroup], i)
			continue
		}
		for _, topic := range item.MatchedTopics {
			groups[topic] = append(groups[topic], i)
		}
	}
	return groups
}
