// Package ranking scores summarized items against configured topics and
// selects a topic-diverse subset for the digest. Everything here is pure:
// no I/O, no logging, no state shared between calls.
package ranking

import (
	"strings"
	"unicode/utf8"

	"ArticlesDigest/internal/domain"
)

const (
	// minWordLen excludes stopwords and short tokens from partial matching.
	// Length is counted in characters.
	minWordLen = 3

	// Partial multi-word matches need 7 of every 10 qualifying words.
	partialNum = 7
	partialDen = 10
)

// MatchTopics returns the topics found in content, which must already be lowercase.
// Topics keep their original casing and come back in input order.
func MatchTopics(content string, topics []string) []string {
	var matched []string
	for _, topic := range topics {
		if topicMatches(content, strings.ToLower(topic)) {
			matched = append(matched, topic)
		}
	}
	return matched
}

// Blank topics never match; config validation rejects them before they get here.
func topicMatches(content, topic string) bool {
	if strings.TrimSpace(topic) == "" {
		return false
	}
	if strings.Contains(content, topic) {
		return true
	}

	words := strings.Fields(topic)
	if len(words) < 2 {
		return false
	}

	var qualifying, found int
	for _, w := range words {
		if utf8.RuneCountInString(w) <= minWordLen {
			continue
		}
		qualifying++
		if strings.Contains(content, w) {
			found++
		}
	}
	if qualifying == 0 {
		return false
	}
	return found*partialDen >= qualifying*partialNum
}

// MatchContent builds the lowercase text an item is matched against.
func MatchContent(item domain.SummarizedItem) string {
	return strings.ToLower(item.Title + " " + item.Summary + " " + item.Body)
}
