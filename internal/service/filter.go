package service

import (
	"regexp"
	"strings"
	"unicode"

	"ravewall/internal/model"
)

// MinRelevantTextLength is the shortest message the relevance filter accepts.
const MinRelevantTextLength = 10

// positiveWords is the fixed sentiment vocabulary. A comment must contain at
// least one of these (case-insensitive substring) to be kept.
var positiveWords = []string{
	"love", "amazing", "great", "awesome", "excellent", "perfect", "best",
	"fantastic", "wonderful", "incredible", "beautiful", "helpful",
	"recommend", "quality", "impressed", "satisfied", "happy", "brilliant",
	"outstanding", "thanks",
}

// spamPatterns match common engagement-bait word pairs with anything between.
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)follow.*back`),
	regexp.MustCompile(`(?i)check.*bio`),
	regexp.MustCompile(`(?i)dm.*me`),
	regexp.MustCompile(`(?i)click.*link`),
	regexp.MustCompile(`(?i)buy.*now`),
	regexp.MustCompile(`(?i)free.*money`),
}

// emojiRanges are the Unicode blocks treated as emoji by the emoji-only check.
var emojiRanges = [][2]rune{
	{0x1F000, 0x1FAFF}, // pictographs, emoticons, transport, supplemental
	{0x2600, 0x27BF},   // misc symbols and dingbats
	{0x2B00, 0x2BFF},   // misc symbols and arrows (stars)
	{0xFE00, 0xFE0F},   // variation selectors
	{0x200D, 0x200D},   // zero-width joiner
	{0x203C, 0x2049},   // double punctuation used in emoji sequences
}

// PassesRelevanceFilter applies the heuristic keep/reject pass to one
// normalized comment. A comment is kept only when it is long enough, is not
// emoji-only, contains at least one positive word, matches no spam pattern,
// and has a positive like count.
//
// The like-count requirement means sources whose schema omits counts (which
// the normalizer defaults to 0) are rejected wholesale when the filter is on.
func PassesRelevanceFilter(c model.NormalizedComment) bool {
	text := c.Text

	if len([]rune(text)) < MinRelevantTextLength {
		return false
	}

	if isEmojiOnly(text) {
		return false
	}

	lower := strings.ToLower(text)
	hasPositive := false
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			hasPositive = true
			break
		}
	}
	if !hasPositive {
		return false
	}

	for _, pattern := range spamPatterns {
		if pattern.MatchString(text) {
			return false
		}
	}

	return c.LikeCount > 0
}

// FilterComments returns the subset of comments judged worth keeping.
func FilterComments(comments []model.NormalizedComment) []model.NormalizedComment {
	kept := make([]model.NormalizedComment, 0, len(comments))
	for _, c := range comments {
		if PassesRelevanceFilter(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

// isEmojiOnly reports whether the text consists solely of emoji and
// whitespace. Empty text does not count as emoji-only.
func isEmojiOnly(text string) bool {
	sawEmoji := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if !isEmojiRune(r) {
			return false
		}
		sawEmoji = true
	}
	return sawEmoji
}

func isEmojiRune(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}
