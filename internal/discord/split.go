package discord

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLength is Discord's hard cap on a single message, in characters.
const maxMessageLength = 2000

// SplitMessage breaks text into chunks that fit Discord's message limit,
// preferring to split at the last newline inside each chunk. Splits always
// land on rune boundaries.
func SplitMessage(text string) []string {
	if utf8.RuneCountInString(text) <= maxMessageLength {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		limit := byteLimit(text, maxMessageLength)
		if limit == len(text) {
			chunks = append(chunks, text)
			break
		}

		splitPos := strings.LastIndex(text[:limit], "\n")
		if splitPos <= 0 {
			splitPos = limit
		}

		chunks = append(chunks, text[:splitPos])
		text = strings.TrimLeft(text[splitPos:], "\n \t")
	}

	return chunks
}

// byteLimit returns the byte offset just past the first n runes of s, or
// len(s) when s holds fewer than n runes.
func byteLimit(s string, n int) int {
	seen := 0
	for i := range s {
		if seen == n {
			return i
		}
		seen++
	}
	return len(s)
}
