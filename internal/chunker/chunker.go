// Package chunker splits long text into sentence-respecting segments for
// embedding and storage.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxChars = 800
	DefaultOverlap  = 150
)

// sentenceEnd matches sentence-ending punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Default splits text with DefaultMaxChars and DefaultOverlap.
func Default(text string) []string {
	return Split(text, DefaultMaxChars, DefaultOverlap)
}

// Split greedily packs sentences into chunks of at most maxChars characters,
// joining sentences with a single space. When a chunk is full, the next one
// starts with the trailing sentences of the previous chunk whose combined
// length is at most overlap, provided they still fit alongside the new
// sentence. A sentence longer than maxChars forms its own chunk unsplit.
//
// Empty or whitespace-only text yields no chunks.
func Split(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	sentences := Sentences(text)
	if len(sentences) == 0 {
		return []string{}
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, s := range sentences {
		sLen := utf8.RuneCountInString(s)
		if len(current) == 0 {
			current, currentLen = []string{s}, sLen
			continue
		}
		if currentLen+1+sLen <= maxChars {
			current = append(current, s)
			currentLen += 1 + sLen
			continue
		}

		chunks = append(chunks, strings.Join(current, " "))
		current, currentLen = carryOver(current, overlap, maxChars-sLen-1)
		current = append(current, s)
		if currentLen == 0 {
			currentLen = sLen
		} else {
			currentLen += 1 + sLen
		}
	}
	chunks = append(chunks, strings.Join(current, " "))

	return chunks
}

// carryOver returns the longest suffix of sentences whose joined length is
// within both overlap and room.
func carryOver(sentences []string, overlap, room int) ([]string, int) {
	limit := min(overlap, room)
	if limit <= 0 {
		return nil, 0
	}

	start := len(sentences)
	total := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(sentences[i])
		if total > 0 {
			n++
		}
		if total+n > limit {
			break
		}
		total += n
		start = i
	}
	if start == len(sentences) {
		return nil, 0
	}

	carried := make([]string, len(sentences)-start)
	copy(carried, sentences[start:])
	return carried, total
}

// Sentences splits trimmed text after every '.', '!' or '?' that is
// followed by whitespace.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	prev := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		// Keep the punctuation, drop the whitespace.
		out = append(out, text[prev:loc[0]+1])
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}
