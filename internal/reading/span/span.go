// Package span extracts the target span of a sentence: the trailing word or
// two the listener is asked to read aloud after the carrier has played.
package span

import (
	"strings"
	"unicode"

	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/syllable"
)

// sentencePunct is the punctuation stripped when normalizing a token for
// the syllable check. The same set is used by the matcher so the two stay
// consistent about what a "word" is.
const sentencePunct = `.!?,;:"'()[]`

// Target is the trailing phrase of a sentence selected for the listener to
// read, together with its byte range in the original sentence text.
// The range is half-open: Text[Start:End] == Phrase.
type Target struct {
	// Phrase is the literal text of the target span, punctuation included.
	Phrase string

	// Start and End delimit the span inside the original sentence text.
	Start int
	End   int
}

// IsZero reports whether t is the empty target.
func (t Target) IsZero() bool {
	return t.Phrase == "" && t.Start == 0 && t.End == 0
}

// FirstWord returns the first whitespace-delimited token of the phrase,
// punctuation intact. Empty when the target is empty.
func (t Target) FirstWord() string {
	fields := strings.Fields(t.Phrase)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Extract derives the target span from sentenceText.
//
// Rules:
//   - one token or fewer: the whole trimmed sentence is the target;
//   - the last token, normalized, is single-syllable: the last two tokens
//     (recognition of lone short words is unreliable); with exactly two
//     tokens that is again the whole sentence;
//   - otherwise: just the last token.
func Extract(sentenceText string) Target {
	trimmed := strings.TrimSpace(sentenceText)
	if trimmed == "" {
		return Target{}
	}

	leading := strings.IndexFunc(sentenceText, func(r rune) bool {
		return !unicode.IsSpace(r)
	})

	starts := tokenStarts(trimmed)
	span := func(fromToken int) Target {
		start := starts[fromToken]
		return Target{
			Phrase: trimmed[start:],
			Start:  leading + start,
			End:    leading + len(trimmed),
		}
	}

	if len(starts) <= 1 {
		return span(0)
	}

	lastWord := Normalize(trimmed[starts[len(starts)-1]:])
	if syllable.Count(lastWord) == 1 {
		// Extend to the last two tokens; with exactly two tokens this is
		// the whole sentence.
		return span(len(starts) - 2)
	}
	return span(len(starts) - 1)
}

// Normalize lowercases a token and strips sentence punctuation, yielding
// the bare word used for syllable counting and cache lookups.
func Normalize(token string) string {
	return strings.ToLower(strings.Trim(token, sentencePunct))
}

// tokenStarts returns the byte offset of each whitespace-delimited token in
// s. s must not have leading or trailing whitespace.
func tokenStarts(s string) []int {
	var starts []int
	inToken := false
	for i, r := range s {
		if unicode.IsSpace(r) {
			inToken = false
			continue
		}
		if !inToken {
			starts = append(starts, i)
			inToken = true
		}
	}
	return starts
}
