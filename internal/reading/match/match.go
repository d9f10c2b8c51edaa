// Package match judges whether a set of speech-recognition hypotheses is an
// acceptable reading of a target phrase.
//
// Recognizers routinely substitute homophones, split one word into two, and
// mis-transcribe phonetically similar words — especially with a child's
// voice. A single exact-string test would reject the large majority of
// genuinely correct readings, so the matcher layers four increasingly
// tolerant token comparisons (exact, homophone class, stem containment,
// Double Metaphone) under a backtracking aligner that can glue mis-split
// tokens back together.
package match

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// sentencePunct is the punctuation stripped during token normalization.
// Kept identical to the span extractor's set so both agree on word shape.
const sentencePunct = `.!?,;:"'()[]`

// Verdict is the outcome of judging one listening attempt.
type Verdict struct {
	// Matched reports whether any hypothesis aligned with the target.
	Matched bool

	// Hypothesis is the first hypothesis that aligned. Empty on no match.
	Hypothesis string

	// Confidence is the Jaro-Winkler similarity between the matched
	// hypothesis and the target, for logs and metrics only — it never
	// influences Matched.
	Confidence float64
}

// Matcher judges hypotheses against target phrases. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	table *HomophoneTable
	coder PhoneticCoder
}

// Option configures a Matcher during construction.
type Option func(*Matcher)

// WithHomophones replaces the built-in English homophone table, e.g. with a
// locale table loaded via [LoadTable].
func WithHomophones(t *HomophoneTable) Option {
	return func(m *Matcher) {
		if t != nil {
			m.table = t
		}
	}
}

// WithPhoneticCoder replaces the Double Metaphone comparator.
func WithPhoneticCoder(c PhoneticCoder) Option {
	return func(m *Matcher) {
		if c != nil {
			m.coder = c
		}
	}
}

// New returns a Matcher with the built-in English homophone table and
// Double Metaphone coding, adjusted by the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		table: DefaultEnglish(),
		coder: DoubleMetaphone{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match judges the hypotheses against target. Hypotheses are tried in
// order; the attempt succeeds if any single hypothesis aligns.
func (m *Matcher) Match(hypotheses []string, target string) Verdict {
	targetTokens := Tokenize(target)
	if len(targetTokens) == 0 {
		return Verdict{}
	}

	for _, h := range hypotheses {
		spoken := Tokenize(h)
		if len(spoken) == 0 {
			continue
		}
		if m.align(spoken, targetTokens, 0, 0) {
			return Verdict{
				Matched:    true,
				Hypothesis: h,
				Confidence: matchr.JaroWinkler(
					strings.Join(spoken, " "),
					strings.Join(targetTokens, " "),
					false,
				),
			}
		}
	}
	return Verdict{}
}

// align is the backtracking aligner over (spokenIdx, targetIdx). Besides
// consuming one spoken token per target token, it may consume two
// consecutive spoken tokens as one (the recognizer split a word: "wounded"
// heard as "when did") and may skip a single leading spoken token before
// the first target token has matched (a filler before the real attempt).
// The skip is not permitted mid-phrase so real words are never silently
// discarded once matching has begun.
func (m *Matcher) align(spoken, target []string, si, ti int) bool {
	if ti == len(target) {
		return true
	}
	if si >= len(spoken) {
		return false
	}

	if m.tokenMatch(spoken[si], target[ti]) && m.align(spoken, target, si+1, ti+1) {
		return true
	}
	if si+1 < len(spoken) &&
		m.tokenMatch(spoken[si]+spoken[si+1], target[ti]) &&
		m.align(spoken, target, si+2, ti+1) {
		return true
	}
	if ti == 0 && m.align(spoken, target, si+1, ti) {
		return true
	}
	return false
}

// tokenMatch compares one spoken token against one target token. The check
// order (exact → homophone → containment → phonetic) mirrors the original
// engine; it is not semantically load-bearing but is preserved for
// behavioral compatibility.
func (m *Matcher) tokenMatch(spoken, target string) bool {
	if spoken == target {
		return true
	}
	if m.table.Same(spoken, target) {
		return true
	}
	// Stem containment: "forever" is accepted for the target "ever".
	if len(target) >= 3 && strings.Contains(spoken, target) {
		return true
	}
	return m.phoneticMatch(spoken, target)
}

// phoneticMatch compares primary and alternate codes of both words in all
// four combinations; any non-empty equal pair counts. Words shorter than
// four letters are never compared phonetically: their codes are too coarse
// to discriminate ("run" and "ran" share a code but are different words,
// and short-word confusions are the homophone table's job).
func (m *Matcher) phoneticMatch(spoken, target string) bool {
	if len(spoken) < 4 || len(target) < 4 {
		return false
	}
	sp, sa := m.coder.Encode(spoken)
	tp, ta := m.coder.Encode(target)

	for _, s := range [2]string{sp, sa} {
		if s == "" {
			continue
		}
		if s == tp || (ta != "" && s == ta) {
			return true
		}
	}
	return false
}

// Tokenize normalizes a phrase for matching: lowercase, hyphens treated as
// word separators ("wounded-stream" becomes two tokens), sentence
// punctuation stripped, empty tokens dropped.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")

	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, sentencePunct)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
