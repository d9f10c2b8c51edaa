// Package textsource defines the TextSource capability contract: the
// collaborator that supplies the sentences a reading session walks through.
//
// How sentences are segmented from page text is outside this engine's
// responsibility — a Source is handed sentences that are already split.
package textsource

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Sentence is one unit of reading. Immutable once loaded.
type Sentence struct {
	// Text is the full sentence text, including punctuation.
	Text string

	// IsComplete reports whether the sentence ends in terminal punctuation.
	// Incomplete fragments (e.g. a line cut off by OCR) are still readable
	// but callers may choose to present them differently.
	IsComplete bool
}

// Source supplies sentences in reading order.
//
// Implementations must be safe for concurrent use.
type Source interface {
	// Current returns the sentence under the cursor. ok is false when the
	// source is exhausted.
	Current() (s Sentence, ok bool)

	// Advance moves the cursor to the next sentence. Returns false when
	// there is no next sentence; the cursor then stays past the end.
	Advance() bool

	// Reset moves the cursor back to the first sentence.
	Reset()
}

// Slice is a Source backed by an in-memory sentence slice.
type Slice struct {
	mu        sync.Mutex
	sentences []Sentence
	cursor    int
}

var _ Source = (*Slice)(nil)

// NewSlice creates a Source over the given sentences, preserving order.
func NewSlice(sentences []Sentence) *Slice {
	s := make([]Sentence, len(sentences))
	copy(s, sentences)
	return &Slice{sentences: s}
}

// FromStrings wraps plain strings as complete/incomplete sentences based on
// their trailing punctuation.
func FromStrings(texts []string) *Slice {
	sentences := make([]Sentence, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		sentences = append(sentences, Sentence{
			Text:       t,
			IsComplete: endsSentence(t),
		})
	}
	return NewSlice(sentences)
}

// LoadFile reads a book file with one sentence per non-blank line.
func LoadFile(path string) (*Slice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("textsource: open %q: %w", path, err)
	}
	defer f.Close()

	var texts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		texts = append(texts, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("textsource: read %q: %w", path, err)
	}
	return FromStrings(texts), nil
}

// Current returns the sentence under the cursor.
func (s *Slice) Current() (Sentence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.sentences) {
		return Sentence{}, false
	}
	return s.sentences[s.cursor], true
}

// Advance moves to the next sentence.
func (s *Slice) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.sentences) {
		return false
	}
	s.cursor++
	return s.cursor < len(s.sentences)
}

// Reset moves the cursor back to the first sentence.
func (s *Slice) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
}

// Len returns the total number of sentences.
func (s *Slice) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sentences)
}

// endsSentence reports whether t ends with terminal punctuation, ignoring a
// trailing closing quote or bracket.
func endsSentence(t string) bool {
	t = strings.TrimRight(t, `"')]`)
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
