package audiocache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// defaultCapacity bounds how many sentences the in-memory index retains.
// A picture book page rarely holds more than a dozen sentences, so a few
// hundred covers several books' worth of revisits.
const defaultCapacity = 256

// Memory is an in-memory, least-recently-used Index. When capacity is
// exceeded the sentence that was looked up or stored longest ago is evicted.
type Memory struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recently used
	rows     map[string]*list.Element // sentence → element holding *row
}

// row pairs a sentence key with its word timing, plus a lowercased lookup
// map so repeated FindWordTimestamp calls stay O(1) per word.
type row struct {
	sentence string
	stamps   []WordStamp
	byWord   map[string]int // lowercased word → index into stamps
}

var _ Index = (*Memory)(nil)

// NewMemory creates a Memory index. capacity <= 0 selects the default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Memory{
		capacity: capacity,
		order:    list.New(),
		rows:     make(map[string]*list.Element, capacity),
	}
}

// FindWordTimestamp returns the offset of word inside sentence's cached
// audio. The word comparison is case-insensitive and ignores surrounding
// punctuation so that "fast." locates the stamp stored for "fast".
func (m *Memory) FindWordTimestamp(sentence, word string) (offset time.Duration, ok bool) {
	key := normalizeWord(word)
	if key == "" {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	el, found := m.rows[sentence]
	if !found {
		return 0, false
	}
	m.order.MoveToFront(el)

	r := el.Value.(*row)
	i, found := r.byWord[key]
	if !found {
		return 0, false
	}
	return r.stamps[i].Offset, true
}

// PutWordTimestamps replaces the timing row for sentence, evicting the
// least recently used row if the index is full.
func (m *Memory) PutWordTimestamps(sentence string, stamps []WordStamp) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, found := m.rows[sentence]; found {
		if len(stamps) == 0 {
			m.order.Remove(el)
			delete(m.rows, sentence)
			return
		}
		el.Value = newRow(sentence, stamps)
		m.order.MoveToFront(el)
		return
	}
	if len(stamps) == 0 {
		return
	}

	for m.order.Len() >= m.capacity {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.rows, oldest.Value.(*row).sentence)
	}
	m.rows[sentence] = m.order.PushFront(newRow(sentence, stamps))
}

// Len returns the number of cached sentences.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func newRow(sentence string, stamps []WordStamp) *row {
	copied := make([]WordStamp, len(stamps))
	copy(copied, stamps)
	byWord := make(map[string]int, len(copied))
	for i, s := range copied {
		key := normalizeWord(s.Word)
		if key == "" {
			continue
		}
		// Keep the first occurrence; carrier clipping always wants the
		// earliest position of a repeated word.
		if _, seen := byWord[key]; !seen {
			byWord[key] = i
		}
	}
	return &row{sentence: sentence, stamps: copied, byWord: byWord}
}

// normalizeWord lowercases and strips sentence punctuation from a word so
// lookups are insensitive to how the caller tokenized the sentence.
func normalizeWord(word string) string {
	return strings.ToLower(strings.Trim(word, `.!?,;:"'()[]`))
}
