package audiocache_test

import (
	"testing"
	"time"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/audiocache"
)

func stamps(words ...string) []audiocache.WordStamp {
	out := make([]audiocache.WordStamp, len(words))
	for i, w := range words {
		out[i] = audiocache.WordStamp{Word: w, Offset: time.Duration(i) * 250 * time.Millisecond}
	}
	return out
}

func TestMemory_PutAndFind(t *testing.T) {
	t.Parallel()
	m := audiocache.NewMemory(0)
	m.PutWordTimestamps("The dog ran fast.", stamps("The", "dog", "ran", "fast."))

	offset, ok := m.FindWordTimestamp("The dog ran fast.", "ran")
	if !ok {
		t.Fatal("expected a hit for ran")
	}
	if offset != 500*time.Millisecond {
		t.Errorf("offset = %v, want 500ms", offset)
	}

	if _, ok := m.FindWordTimestamp("The dog ran fast.", "torch"); ok {
		t.Error("unknown word should miss")
	}
	if _, ok := m.FindWordTimestamp("unknown sentence", "ran"); ok {
		t.Error("unknown sentence should miss")
	}
}

func TestMemory_LookupIgnoresCaseAndPunctuation(t *testing.T) {
	t.Parallel()
	m := audiocache.NewMemory(0)
	m.PutWordTimestamps("She held the torch.", stamps("She", "held", "the", "torch."))

	for _, word := range []string{"torch", "torch.", "Torch", `"TORCH!"`} {
		offset, ok := m.FindWordTimestamp("She held the torch.", word)
		if !ok {
			t.Errorf("FindWordTimestamp(%q) missed", word)
			continue
		}
		if offset != 750*time.Millisecond {
			t.Errorf("FindWordTimestamp(%q) = %v, want 750ms", word, offset)
		}
	}
}

func TestMemory_RepeatedWordUsesFirstOccurrence(t *testing.T) {
	t.Parallel()
	m := audiocache.NewMemory(0)
	m.PutWordTimestamps("the cat and the dog", stamps("the", "cat", "and", "the", "dog"))

	offset, ok := m.FindWordTimestamp("the cat and the dog", "the")
	if !ok {
		t.Fatal("expected a hit")
	}
	if offset != 0 {
		t.Errorf("offset = %v, want the first occurrence at 0", offset)
	}
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	m := audiocache.NewMemory(2)
	m.PutWordTimestamps("one", stamps("one"))
	m.PutWordTimestamps("two", stamps("two"))

	// Touch "one" so "two" becomes the eviction candidate.
	if _, ok := m.FindWordTimestamp("one", "one"); !ok {
		t.Fatal("expected a hit for one")
	}

	m.PutWordTimestamps("three", stamps("three"))

	if _, ok := m.FindWordTimestamp("two", "two"); ok {
		t.Error("two should have been evicted")
	}
	if _, ok := m.FindWordTimestamp("one", "one"); !ok {
		t.Error("one should have survived")
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
}

func TestMemory_PutReplacesRow(t *testing.T) {
	t.Parallel()
	m := audiocache.NewMemory(0)
	m.PutWordTimestamps("s", stamps("old"))
	m.PutWordTimestamps("s", stamps("new"))

	if _, ok := m.FindWordTimestamp("s", "old"); ok {
		t.Error("replaced row should not retain old words")
	}
	if _, ok := m.FindWordTimestamp("s", "new"); !ok {
		t.Error("replaced row should expose new words")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMemory_EmptyStampsDeleteRow(t *testing.T) {
	t.Parallel()
	m := audiocache.NewMemory(0)
	m.PutWordTimestamps("s", stamps("word"))
	m.PutWordTimestamps("s", nil)

	if _, ok := m.FindWordTimestamp("s", "word"); ok {
		t.Error("row should be gone after storing empty timing")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}
