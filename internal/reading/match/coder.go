package match

import "github.com/antzucaro/matchr"

// PhoneticCoder produces phonetic codes for a word. Implementations are
// pure and stateless so locales can swap in a different coding scheme
// without touching the matcher or the session state machine.
type PhoneticCoder interface {
	// Encode returns the primary and alternate phonetic codes of word.
	// Either may be empty when the word carries no codable sounds.
	Encode(word string) (primary, alternate string)
}

// DoubleMetaphone codes words with the Double Metaphone algorithm, the
// default comparator for English.
type DoubleMetaphone struct{}

var _ PhoneticCoder = DoubleMetaphone{}

// Encode returns the Double Metaphone primary and alternate codes.
func (DoubleMetaphone) Encode(word string) (string, string) {
	return matchr.DoubleMetaphone(word)
}
