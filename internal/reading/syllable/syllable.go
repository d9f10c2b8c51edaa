// Package syllable estimates syllable counts for English words.
//
// The estimate decides how many trailing words of a sentence form the
// reading target: short function words ("it", "the") make unreliable
// one-word recognition targets, so single-syllable endings get a second
// word prepended. The heuristic does not need to be linguistically perfect,
// only consistent enough to separate those short words from longer content
// words.
package syllable

import "strings"

// vowels are the letters that open a vowel group, y included ("rhythm",
// "happy").
const vowels = "aeiouy"

// Count estimates the syllable count of word. The result is always ≥ 1,
// even for empty or vowel-less input.
//
// Counting rule: one syllable per transition into a vowel group (a vowel not
// preceded by another vowel), minus one for a trailing silent 'e' when more
// than one group was found.
func Count(word string) int {
	w := strings.ToLower(word)

	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(w, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	return strings.ContainsRune(vowels, r)
}
