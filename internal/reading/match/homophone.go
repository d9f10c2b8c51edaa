package match

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HomophoneTable holds equivalence classes of tokens that sound identical
// but are spelled differently, including digit/word pairs ("2"/"to").
// Membership lookup is O(1) via a word → class-set map.
//
// The table is read-only after construction and safe for concurrent use.
type HomophoneTable struct {
	byWord map[string][]int
}

// NewHomophoneTable builds a table from equivalence classes. Class entries
// are lowercased; a word may belong to several classes ("read" pairs with
// both "red" and "reed").
func NewHomophoneTable(classes [][]string) *HomophoneTable {
	byWord := make(map[string][]int)
	for i, class := range classes {
		for _, w := range class {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			byWord[w] = append(byWord[w], i)
		}
	}
	return &HomophoneTable{byWord: byWord}
}

// Same reports whether a and b share at least one equivalence class.
func (t *HomophoneTable) Same(a, b string) bool {
	ca, ok := t.byWord[a]
	if !ok {
		return false
	}
	cb, ok := t.byWord[b]
	if !ok {
		return false
	}
	for _, x := range ca {
		for _, y := range cb {
			if x == y {
				return true
			}
		}
	}
	return false
}

// tableFile is the YAML schema for a locale homophone table.
//
// Example:
//
//	classes:
//	  - [to, too, two, "2"]
//	  - [for, four, fore, "4"]
type tableFile struct {
	Classes [][]string `yaml:"classes"`
}

// LoadTable reads a homophone table from a YAML file, letting locales ship
// their own equivalence classes without touching the matcher.
func LoadTable(path string) (*HomophoneTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("match: open homophone table %q: %w", path, err)
	}
	defer f.Close()

	t, err := LoadTableFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("match: parse homophone table %q: %w", path, err)
	}
	return t, nil
}

// LoadTableFromReader parses a homophone table from YAML.
func LoadTableFromReader(r io.Reader) (*HomophoneTable, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("match: decode homophone yaml: %w", err)
	}
	return NewHomophoneTable(tf.Classes), nil
}

// DefaultEnglish returns the built-in English homophone table. It covers the
// confusions on-device recognizers produce most often for early readers:
// number words transcribed as digits, and the classic spelling pairs.
func DefaultEnglish() *HomophoneTable {
	return NewHomophoneTable([][]string{
		{"to", "too", "two", "2"},
		{"for", "four", "fore", "4"},
		{"one", "won", "1"},
		{"ate", "eight", "8"},
		{"there", "their", "they're"},
		{"your", "you're"},
		{"its", "it's"},
		{"by", "buy", "bye"},
		{"no", "know"},
		{"new", "knew"},
		{"night", "knight"},
		{"right", "write"},
		{"see", "sea"},
		{"be", "bee"},
		{"hear", "here"},
		{"our", "hour"},
		{"would", "wood"},
		{"blue", "blew"},
		{"sun", "son"},
		{"meat", "meet"},
		{"tail", "tale"},
		{"plain", "plane"},
		{"pair", "pear", "pare"},
		{"week", "weak"},
		{"whole", "hole"},
		{"dear", "deer"},
		{"flower", "flour"},
		{"read", "red"},
		{"read", "reed"},
		{"sew", "so"},
		{"eye", "i"},
		{"oh", "0", "zero"},
	})
}
