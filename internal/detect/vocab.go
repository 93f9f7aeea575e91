package detect

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed vocab.yaml
var vocabYAML []byte

// LoreEntry holds the curated search material for one well-known alpha.
type LoreEntry struct {
	Symbol   string   `yaml:"symbol"`
	Terms    []string `yaml:"terms"`
	Concepts []string `yaml:"concepts"`
}

// Vocabulary is the curated derivation table the lexical detectors draw
// from: ticker affixes, opposite/companion maps, description stop words
// and the per-alpha lore entries.
type Vocabulary struct {
	Prefixes   []string          `yaml:"prefixes"`
	Suffixes   []string          `yaml:"suffixes"`
	Opposites  map[string]string `yaml:"opposites"`
	Companions map[string]string `yaml:"companions"`
	Stopwords  []string          `yaml:"stopwords"`
	Lore       []LoreEntry       `yaml:"lore"`

	stopSet map[string]struct{}
	loreIdx map[string]LoreEntry
}

// DefaultVocabulary loads the embedded table.
func DefaultVocabulary() (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(vocabYAML, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	v.index()
	return &v, nil
}

func (v *Vocabulary) index() {
	v.stopSet = make(map[string]struct{}, len(v.Stopwords))
	for _, w := range v.Stopwords {
		v.stopSet[strings.ToLower(w)] = struct{}{}
	}
	v.loreIdx = make(map[string]LoreEntry, len(v.Lore))
	for _, e := range v.Lore {
		v.loreIdx[strings.ToUpper(e.Symbol)] = e
	}
}

// IsStopword reports whether a lowercase word carries no search value.
func (v *Vocabulary) IsStopword(word string) bool {
	_, ok := v.stopSet[strings.ToLower(word)]
	return ok
}

// LoreFor returns the curated entry for a symbol, if one exists.
func (v *Vocabulary) LoreFor(symbol string) (LoreEntry, bool) {
	e, ok := v.loreIdx[strings.ToUpper(symbol)]
	return e, ok
}

// Decompose strips known affixes from a compound ticker and returns the
// base terms it appears to be built from. "WIFCAT" yields ["wif"] via
// the "cat" suffix; unknown symbols yield nothing.
func (v *Vocabulary) Decompose(symbol string) []string {
	s := strings.ToLower(symbol)
	var out []string
	for _, p := range v.Prefixes {
		if rest, ok := strings.CutPrefix(s, strings.ToLower(p)); ok && len(rest) >= 2 {
			out = append(out, rest)
		}
	}
	for _, suf := range v.Suffixes {
		if rest, ok := strings.CutSuffix(s, strings.ToLower(suf)); ok && len(rest) >= 2 {
			out = append(out, rest)
		}
	}
	return dedupeStrings(out)
}

// SegmentCamelCase splits a display name like "DogWifCat" into its
// lowercase word runs. Names without case transitions yield nothing.
func SegmentCamelCase(name string) []string {
	var segments []string
	var cur []rune
	flush := func() {
		if len(cur) >= 3 {
			segments = append(segments, strings.ToLower(string(cur)))
		}
		cur = cur[:0]
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 && unicode.IsLower(cur[len(cur)-1]) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	if len(segments) < 2 {
		return nil // a single run is just the name itself
	}
	return segments
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
