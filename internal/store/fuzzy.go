package store

import (
	"math"
	"sort"
	"strings"

	"github.com/Aman-CERP/ayatsearch/internal/normalize"
)

// minFieldDistance stands in for a zero distance in the weighted product,
// which would otherwise erase every other field. It is float64 machine
// epsilon.
const minFieldDistance = 2.220446049250313e-16

// Field identifies a searchable document field.
type Field int

const (
	FieldPrimary Field = iota
	FieldTransliteration
	FieldTranslation
	numFields
)

// String returns the field name used in config and logs.
func (f Field) String() string {
	switch f {
	case FieldPrimary:
		return "primary"
	case FieldTransliteration:
		return "transliteration"
	case FieldTranslation:
		return "translation"
	default:
		return "unknown"
	}
}

// FieldWeights sets how much each field contributes to the lexical score.
// Weights are relative; they are normalized to sum to 1.
type FieldWeights struct {
	Primary         float64 `yaml:"primary" json:"primary"`
	Transliteration float64 `yaml:"transliteration" json:"transliteration"`
	Translation     float64 `yaml:"translation" json:"translation"`
}

// LexicalConfig configures the fuzzy lexical index.
type LexicalConfig struct {
	// Fuzziness is the fraction of query runes that may be edited in a match.
	Fuzziness float64

	// MinMatchLength is the shortest query, in runes, that can match at all.
	MinMatchLength int

	// MinSimilarity drops results scoring below it.
	MinSimilarity float64

	Weights FieldWeights

	// FieldLengthNorm weakens matches in long fields by 1/sqrt(tokens).
	FieldLengthNorm bool
}

// DefaultLexicalConfig returns the tuned defaults.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		Fuzziness:       0.12,
		MinMatchLength:  3,
		MinSimilarity:   0.7,
		Weights:         FieldWeights{Primary: 0.9, Transliteration: 0.1, Translation: 0.05},
		FieldLengthNorm: true,
	}
}

type indexedField struct {
	text  string
	runes []rune
	norm  float64
}

type fuzzyEntry struct {
	id     int
	fields [numFields]indexedField
}

// FuzzyIndex scores documents by approximate substring matching over the
// normalized primary text, transliteration and translation.
//
// A field matches when the query is within Fuzziness edits of some substring
// of it. Matched fields combine as a weighted product of their edit ratios,
// so a perfect match in any field gives a strong score and an imperfect one
// decays faster the heavier the field. If the query occurs verbatim in the
// primary text the score is 1. FuzzyIndex is immutable and safe for
// concurrent use.
type FuzzyIndex struct {
	cfg     LexicalConfig
	norm    *normalize.Normalizer
	weights [numFields]float64
	entries []fuzzyEntry
}

// NewFuzzyIndex indexes docs. Field weights must not all be zero.
func NewFuzzyIndex(docs []NormalizedDocument, n *normalize.Normalizer, cfg LexicalConfig) *FuzzyIndex {
	idx := &FuzzyIndex{
		cfg:     cfg,
		norm:    n,
		entries: make([]fuzzyEntry, len(docs)),
	}

	raw := [numFields]float64{cfg.Weights.Primary, cfg.Weights.Transliteration, cfg.Weights.Translation}
	var total float64
	for _, w := range raw {
		total += w
	}
	for f, w := range raw {
		if total > 0 {
			idx.weights[f] = w / total
		}
	}

	for i, d := range docs {
		e := fuzzyEntry{id: d.ID}
		e.fields[FieldPrimary] = newIndexedField(strings.ToLower(d.Primary))
		e.fields[FieldTransliteration] = newIndexedField(d.Transliteration)
		e.fields[FieldTranslation] = newIndexedField(d.Translation)
		idx.entries[i] = e
	}
	return idx
}

func newIndexedField(text string) indexedField {
	tokens := len(strings.Fields(text))
	norm := 1.0
	if tokens > 1 {
		norm = 1 / math.Sqrt(float64(tokens))
	}
	return indexedField{text: text, runes: []rune(text), norm: norm}
}

// Len returns the number of indexed documents.
func (idx *FuzzyIndex) Len() int {
	return len(idx.entries)
}

// Search returns matching documents with similarity at or above
// MinSimilarity, best first; equal scores keep document order. A query that
// normalizes to nothing, or is shorter than MinMatchLength, matches nothing.
//
// A query that names disjointed letters is scored both as written and as
// the letter cluster, keeping the better score per document, so real words
// such as "حميم" still match verbatim. A cluster shorter than
// MinMatchLength matches only verses where it stands as a whole word.
func (idx *FuzzyIndex) Search(query string) []*LexicalResult {
	var variants []*matcher
	literal := strings.ToLower(idx.norm.NormalizeLiteral(query))
	if literal != "" && len([]rune(literal)) >= idx.cfg.MinMatchLength {
		variants = append(variants, newMatcher(literal, idx.cfg.Fuzziness))
	}
	var shortCluster string
	if cluster, ok := idx.norm.LetterCluster(query); ok && cluster != literal {
		if len([]rune(cluster)) >= idx.cfg.MinMatchLength {
			variants = append(variants, newMatcher(cluster, idx.cfg.Fuzziness))
		} else {
			shortCluster = cluster
		}
	}
	if len(variants) == 0 && shortCluster == "" {
		return nil
	}

	var results []*LexicalResult
	for i := range idx.entries {
		e := &idx.entries[i]

		score, matched := 0.0, false
		for _, m := range variants {
			if s, ok := idx.score(e, m); ok && (!matched || s > score) {
				score, matched = s, true
			}
		}
		if shortCluster != "" && hasWord(e.fields[FieldPrimary].text, shortCluster) {
			score, matched = 1, true
		}
		if !matched || score < idx.cfg.MinSimilarity {
			continue
		}
		results = append(results, &LexicalResult{DocID: e.id, Score: score})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return results
}

// score combines the field matches of one query form against e.
func (idx *FuzzyIndex) score(e *fuzzyEntry, m *matcher) (float64, bool) {
	patternLen := float64(len(m.pattern))

	distance := 1.0
	matched := false
	for f := Field(0); f < numFields; f++ {
		w := idx.weights[f]
		field := &e.fields[f]
		if w == 0 {
			continue
		}
		edits, ok := m.edits(field.text, field.runes)
		if !ok {
			continue
		}
		matched = true

		d := float64(edits) / patternLen
		if d < minFieldDistance {
			d = minFieldDistance
		}
		exp := w
		if idx.cfg.FieldLengthNorm {
			exp *= field.norm
		}
		distance *= math.Pow(d, exp)
	}
	if !matched {
		return 0, false
	}
	if strings.Contains(e.fields[FieldPrimary].text, m.query) {
		return 1, true
	}
	return clamp01(1 - distance), true
}

func hasWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if w == word {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
