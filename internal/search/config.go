package search

import (
	"fmt"
	"math"

	"github.com/Aman-CERP/ayatsearch/internal/embed"
	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/store"
)

// Vector backends.
const (
	BackendExact = "exact"
	BackendHNSW  = "hnsw"
)

// Fixed discounts applied to phrase scores. They are part of the ranking
// model, not tuning knobs.
const (
	lexicalDiscount  = 0.9
	semanticDiscount = 0.5
)

// Config holds every tunable of the engine.
type Config struct {
	// Fuzziness is the fraction of query runes that may be edited in a
	// lexical match.
	Fuzziness float64 `yaml:"fuzziness" json:"fuzziness"`

	// MinMatchLength is the shortest normalized query, in runes, that can
	// match lexically.
	MinMatchLength int `yaml:"min_match_length" json:"min_match_length"`

	// MinSimilarity is the lexical index's own result floor.
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity"`

	// FieldWeights are the relative weights of the primary text,
	// transliteration and translation.
	FieldWeights store.FieldWeights `yaml:"field_weights" json:"field_weights"`

	// FieldLengthNorm weakens matches in long fields.
	FieldLengthNorm bool `yaml:"field_length_norm" json:"field_length_norm"`

	// LexicalConfidence is the lexical score at which a phrase result is
	// scored lexically.
	LexicalConfidence float64 `yaml:"lexical_confidence" json:"lexical_confidence"`

	// SemanticConfidence is the semantic score at which a phrase result
	// without lexical confidence is scored semantically.
	SemanticConfidence float64 `yaml:"semantic_confidence" json:"semantic_confidence"`

	// AcceptanceThreshold drops results whose hybrid score is below it.
	AcceptanceThreshold float64 `yaml:"acceptance_threshold" json:"acceptance_threshold"`

	// SemanticPoolFactor sizes the semantic candidate pool as a multiple
	// of topK.
	SemanticPoolFactor int `yaml:"semantic_pool_factor" json:"semantic_pool_factor"`

	// Dimensions is the embedding width.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// VectorBackend is "exact" (brute-force scan) or "hnsw".
	VectorBackend string `yaml:"vector_backend" json:"vector_backend"`

	// EmbeddingCacheSize bounds the embedding LRU. Zero uses the default.
	EmbeddingCacheSize int `yaml:"embedding_cache_size" json:"embedding_cache_size"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	lex := store.DefaultLexicalConfig()
	return Config{
		Fuzziness:           lex.Fuzziness,
		MinMatchLength:      lex.MinMatchLength,
		MinSimilarity:       lex.MinSimilarity,
		FieldWeights:        lex.Weights,
		FieldLengthNorm:     lex.FieldLengthNorm,
		LexicalConfidence:   0.1,
		SemanticConfidence:  0.2,
		AcceptanceThreshold: 0.65,
		SemanticPoolFactor:  2,
		Dimensions:          embed.DefaultDimensions,
		VectorBackend:       BackendExact,
		EmbeddingCacheSize:  embed.DefaultEmbeddingCacheSize,
	}
}

// Validate checks every field and reports the first invalid one.
func (c Config) Validate() error {
	unit := []struct {
		name  string
		value float64
	}{
		{"fuzziness", c.Fuzziness},
		{"min_similarity", c.MinSimilarity},
		{"lexical_confidence", c.LexicalConfidence},
		{"semantic_confidence", c.SemanticConfidence},
		{"acceptance_threshold", c.AcceptanceThreshold},
	}
	for _, u := range unit {
		if math.IsNaN(u.value) || u.value < 0 || u.value > 1 {
			return invalid(u.name, fmt.Sprintf("must be within [0, 1], got %v", u.value))
		}
	}

	if c.MinMatchLength < 1 {
		return invalid("min_match_length", fmt.Sprintf("must be at least 1, got %d", c.MinMatchLength))
	}
	if c.FieldWeights.Primary <= 0 {
		return invalid("field_weights.primary", fmt.Sprintf("must be positive, got %v", c.FieldWeights.Primary))
	}
	if c.FieldWeights.Transliteration < 0 {
		return invalid("field_weights.transliteration", fmt.Sprintf("must not be negative, got %v", c.FieldWeights.Transliteration))
	}
	if c.FieldWeights.Translation < 0 {
		return invalid("field_weights.translation", fmt.Sprintf("must not be negative, got %v", c.FieldWeights.Translation))
	}
	if c.SemanticPoolFactor < 1 {
		return invalid("semantic_pool_factor", fmt.Sprintf("must be at least 1, got %d", c.SemanticPoolFactor))
	}
	if c.Dimensions <= 0 {
		return invalid("dimensions", fmt.Sprintf("must be positive, got %d", c.Dimensions))
	}
	if c.VectorBackend != BackendExact && c.VectorBackend != BackendHNSW {
		return invalid("vector_backend", fmt.Sprintf("must be %q or %q, got %q", BackendExact, BackendHNSW, c.VectorBackend))
	}
	if c.EmbeddingCacheSize < 0 {
		return invalid("embedding_cache_size", fmt.Sprintf("must not be negative, got %d", c.EmbeddingCacheSize))
	}
	return nil
}

// semanticOnlyReachable reports whether a result with no lexical confidence
// can ever pass the acceptance threshold.
func (c Config) semanticOnlyReachable() bool {
	return semanticDiscount >= c.AcceptanceThreshold
}

func (c Config) lexicalConfig() store.LexicalConfig {
	return store.LexicalConfig{
		Fuzziness:       c.Fuzziness,
		MinMatchLength:  c.MinMatchLength,
		MinSimilarity:   c.MinSimilarity,
		Weights:         c.FieldWeights,
		FieldLengthNorm: c.FieldLengthNorm,
	}
}

func invalid(field, reason string) error {
	return aerrors.New(aerrors.ErrCodeConfigInvalid, "search config: "+field+" "+reason, nil).
		WithDetail("field", field)
}
