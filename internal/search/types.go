// Package search combines the lexical and pseudo-semantic indexes into one
// ranked, gated result list.
package search

import (
	"github.com/Aman-CERP/ayatsearch/internal/store"
)

// QueryType is the classifier's label for a query.
type QueryType string

const (
	// QueryTypeSingleToken is one Arabic-script word. These get lexical
	// scoring only.
	QueryTypeSingleToken QueryType = "single_token"

	// QueryTypePhrase is anything else: several words, or any non-Arabic rune.
	QueryTypePhrase QueryType = "phrase"
)

// MatchKind says which signal dominated a result.
type MatchKind string

const (
	MatchKindLexical  MatchKind = "lexical"
	MatchKindSemantic MatchKind = "semantic"
)

// SearchResult is one accepted document with its scores.
type SearchResult struct {
	Document      store.Document
	LexicalScore  float64 // 0 when the document had no lexical match
	SemanticScore float64 // 0 for single-token queries or no semantic match
	HybridScore   float64 // the score used for ranking and gating
	MatchKind     MatchKind
}

// EngineStats describes a built engine.
type EngineStats struct {
	Documents      int    `json:"documents"`
	Vectors        int    `json:"vectors"`
	Dimensions     int    `json:"dimensions"`
	VectorBackend  string `json:"vector_backend"`
	EmbeddingModel string `json:"embedding_model"`
	Config         Config `json:"config"`
}
