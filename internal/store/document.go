package store

import (
	"strings"

	"github.com/Aman-CERP/ayatsearch/internal/normalize"
)

// NormalizedDocument caches the normalized forms of one document's fields.
// It is computed once per engine build and shared by both indexes.
type NormalizedDocument struct {
	ID              int
	Primary         string // Normalized primary text
	Transliteration string // Lowercased, whitespace collapsed
	Translation     string // Lowercased, whitespace collapsed
	Blob            string // Normalized concatenation of every field, for embedding
}

// NormalizeDocuments builds the normalized view of docs, in order.
func NormalizeDocuments(docs []Document, n *normalize.Normalizer) []NormalizedDocument {
	out := make([]NormalizedDocument, len(docs))
	for i, d := range docs {
		out[i] = NormalizedDocument{
			ID:              d.ID,
			Primary:         n.NormalizeLiteral(d.PrimarySource()),
			Transliteration: foldLatin(d.Transliteration),
			Translation:     foldLatin(d.Translation),
			Blob: n.NormalizeLiteral(strings.Join([]string{
				d.PrimarySource(), d.Transliteration, d.Translation, d.Commentary,
			}, " ")),
		}
	}
	return out
}

// foldLatin lowercases and collapses whitespace.
func foldLatin(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
