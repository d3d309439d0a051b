package store

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ayatsearch/internal/normalize"
)

func testNormalizer(t *testing.T) *normalize.Normalizer {
	t.Helper()
	n, err := normalize.New(normalize.DefaultOptions())
	require.NoError(t, err)
	return n
}

func fatihah() []Document {
	return []Document{
		{ID: 1, Text: "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ", Transliteration: "Bismillahir Rahmanir Rahim", Translation: "In the name of Allah, the Entirely Merciful, the Especially Merciful."},
		{ID: 2, Text: "ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ", Transliteration: "Alhamdu lillahi rabbil 'alamin", Translation: "All praise is due to Allah, Lord of the worlds."},
		{ID: 3, Text: "ٱلرَّحْمَٰنِ ٱلرَّحِيمِ", Transliteration: "Ar-rahmanir rahim", Translation: "The Entirely Merciful, the Especially Merciful,"},
		{ID: 4, Text: "مَٰلِكِ يَوْمِ ٱلدِّينِ", Transliteration: "Maliki yawmid din", Translation: "Sovereign of the Day of Recompense."},
	}
}

func newFatihahIndex(t *testing.T, cfg LexicalConfig) *FuzzyIndex {
	t.Helper()
	n := testNormalizer(t)
	return NewFuzzyIndex(NormalizeDocuments(fatihah(), n), n, cfg)
}

// ============================================================================
// TS01: Exact Matches
// ============================================================================

func TestFuzzyIndex_ExactSubstringOfPrimary_ScoresOne(t *testing.T) {
	idx := newFatihahIndex(t, DefaultLexicalConfig())

	// Given: a vocalized query whose folded form occurs in verses 1 and 3
	results := idx.Search("ٱلرَّحِيمِ")

	// Then: both score exactly 1, in document order
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].DocID)
	assert.Equal(t, 3, results[1].DocID)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 1.0, results[1].Score)
	assert.Equal(t, 4, idx.Len())
}

func TestFuzzyIndex_TransliterationOnly_ScoresBelowPrimary(t *testing.T) {
	idx := newFatihahIndex(t, DefaultLexicalConfig())

	// When: a Latin query that only occurs in transliterations
	results := idx.Search("Rahman")

	// Then: verses 1 and 3 match with a nonzero score below a primary match
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
		assert.Less(t, r.Score, 1.0)
	}

	// And: the score follows the weighted product for one matched field
	w := 0.1 / 1.05
	short := 1 - math.Pow(minFieldDistance, w/math.Sqrt(2)) // "ar-rahmanir rahim"
	long := 1 - math.Pow(minFieldDistance, w/math.Sqrt(3))  // "bismillahir rahmanir rahim"
	assert.Equal(t, 3, results[0].DocID, "the shorter field ranks first")
	assert.InDelta(t, short, results[0].Score, 1e-9)
	assert.InDelta(t, long, results[1].Score, 1e-9)
}

// lettersVerses holds words that double as spoken letter names, and verses
// opening with disjointed letters.
func lettersVerses() []Document {
	return []Document{
		{ID: 11, Text: "وَلَا يَسْـَٔلُ حَمِيمٌ حَمِيمًا"},
		{ID: 12, Text: "لِيَجْزِيَ ٱللَّهُ ٱلصَّادِقِينَ بِصِدْقِهِمْ"},
		{ID: 13, Text: "قَدْ أَفْلَحَ ٱلْمُؤْمِنُونَ"},
		{ID: 14, Text: "نٓ ۚ وَٱلْقَلَمِ وَمَا يَسْطُرُونَ"},
		{ID: 15, Text: "حمٓ"},
	}
}

func TestFuzzyIndex_LetterNameWords_MatchVerbatim(t *testing.T) {
	n := testNormalizer(t)
	idx := NewFuzzyIndex(NormalizeDocuments(lettersVerses(), n), n, DefaultLexicalConfig())

	tests := []struct {
		query   string
		wantIDs []int
	}{
		{query: "حميم", wantIDs: []int{11, 15}}, // the word, then the cluster حم
		{query: "صاد", wantIDs: []int{12}},
		{query: "نون", wantIDs: []int{13, 14}}, // the word, then the cluster ن
		{query: "ح م", wantIDs: []int{15}},
		{query: "قاف", wantIDs: nil}, // ق stands alone in no verse
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results := idx.Search(tt.query)

			var ids []int
			for _, r := range results {
				ids = append(ids, r.DocID)
				assert.Equal(t, 1.0, r.Score)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFuzzyIndex_EverySubstringOfAVerse_ScoresOne(t *testing.T) {
	// Given: every fixture verse, including letter-name words
	n := testNormalizer(t)
	cfg := DefaultLexicalConfig()
	docs := NormalizeDocuments(append(fatihah(), lettersVerses()...), n)
	idx := NewFuzzyIndex(docs, n, cfg)

	for _, d := range docs {
		runes := []rune(d.Primary)
		for i := range runes {
			for j := i + cfg.MinMatchLength; j <= len(runes); j++ {
				query := strings.TrimSpace(string(runes[i:j]))
				if len([]rune(query)) < cfg.MinMatchLength {
					continue
				}

				// When: searching a verbatim piece of the normalized verse
				results := idx.Search(query)

				// Then: the verse is found with a perfect score
				found := false
				for _, r := range results {
					if r.DocID == d.ID {
						found = true
						assert.Equal(t, 1.0, r.Score, "query %q in verse %d", query, d.ID)
					}
				}
				assert.True(t, found, "query %q not found in verse %d (%q)", query, d.ID, d.Primary)
			}
		}
	}
}

// ============================================================================
// TS02: Fuzzy Matches
// ============================================================================

func TestFuzzyIndex_OneEditInShortVerse_Matches(t *testing.T) {
	idx := newFatihahIndex(t, DefaultLexicalConfig())

	// Given: a 14-rune query with a spurious alif, allowing one edit
	results := idx.Search("الرحمان الرحيم")

	// Then: verse 3 (two tokens) passes the floor; verse 1 (four tokens) does not
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].DocID)
	want := 1 - math.Pow(1.0/14, (0.9/1.05)/math.Sqrt(2))
	assert.InDelta(t, want, results[0].Score, 1e-9)
}

func TestFuzzyIndex_FieldLengthNormOff_KeepsLongerVerse(t *testing.T) {
	cfg := DefaultLexicalConfig()
	cfg.FieldLengthNorm = false
	idx := newFatihahIndex(t, cfg)

	results := idx.Search("الرحمان الرحيم")

	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, 1, results[0].DocID)
}

func TestFuzzyIndex_ShortQueriesNeedExactMatch(t *testing.T) {
	idx := newFatihahIndex(t, DefaultLexicalConfig())

	// One insertion in an 8-rune query exceeds 0.12 * 8
	assert.Empty(t, idx.Search("ملكي يوم"))
	assert.NotEmpty(t, idx.Search("ملك يوم"))
}

// ============================================================================
// TS03: Degenerate Queries and Filters
// ============================================================================

func TestFuzzyIndex_DegenerateQueries_ReturnNothing(t *testing.T) {
	idx := newFatihahIndex(t, DefaultLexicalConfig())

	assert.Empty(t, idx.Search(""))
	assert.Empty(t, idx.Search("   "))
	assert.Empty(t, idx.Search("ًٌٍَُِّ")) // marks only
	assert.Empty(t, idx.Search("رب"))     // below MinMatchLength
}

func TestFuzzyIndex_MinSimilarityFloor(t *testing.T) {
	cfg := DefaultLexicalConfig()
	cfg.MinSimilarity = 0.95
	idx := newFatihahIndex(t, cfg)

	// Transliteration-only matches fall under a high floor
	assert.Empty(t, idx.Search("rahman"))

	cfg.MinSimilarity = 0
	idx = newFatihahIndex(t, cfg)
	// Translation-only matches appear once the floor is gone
	results := idx.Search("merciful")
	require.Len(t, results, 2)
}

func TestFuzzyIndex_ZeroWeightFieldIsIgnored(t *testing.T) {
	cfg := DefaultLexicalConfig()
	cfg.Weights.Transliteration = 0
	idx := newFatihahIndex(t, cfg)

	assert.Empty(t, idx.Search("rahman"))
}

func TestFuzzyIndex_TextCleanIsPreferred(t *testing.T) {
	n := testNormalizer(t)
	docs := []Document{{ID: 9, Text: "قُلْ هُوَ ٱللَّهُ أَحَدٌ", TextClean: "قل هو الله الصمد"}}
	idx := NewFuzzyIndex(NormalizeDocuments(docs, n), n, DefaultLexicalConfig())

	assert.Empty(t, idx.Search("احد"))
	assert.Len(t, idx.Search("الصمد"), 1)
}

func TestFuzzyIndex_EmptyCollection(t *testing.T) {
	n := testNormalizer(t)
	idx := NewFuzzyIndex(nil, n, DefaultLexicalConfig())

	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Search("الرحمن"))
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "primary", FieldPrimary.String())
	assert.Equal(t, "transliteration", FieldTransliteration.String())
	assert.Equal(t, "translation", FieldTranslation.String())
	assert.Equal(t, "unknown", Field(42).String())
}
