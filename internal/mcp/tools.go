package mcp

import (
	"time"

	"github.com/Aman-CERP/ayatsearch/internal/search"
	"github.com/Aman-CERP/ayatsearch/internal/telemetry"
)

// Tool names.
const (
	ToolSearchVerses  = "search_verses"
	ToolNormalizeText = "normalize_text"
	ToolSearchStats   = "search_stats"
)

// SearchVersesInput defines the input schema for the search_verses tool.
type SearchVersesInput struct {
	Query   string `json:"query" jsonschema:"Arabic, transliterated or translated text to look up"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of verses to return"`
	Chapter *int   `json:"chapter,omitempty" jsonschema:"restrict to one chapter; 0 searches the whole collection"`
}

// SearchVersesOutput defines the output schema for the search_verses tool.
type SearchVersesOutput struct {
	Query      string        `json:"query"`
	Normalized string        `json:"normalized"`
	Chapter    int           `json:"chapter"`
	Results    []VerseResult `json:"results"`
}

// VerseResult is one accepted verse with its display fields and scores. The
// CLI's JSON output uses the same shape.
type VerseResult struct {
	ID              int     `json:"id"`
	Chapter         int     `json:"chapter,omitempty"`
	Text            string  `json:"text"`
	Transliteration string  `json:"transliteration,omitempty"`
	Translation     string  `json:"translation,omitempty"`
	Commentary      string  `json:"commentary,omitempty"`
	Score           float64 `json:"score" jsonschema:"hybrid score between 0 and 1"`
	LexicalScore    float64 `json:"lexical_score"`
	SemanticScore   float64 `json:"semantic_score"`
	MatchKind       string  `json:"match_kind" jsonschema:"lexical or semantic, whichever signal was stronger"`
}

// NormalizeTextInput defines the input schema for the normalize_text tool.
type NormalizeTextInput struct {
	Text string `json:"text" jsonschema:"text to normalize"`
}

// NormalizeTextOutput defines the output schema for the normalize_text tool.
type NormalizeTextOutput struct {
	Text       string `json:"text"`
	Normalized string `json:"normalized"`
}

// SearchStatsInput defines the input schema for the search_stats tool.
type SearchStatsInput struct {
	Chapter *int `json:"chapter,omitempty" jsonschema:"chapter scope to describe; defaults to the server scope"`
}

// SearchStatsOutput defines the output schema for the search_stats tool.
type SearchStatsOutput struct {
	Chapter int                `json:"chapter"`
	Engine  search.EngineStats `json:"engine"`
	Scopes  []int              `json:"scopes" jsonschema:"chapter scopes built so far"`
	Version uint64             `json:"engine_version" jsonschema:"number of engines published for this scope"`
	Queries *QueryStats        `json:"queries,omitempty"`
}

// QueryStats summarizes query telemetry since the server started.
type QueryStats struct {
	TotalQueries        int64            `json:"total_queries"`
	ZeroResultCount     int64            `json:"zero_result_count"`
	ZeroResultPct       float64          `json:"zero_result_pct"`
	DroppedCandidates   int64            `json:"dropped_candidates" jsonschema:"candidates rejected by the acceptance threshold"`
	QueryTypeCounts     map[string]int64 `json:"query_type_counts"`
	LatencyDistribution map[string]int64 `json:"latency_distribution"`
	TopTerms            []QueryTermCount `json:"top_terms"`
	ZeroResultQueries   []string         `json:"zero_result_queries"`
	Since               string           `json:"since" jsonschema:"RFC 3339 start of the measurement window"`
}

// QueryTermCount is a query term and its frequency.
type QueryTermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

func toQueryStats(snap *telemetry.QueryMetricsSnapshot) *QueryStats {
	out := &QueryStats{
		TotalQueries:        snap.TotalQueries,
		ZeroResultCount:     snap.ZeroResultCount,
		ZeroResultPct:       snap.ZeroResultPercentage(),
		DroppedCandidates:   snap.DroppedCandidates,
		QueryTypeCounts:     make(map[string]int64, len(snap.QueryTypeCounts)),
		LatencyDistribution: make(map[string]int64, len(snap.LatencyDistribution)),
		TopTerms:            make([]QueryTermCount, 0, len(snap.TopTerms)),
		ZeroResultQueries:   append([]string{}, snap.ZeroResultQueries...),
		Since:               snap.Since.Format(time.RFC3339),
	}
	for qt, n := range snap.QueryTypeCounts {
		out.QueryTypeCounts[qt] = n
	}
	for bucket, n := range snap.LatencyDistribution {
		out.LatencyDistribution[string(bucket)] = n
	}
	for _, tc := range snap.TopTerms {
		out.TopTerms = append(out.TopTerms, QueryTermCount{Term: tc.Term, Count: tc.Count})
	}
	return out
}

// ToVerseResults converts engine results, skipping nil entries.
func ToVerseResults(results []*search.SearchResult) []VerseResult {
	out := make([]VerseResult, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		out = append(out, VerseResult{
			ID:              r.Document.ID,
			Chapter:         r.Document.Chapter,
			Text:            r.Document.Text,
			Transliteration: r.Document.Transliteration,
			Translation:     r.Document.Translation,
			Commentary:      r.Document.Commentary,
			Score:           r.HybridScore,
			LexicalScore:    r.LexicalScore,
			SemanticScore:   r.SemanticScore,
			MatchKind:       string(r.MatchKind),
		})
	}
	return out
}
