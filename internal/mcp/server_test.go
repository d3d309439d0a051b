package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ayatsearch/internal/normalize"
	"github.com/Aman-CERP/ayatsearch/internal/search"
	"github.com/Aman-CERP/ayatsearch/internal/store"
	"github.com/Aman-CERP/ayatsearch/internal/telemetry"
)

func testDocs() []store.Document {
	return []store.Document{
		{ID: 1, Chapter: 1, Text: "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ", Transliteration: "Bismillahir Rahmanir Rahim"},
		{ID: 2, Chapter: 1, Text: "ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ", Transliteration: "Alhamdu lillahi rabbil 'alamin"},
		{ID: 3, Chapter: 1, Text: "ٱلرَّحْمَٰنِ ٱلرَّحِيمِ", Transliteration: "Ar-rahmanir rahim"},
		{ID: 4, Chapter: 1, Text: "مَٰلِكِ يَوْمِ ٱلدِّينِ", Transliteration: "Maliki yawmid din", Commentary: "The Day of Judgement."},
		{ID: 1, Chapter: 112, Text: "قُلْ هُوَ ٱللَّهُ أَحَدٌ", Transliteration: "Qul huwa Allahu ahad"},
		{ID: 2, Chapter: 112, Text: "ٱللَّهُ ٱلصَّمَدُ", Transliteration: "Allahus-samad"},
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	norm, err := normalize.New(normalize.DefaultOptions())
	require.NoError(t, err)

	docs := testDocs()
	catalog := search.NewCatalog(func(ctx context.Context, chapter int) (*search.Engine, error) {
		var scoped []store.Document
		for _, d := range docs {
			if chapter == 0 || d.Chapter == chapter {
				scoped = append(scoped, d)
			}
		}
		return search.NewEngine(ctx, scoped, search.DefaultConfig(),
			search.WithNormalizer(norm),
			search.WithMetrics(opts.Metrics),
		)
	})

	s, err := NewServer(catalog, norm, opts)
	require.NoError(t, err)
	return s
}

// ============================================================================
// TS01: Construction
// ============================================================================

func TestNewServer_RequiresDependencies(t *testing.T) {
	norm, err := normalize.New(normalize.DefaultOptions())
	require.NoError(t, err)
	catalog := search.NewCatalog(nil)

	_, err = NewServer(nil, norm, Options{})
	assert.Error(t, err)

	_, err = NewServer(catalog, nil, Options{})
	assert.Error(t, err)

	_, err = NewServer(catalog, norm, Options{DefaultChapter: -1})
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	s := newTestServer(t, Options{DefaultChapter: 1})

	names := make([]string, 0, 3)
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{ToolSearchVerses, ToolNormalizeText, ToolSearchStats}, names)
}

// ============================================================================
// TS02: search_verses
// ============================================================================

func TestServer_SearchVerses_DefaultChapter(t *testing.T) {
	// Given: a server scoped to chapter 1
	s := newTestServer(t, Options{DefaultChapter: 1})

	// When: searching without diacritics
	got, err := s.CallTool(context.Background(), ToolSearchVerses, map[string]any{
		"query": "ملك يوم الدين",
	})

	// Then: verse 4 of chapter 1 is returned with scores
	require.NoError(t, err)
	out := got.(*SearchVersesOutput)
	assert.Equal(t, 1, out.Chapter)
	assert.Equal(t, "ملك يوم الدين", out.Normalized)
	require.Len(t, out.Results, 1)
	r := out.Results[0]
	assert.Equal(t, 4, r.ID)
	assert.Equal(t, 1, r.Chapter)
	assert.Equal(t, "lexical", r.MatchKind)
	assert.InDelta(t, 0.9, r.Score, 1e-9)
	assert.Equal(t, "Maliki yawmid din", r.Transliteration)
	assert.Equal(t, "The Day of Judgement.", r.Commentary)
}

func TestServer_SearchVerses_ExplicitChapter(t *testing.T) {
	s := newTestServer(t, Options{DefaultChapter: 1})

	got, err := s.CallTool(context.Background(), ToolSearchVerses, map[string]any{
		"query":   "الله الصمد",
		"chapter": 112,
		"limit":   3,
	})

	require.NoError(t, err)
	out := got.(*SearchVersesOutput)
	assert.Equal(t, 112, out.Chapter)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, 2, out.Results[0].ID)
	assert.Equal(t, 112, out.Results[0].Chapter)
	assert.LessOrEqual(t, len(out.Results), 3)
}

func TestServer_SearchVerses_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		wantCode int
	}{
		{name: "missing query", args: map[string]any{}, wantCode: ErrCodeInvalidParams},
		{name: "negative limit", args: map[string]any{"query": "الله", "limit": -1}, wantCode: ErrCodeInvalidParams},
		{name: "negative chapter", args: map[string]any{"query": "الله", "chapter": -2}, wantCode: ErrCodeInvalidParams},
		{name: "whole collection with repeated ids", args: map[string]any{"query": "الله", "chapter": 0}, wantCode: ErrCodeInvalidParams},
		{name: "wrong type", args: map[string]any{"query": 42}, wantCode: ErrCodeInvalidParams},
	}

	s := newTestServer(t, Options{DefaultChapter: 1})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CallTool(context.Background(), ToolSearchVerses, tt.args)
			require.Error(t, err)
			mapped := MapError(err)
			assert.Equal(t, tt.wantCode, mapped.Code)
		})
	}
}

func TestServer_SearchVerses_DegenerateQueryIsEmpty(t *testing.T) {
	s := newTestServer(t, Options{DefaultChapter: 1})

	got, err := s.CallTool(context.Background(), ToolSearchVerses, map[string]any{"query": "  \u064e  "})

	require.NoError(t, err)
	out := got.(*SearchVersesOutput)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0, 20, MaxLimit))
	assert.Equal(t, 5, clampLimit(5, 20, MaxLimit))
	assert.Equal(t, MaxLimit, clampLimit(1000, 20, MaxLimit))
	assert.Equal(t, -1, clampLimit(-1, 20, MaxLimit))
}

// ============================================================================
// TS03: normalize_text and search_stats
// ============================================================================

func TestServer_NormalizeText(t *testing.T) {
	s := newTestServer(t, Options{DefaultChapter: 1})

	got, err := s.CallTool(context.Background(), ToolNormalizeText, map[string]any{
		"text": "بِسْمِ ٱللَّهِ",
	})
	require.NoError(t, err)
	assert.Equal(t, "بسم الله", got.(*NormalizeTextOutput).Normalized)

	_, err = s.CallTool(context.Background(), ToolNormalizeText, map[string]any{"text": "   "})
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestServer_SearchStats(t *testing.T) {
	// Given: a server with telemetry that has served one query
	metrics := telemetry.NewQueryMetrics()
	s := newTestServer(t, Options{DefaultChapter: 1, Metrics: metrics})
	_, err := s.CallTool(context.Background(), ToolSearchVerses, map[string]any{"query": "الرحمن الرحيم"})
	require.NoError(t, err)

	// When: asking for stats
	got, err := s.CallTool(context.Background(), ToolSearchStats, nil)

	// Then: engine and telemetry are reported for the default scope
	require.NoError(t, err)
	out := got.(*SearchStatsOutput)
	assert.Equal(t, 1, out.Chapter)
	assert.Equal(t, 4, out.Engine.Documents)
	assert.Equal(t, 384, out.Engine.Dimensions)
	assert.InDelta(t, 0.65, out.Engine.Config.AcceptanceThreshold, 1e-9)
	assert.Equal(t, []int{1}, out.Scopes)
	assert.Equal(t, uint64(1), out.Version)
	require.NotNil(t, out.Queries)
	assert.Equal(t, int64(1), out.Queries.TotalQueries)
	assert.Equal(t, int64(1), out.Queries.QueryTypeCounts[string(search.QueryTypePhrase)])
}

func TestServer_SearchStats_ExplicitChapterWithoutMetrics(t *testing.T) {
	s := newTestServer(t, Options{DefaultChapter: 1})

	got, err := s.CallTool(context.Background(), ToolSearchStats, map[string]any{"chapter": 112})

	require.NoError(t, err)
	out := got.(*SearchStatsOutput)
	assert.Equal(t, 2, out.Engine.Documents)
	assert.Nil(t, out.Queries)
}

func TestServer_UnknownTool(t *testing.T) {
	s := newTestServer(t, Options{})

	_, err := s.CallTool(context.Background(), "search_code", nil)

	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
}

// ============================================================================
// TS04: Protocol round trip
// ============================================================================

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServer_Protocol_ListAndCall(t *testing.T) {
	// Given: a client connected over an in-memory transport
	s := newTestServer(t, Options{DefaultChapter: 1, Metrics: telemetry.NewQueryMetrics()})
	session := connect(t, s)
	ctx := context.Background()

	// When: listing tools
	list, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	// Then: all three tools are advertised
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolSearchVerses, ToolNormalizeText, ToolSearchStats}, names)

	// When: calling search_verses
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ToolSearchVerses,
		Arguments: map[string]any{"query": "الرحمن الرحيم"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	// Then: the structured output carries the verses
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out SearchVersesOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.Results)
	assert.Equal(t, 1, out.Results[0].ID)
}

func TestServer_Protocol_ToolErrorIsReported(t *testing.T) {
	s := newTestServer(t, Options{DefaultChapter: 1})
	session := connect(t, s)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolNormalizeText,
		Arguments: map[string]any{"text": ""},
	})

	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_Protocol_QueryMetricsResource(t *testing.T) {
	s := newTestServer(t, Options{DefaultChapter: 1, Metrics: telemetry.NewQueryMetrics()})
	session := connect(t, s)

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: QueryMetricsURI})

	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var stats QueryStats
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &stats))
	assert.Equal(t, int64(0), stats.TotalQueries)
}
