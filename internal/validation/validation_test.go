package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/mcp"
	"github.com/Aman-CERP/ayatsearch/internal/normalize"
	"github.com/Aman-CERP/ayatsearch/internal/search"
	"github.com/Aman-CERP/ayatsearch/internal/store"
)

func fatihah() []store.Document {
	return []store.Document{
		{ID: 1, Chapter: 1, Text: "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ", Transliteration: "Bismillahir Rahmanir Rahim"},
		{ID: 2, Chapter: 1, Text: "ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ", Transliteration: "Alhamdu lillahi rabbil 'alamin"},
		{ID: 3, Chapter: 1, Text: "ٱلرَّحْمَٰنِ ٱلرَّحِيمِ", Transliteration: "Ar-rahmanir rahim"},
		{ID: 4, Chapter: 1, Text: "مَٰلِكِ يَوْمِ ٱلدِّينِ", Transliteration: "Maliki yawmid din"},
	}
}

func newTestServer(t *testing.T) *mcp.Server {
	t.Helper()
	norm, err := normalize.New(normalize.DefaultOptions())
	require.NoError(t, err)

	catalog := search.NewCatalog(func(ctx context.Context, _ int) (*search.Engine, error) {
		return search.NewEngine(ctx, fatihah(), search.DefaultConfig(), search.WithNormalizer(norm))
	})
	s, err := mcp.NewServer(catalog, norm, mcp.Options{DefaultChapter: 1})
	require.NoError(t, err)
	return s
}

// stubCaller returns a fixed response for every call.
type stubCaller struct {
	resp any
	err  error
	args map[string]any
}

func (s *stubCaller) CallTool(_ context.Context, _ string, args map[string]any) (any, error) {
	s.args = args
	return s.resp, s.err
}

// ============================================================================
// TS01: Loading
// ============================================================================

func TestLoadQueries_AssignsTiers(t *testing.T) {
	cfg, err := LoadQueries(filepath.Join("testdata", "queries.yaml"))
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Tier1)
	require.NotEmpty(t, cfg.Tier2)
	require.NotEmpty(t, cfg.Negative)
	assert.Equal(t, 1, cfg.Tier1[0].Tier)
	assert.Equal(t, 2, cfg.Tier2[0].Tier)
	assert.Equal(t, 0, cfg.Negative[0].Tier)

	all := cfg.All()
	assert.Len(t, all, len(cfg.Tier1)+len(cfg.Tier2)+len(cfg.Negative))
	assert.Equal(t, cfg.Tier1[0].ID, all[0].ID)
	assert.Equal(t, cfg.Negative[len(cfg.Negative)-1].ID, all[len(all)-1].ID)
}

func TestLoadQueries_MissingFile(t *testing.T) {
	_, err := LoadQueries(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, aerrors.ErrCodeFileNotFound, aerrors.GetCode(err))
}

func TestParseQueries_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "invalid yaml", yaml: "tier1: [\n"},
		{name: "empty query", yaml: "tier1:\n  - id: A\n    expected: [1]\n"},
		{name: "tier without expectations", yaml: "tier2:\n  - id: A\n    query: x\n"},
		{name: "negative with expectations", yaml: "negative:\n  - id: A\n    query: x\n    expected: [1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQueries([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, aerrors.ErrCodeInvalidInput, aerrors.GetCode(err))
		})
	}
}

func TestLoadQueries_ParseErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier1: [\n"), 0644))

	_, err := LoadQueries(path)
	se, ok := aerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, path, se.Details["path"])
}

// ============================================================================
// TS02: Running
// ============================================================================

func TestValidator_RunAll_GoldenQueriesPass(t *testing.T) {
	// Given: the golden queries and a server over the fixture
	cfg, err := LoadQueries(filepath.Join("testdata", "queries.yaml"))
	require.NoError(t, err)
	v := NewValidator(newTestServer(t))

	// When: running them all
	report := v.RunAll(context.Background(), cfg)

	// Then: every tier passes
	for _, tr := range report.Failed() {
		t.Errorf("%s %q: results %v, error %q", tr.Spec.ID, tr.Spec.Query, tr.TopResults, tr.Error)
	}
	assert.True(t, report.OK())
	assert.Equal(t, TierSummary{Passed: len(cfg.Tier1), Total: len(cfg.Tier1)}, report.Tier1)
	assert.Equal(t, TierSummary{Passed: len(cfg.Tier2), Total: len(cfg.Tier2)}, report.Tier2)
	assert.Equal(t, TierSummary{Passed: len(cfg.Negative), Total: len(cfg.Negative)}, report.Negative)
	assert.NotEmpty(t, report.Timestamp)
}

func TestValidator_RunQuery_RecordsRank(t *testing.T) {
	// Given: a response ranking verse 3 second
	stub := &stubCaller{resp: &mcp.SearchVersesOutput{Results: []mcp.VerseResult{{ID: 1}, {ID: 3}}}}
	chapter := 1

	// When: expecting 3
	tr := NewValidator(stub).RunQuery(context.Background(), QuerySpec{
		ID: "A", Query: "q", Chapter: &chapter, Expected: []int{3}, Tier: 1,
	})

	// Then: passes at rank 1 with the default limit and the chapter sent
	assert.True(t, tr.Passed)
	assert.Equal(t, 1, tr.MatchedAt)
	assert.Equal(t, []int{1, 3}, tr.TopResults)
	assert.Equal(t, DefaultLimit, stub.args["limit"])
	assert.Equal(t, 1, stub.args["chapter"])
}

func TestValidator_RunQuery_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubCaller
		spec       QuerySpec
		wantPassed bool
		wantError  bool
	}{
		{
			name:       "expected verse missing",
			stub:       &stubCaller{resp: &mcp.SearchVersesOutput{Results: []mcp.VerseResult{{ID: 2}}}},
			spec:       QuerySpec{Query: "q", Expected: []int{4}, Tier: 1},
			wantPassed: false,
		},
		{
			name:       "negative with no results",
			stub:       &stubCaller{resp: &mcp.SearchVersesOutput{}},
			spec:       QuerySpec{Query: "q"},
			wantPassed: true,
		},
		{
			name:       "negative with results",
			stub:       &stubCaller{resp: &mcp.SearchVersesOutput{Results: []mcp.VerseResult{{ID: 1}}}},
			spec:       QuerySpec{Query: "q"},
			wantPassed: false,
		},
		{
			name:      "tool error",
			stub:      &stubCaller{err: errors.New("boom")},
			spec:      QuerySpec{Query: "q", Expected: []int{1}, Tier: 1},
			wantError: true,
		},
		{
			name:      "unexpected response",
			stub:      &stubCaller{resp: "text"},
			spec:      QuerySpec{Query: "q", Expected: []int{1}, Tier: 1},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewValidator(tt.stub).RunQuery(context.Background(), tt.spec)
			assert.Equal(t, tt.wantPassed, tr.Passed)
			assert.Equal(t, tt.wantError, tr.Error != "")
		})
	}
}
