// Package validation runs golden queries against the search tools and
// reports which ones still return the verses they should.
//
// Queries are data-driven, loaded from a YAML file with tier1, tier2 and
// negative sections, so a relevance regression can be caught without
// touching code. Tier 1 queries must always pass; tier 2 covers fuzzier
// cases; negative queries pass when nothing clears the acceptance gate.
package validation

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/mcp"
)

// DefaultLimit is the result limit used when a query does not set one.
const DefaultLimit = 10

// QuerySpec defines a golden query with expected verses.
type QuerySpec struct {
	ID       string `yaml:"id" json:"id"`     // e.g. "T1-Q7"
	Name     string `yaml:"name" json:"name"` // Human-readable name
	Query    string `yaml:"query" json:"query"`
	Chapter  *int   `yaml:"chapter" json:"chapter,omitempty"` // nil uses the server default
	Limit    int    `yaml:"limit" json:"limit,omitempty"`
	Expected []int  `yaml:"expected" json:"expected,omitempty"` // any of these IDs passes
	Notes    string `yaml:"notes" json:"notes,omitempty"`
	Tier     int    `yaml:"-" json:"tier"` // 1, 2, or 0 for negative
}

// QueryConfig holds all queries loaded from YAML.
type QueryConfig struct {
	Tier1    []QuerySpec `yaml:"tier1"`
	Tier2    []QuerySpec `yaml:"tier2"`
	Negative []QuerySpec `yaml:"negative"`
}

// ParseQueries decodes a query file and assigns tiers.
func ParseQueries(data []byte) (*QueryConfig, error) {
	var cfg QueryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, aerrors.New(aerrors.ErrCodeInvalidInput, "failed to parse queries YAML", err)
	}
	for i := range cfg.Tier1 {
		cfg.Tier1[i].Tier = 1
	}
	for i := range cfg.Tier2 {
		cfg.Tier2[i].Tier = 2
	}
	for i := range cfg.Negative {
		cfg.Negative[i].Tier = 0
	}

	for _, spec := range cfg.All() {
		switch {
		case spec.Query == "":
			return nil, aerrors.Newf(aerrors.ErrCodeInvalidInput, "query %s has no query text", spec.ID)
		case spec.Tier > 0 && len(spec.Expected) == 0:
			return nil, aerrors.Newf(aerrors.ErrCodeInvalidInput, "query %s expects no verses; move it to negative", spec.ID)
		case spec.Tier == 0 && len(spec.Expected) > 0:
			return nil, aerrors.Newf(aerrors.ErrCodeInvalidInput, "negative query %s must not list expected verses", spec.ID)
		}
	}
	return &cfg, nil
}

// LoadQueries reads and parses a query file.
func LoadQueries(path string) (*QueryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, aerrors.IOError("failed to read queries file", err).WithDetail("path", path)
	}
	cfg, err := ParseQueries(data)
	if err != nil {
		if se, ok := aerrors.As(err); ok {
			return nil, se.WithDetail("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// All returns every query, tier 1 first, negatives last.
func (c *QueryConfig) All() []QuerySpec {
	all := make([]QuerySpec, 0, len(c.Tier1)+len(c.Tier2)+len(c.Negative))
	all = append(all, c.Tier1...)
	all = append(all, c.Tier2...)
	return append(all, c.Negative...)
}

// TestResult captures the outcome of a single query.
type TestResult struct {
	Spec       QuerySpec `json:"spec"`
	Passed     bool      `json:"passed"`
	DurationMS float64   `json:"duration_ms"`
	TopResults []int     `json:"top_results"` // verse IDs returned, best first
	MatchedAt  int       `json:"matched_at"`  // rank of the first expected verse, -1 if absent
	Error      string    `json:"error,omitempty"`
}

// TierSummary counts passes within one tier.
type TierSummary struct {
	Passed int `json:"passed"`
	Total  int `json:"total"`
}

// Report captures the results of a full run.
type Report struct {
	Timestamp string       `json:"timestamp"`
	Results   []TestResult `json:"results"`
	Tier1     TierSummary  `json:"tier1"`
	Tier2     TierSummary  `json:"tier2"`
	Negative  TierSummary  `json:"negative"`
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []TestResult {
	var failed []TestResult
	for _, tr := range r.Results {
		if !tr.Passed {
			failed = append(failed, tr)
		}
	}
	return failed
}

// OK reports whether every query passed.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// ToolCaller is the part of the MCP server the validator drives.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// Validator runs queries through the search_verses tool, the same path a
// client takes.
type Validator struct {
	server ToolCaller
}

// NewValidator creates a Validator calling server.
func NewValidator(server ToolCaller) *Validator {
	return &Validator{server: server}
}

// RunQuery executes a single query and returns the result.
func (v *Validator) RunQuery(ctx context.Context, spec QuerySpec) TestResult {
	result := TestResult{
		Spec:      spec,
		MatchedAt: -1,
	}

	limit := spec.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	args := map[string]any{
		"query": spec.Query,
		"limit": limit,
	}
	if spec.Chapter != nil {
		args["chapter"] = *spec.Chapter
	}

	start := time.Now()
	resp, err := v.server.CallTool(ctx, mcp.ToolSearchVerses, args)
	result.DurationMS = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		result.Error = err.Error()
		return result
	}

	out, ok := resp.(*mcp.SearchVersesOutput)
	if !ok {
		result.Error = fmt.Sprintf("unexpected response type %T", resp)
		return result
	}
	result.TopResults = make([]int, len(out.Results))
	for i, r := range out.Results {
		result.TopResults[i] = r.ID
	}

	if spec.Tier == 0 {
		result.Passed = len(result.TopResults) == 0
		return result
	}
	result.MatchedAt = firstMatch(result.TopResults, spec.Expected)
	result.Passed = result.MatchedAt >= 0
	return result
}

// RunAll executes every query in cfg and tallies the results per tier.
func (v *Validator) RunAll(ctx context.Context, cfg *QueryConfig) *Report {
	report := &Report{Timestamp: time.Now().UTC().Format(time.RFC3339)}

	for _, spec := range cfg.All() {
		tr := v.RunQuery(ctx, spec)
		report.Results = append(report.Results, tr)

		summary := &report.Negative
		switch spec.Tier {
		case 1:
			summary = &report.Tier1
		case 2:
			summary = &report.Tier2
		}
		summary.Total++
		if tr.Passed {
			summary.Passed++
		}
	}
	return report
}

// firstMatch returns the rank of the first result listed in expected.
func firstMatch(results, expected []int) int {
	for i, id := range results {
		for _, want := range expected {
			if id == want {
				return i
			}
		}
	}
	return -1
}
