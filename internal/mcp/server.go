package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/ayatsearch/internal/normalize"
	"github.com/Aman-CERP/ayatsearch/internal/search"
	"github.com/Aman-CERP/ayatsearch/internal/telemetry"
	"github.com/Aman-CERP/ayatsearch/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "ayatsearch"

// MaxLimit caps the limit a client may request.
const MaxLimit = 100

// Options configures a Server.
type Options struct {
	// DefaultChapter is used when a tool call omits chapter. 0 = whole collection.
	DefaultChapter int

	// DefaultLimit is used when search_verses omits limit. Default: 20.
	DefaultLimit int

	// Metrics, when set, is reported by search_stats and exposed as a resource.
	Metrics *telemetry.QueryMetrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the MCP server for ayatsearch.
// It bridges AI clients with the hybrid verse search engine.
type Server struct {
	mcp     *mcp.Server
	catalog *search.Catalog
	norm    *normalize.Normalizer
	opts    Options
	logger  *slog.Logger
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        ToolSearchVerses,
		Description: "Find verses matching Arabic text, a transliteration, or a translation. Tolerates missing diacritics, spelling variants and small recitation errors. Returns verses with hybrid, lexical and semantic scores.",
	},
	{
		Name:        ToolNormalizeText,
		Description: "Show the canonical form the search engine matches on: diacritics removed, letter variants unified, spoken letter names expanded.",
	},
	{
		Name:        ToolSearchStats,
		Description: "Report document counts, effective scoring thresholds and query telemetry for a chapter scope.",
	},
}

// NewServer creates an MCP server over catalog. norm is used by normalize_text
// and must match the normalizer the engines were built with.
func NewServer(catalog *search.Catalog, norm *normalize.Normalizer, opts Options) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("search catalog is required")
	}
	if norm == nil {
		return nil, errors.New("normalizer is required")
	}
	if opts.DefaultChapter < 0 {
		return nil, fmt.Errorf("default chapter must be >= 0, got %d", opts.DefaultChapter)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		catalog: catalog,
		norm:    norm,
		opts:    opts,
		logger:  opts.Logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools and resources
	)

	s.registerTools()
	if opts.Metrics != nil {
		s.registerQueryMetricsResource()
	}

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearchVerses, Description: tools[0].Description}, s.mcpSearchVersesHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolNormalizeText, Description: tools[1].Description}, s.mcpNormalizeTextHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearchStats, Description: tools[2].Description}, s.mcpSearchStatsHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

// CallTool invokes a tool by name. args is decoded into the tool's input
// type the same way the SDK decodes a JSON-RPC request.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolSearchVerses:
		var in SearchVersesInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.searchVerses(ctx, in)
	case ToolNormalizeText:
		var in NormalizeTextInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.normalizeText(in)
	case ToolSearchStats:
		var in SearchStatsInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.searchStats(ctx, in)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, dst any) error {
	if args == nil {
		return nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

func (s *Server) mcpSearchVersesHandler(ctx context.Context, _ *mcp.CallToolRequest, in SearchVersesInput) (
	*mcp.CallToolResult,
	SearchVersesOutput,
	error,
) {
	out, err := s.searchVerses(ctx, in)
	if err != nil {
		return nil, SearchVersesOutput{}, err
	}
	return nil, *out, nil
}

func (s *Server) mcpNormalizeTextHandler(_ context.Context, _ *mcp.CallToolRequest, in NormalizeTextInput) (
	*mcp.CallToolResult,
	NormalizeTextOutput,
	error,
) {
	out, err := s.normalizeText(in)
	if err != nil {
		return nil, NormalizeTextOutput{}, err
	}
	return nil, *out, nil
}

func (s *Server) mcpSearchStatsHandler(ctx context.Context, _ *mcp.CallToolRequest, in SearchStatsInput) (
	*mcp.CallToolResult,
	*SearchStatsOutput,
	error,
) {
	out, err := s.searchStats(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

// searchVerses runs a query. An empty query is a parameter error; a query
// that normalizes to nothing returns no results.
func (s *Server) searchVerses(ctx context.Context, in SearchVersesInput) (*SearchVersesOutput, error) {
	if in.Query == "" {
		return nil, NewInvalidParamsError("query parameter is required")
	}

	chapter := s.chapter(in.Chapter)
	limit := clampLimit(in.Limit, s.opts.DefaultLimit, MaxLimit)
	start := time.Now()
	requestID := generateRequestID()

	results, err := s.catalog.Search(ctx, chapter, in.Query, limit)
	if err != nil {
		s.logger.Error("search_verses_failed",
			slog.String("request_id", requestID),
			slog.Int("chapter", chapter),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("search_verses_complete",
		slog.String("request_id", requestID),
		slog.Int("chapter", chapter),
		slog.Int("limit", limit),
		slog.Int("result_count", len(results)),
		slog.Duration("duration", time.Since(start)))

	return &SearchVersesOutput{
		Query:      in.Query,
		Normalized: s.norm.Normalize(in.Query),
		Chapter:    chapter,
		Results:    ToVerseResults(results),
	}, nil
}

func (s *Server) normalizeText(in NormalizeTextInput) (*NormalizeTextOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, NewInvalidParamsError("text parameter is required")
	}
	return &NormalizeTextOutput{Text: in.Text, Normalized: s.norm.Normalize(in.Text)}, nil
}

func (s *Server) searchStats(ctx context.Context, in SearchStatsInput) (*SearchStatsOutput, error) {
	chapter := s.chapter(in.Chapter)
	h, err := s.catalog.Holder(ctx, chapter)
	if err != nil {
		return nil, MapError(err)
	}

	out := &SearchStatsOutput{
		Chapter: chapter,
		Engine:  h.Engine().Stats(),
		Scopes:  s.catalog.Scopes(),
		Version: h.Version(),
	}
	if s.opts.Metrics != nil {
		out.Queries = toQueryStats(s.opts.Metrics.Snapshot())
	}
	return out, nil
}

func (s *Server) chapter(requested *int) int {
	if requested == nil {
		return s.opts.DefaultChapter
	}
	return *requested
}

// Serve runs the server on the given transport until ctx is done.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// clampLimit maps 0 to def and caps at max. Negative limits pass through so
// the engine rejects them.
func clampLimit(limit, def, max int) int {
	switch {
	case limit == 0:
		return def
	case limit > max:
		return max
	default:
		return limit
	}
}

// generateRequestID returns a short random ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
