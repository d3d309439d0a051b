package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Aman-CERP/ayatsearch/internal/embed"
	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/normalize"
	"github.com/Aman-CERP/ayatsearch/internal/store"
	"github.com/Aman-CERP/ayatsearch/internal/telemetry"
)

// Engine answers hybrid queries over one document collection.
// It is immutable after NewEngine returns and safe for concurrent use.
// To change the collection or the tuning, build a new Engine.
type Engine struct {
	cfg      Config
	norm     *normalize.Normalizer
	docs     []store.Document
	byID     map[int]int // document ID -> index into docs
	lexical  store.LexicalIndex
	semantic *store.SemanticIndex
	embedder embed.Embedder
	logger   *slog.Logger
	metrics  *telemetry.QueryMetrics
}

// Option configures optional Engine dependencies.
type Option func(*engineOptions)

type engineOptions struct {
	logger     *slog.Logger
	normalizer *normalize.Normalizer
	embedder   embed.Embedder
	metrics    *telemetry.QueryMetrics
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithNormalizer sets the text normalizer shared by both indexes.
// Default: normalize.DefaultOptions().
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *engineOptions) {
		o.normalizer = n
	}
}

// WithEmbedder replaces the fingerprint embedder. Its dimensions must equal
// Config.Dimensions. It is wrapped in an embedding cache unless it already
// is one.
func WithEmbedder(e embed.Embedder) Option {
	return func(o *engineOptions) {
		o.embedder = e
	}
}

// WithMetrics records every search into m.
func WithMetrics(m *telemetry.QueryMetrics) Option {
	return func(o *engineOptions) {
		o.metrics = m
	}
}

// NewEngine validates cfg, checks document IDs and builds both indexes.
// ctx bounds the embedding of the collection. An empty collection is legal.
func NewEngine(ctx context.Context, docs []store.Document, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.normalizer == nil {
		n, err := normalize.New(normalize.DefaultOptions())
		if err != nil {
			return nil, err
		}
		o.normalizer = n
	}

	start := time.Now()

	byID := make(map[int]int, len(docs))
	for i, d := range docs {
		if prev, ok := byID[d.ID]; ok {
			return nil, aerrors.Newf(aerrors.ErrCodeDuplicateID,
				"duplicate document id %d at positions %d and %d", d.ID, prev, i).
				WithDetail("id", fmt.Sprint(d.ID)).
				WithSuggestion("Give every document in the collection a unique id")
		}
		byID[d.ID] = i
	}

	embedder := o.embedder
	if embedder == nil {
		embedder = embed.NewFingerprintEmbedder(cfg.Dimensions)
	}
	if embedder.Dimensions() != cfg.Dimensions {
		return nil, aerrors.Newf(aerrors.ErrCodeDimensionMismatch,
			"embedder %s produces %d dimensions, config expects %d",
			embedder.ModelName(), embedder.Dimensions(), cfg.Dimensions)
	}
	if _, cached := embedder.(*embed.CachedEmbedder); !cached {
		embedder = embed.NewCachedEmbedder(embedder, cfg.EmbeddingCacheSize)
	}

	vectors, err := newVectorStore(cfg)
	if err != nil {
		return nil, err
	}

	owned := make([]store.Document, len(docs))
	copy(owned, docs)
	normalized := store.NormalizeDocuments(owned, o.normalizer)

	semantic := store.NewSemanticIndex(o.normalizer, embedder, vectors)
	if err := semantic.IndexDocuments(ctx, normalized); err != nil {
		_ = semantic.Close()
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		norm:     o.normalizer,
		docs:     owned,
		byID:     byID,
		lexical:  store.NewFuzzyIndex(normalized, o.normalizer, cfg.lexicalConfig()),
		semantic: semantic,
		embedder: embedder,
		logger:   o.logger,
		metrics:  o.metrics,
	}

	if !cfg.semanticOnlyReachable() {
		e.logger.Debug("semantic_only_unreachable",
			slog.Float64("acceptance_threshold", cfg.AcceptanceThreshold),
			slog.Float64("semantic_discount", semanticDiscount))
	}
	e.logger.Debug("engine_built",
		slog.Int("documents", len(owned)),
		slog.Int("vectors", semantic.Count()),
		slog.String("vector_backend", cfg.VectorBackend),
		slog.Duration("duration", time.Since(start)))

	return e, nil
}

func newVectorStore(cfg Config) (store.VectorStore, error) {
	switch cfg.VectorBackend {
	case BackendHNSW:
		s, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(cfg.Dimensions))
		if err != nil {
			return nil, aerrors.New(aerrors.ErrCodeIndexFailed, "failed to create hnsw store", err)
		}
		return s, nil
	default:
		return store.NewExactVectorStore(cfg.Dimensions), nil
	}
}

// candidate is one document under consideration during a search.
type candidate struct {
	pos      int // index into Engine.docs
	lexical  float64
	semantic float64
	hybrid   float64
}

// Search returns up to topK accepted documents for query, best first.
//
// Lexical scoring always runs. Phrase queries also consult the semantic
// index with a pool of topK*SemanticPoolFactor candidates. Each candidate
// gets one hybrid score, results below AcceptanceThreshold are dropped, and
// ties keep discovery order (lexical results first, then semantic-only).
// A zero topK or a query that normalizes to nothing returns an empty list.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]*SearchResult, error) {
	if topK < 0 {
		return nil, aerrors.Newf(aerrors.ErrCodeInvalidTopK, "topK must not be negative, got %d", topK)
	}

	start := time.Now()
	queryType := ClassifyQuery(query)

	if topK == 0 || strings.TrimSpace(e.norm.Normalize(query)) == "" {
		e.record(query, queryType, 0, 0, start)
		return []*SearchResult{}, nil
	}

	lexical := e.lexical.Search(query)

	var semantic []*store.VectorResult
	if queryType == QueryTypePhrase {
		var err error
		semantic, err = e.semantic.Search(ctx, query, e.poolSize(topK))
		if err != nil {
			return nil, err
		}
	}

	candidates := e.union(lexical, semantic)

	accepted := candidates[:0]
	for _, c := range candidates {
		c.hybrid = e.hybridScore(queryType, c.lexical, c.semantic)
		if c.hybrid < e.cfg.AcceptanceThreshold {
			continue
		}
		accepted = append(accepted, c)
	}
	dropped := len(candidates) - len(accepted)

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].hybrid > accepted[j].hybrid
	})
	if len(accepted) > topK {
		accepted = accepted[:topK]
	}

	results := make([]*SearchResult, len(accepted))
	for i, c := range accepted {
		kind := MatchKindLexical
		if c.semantic > c.lexical {
			kind = MatchKindSemantic
		}
		results[i] = &SearchResult{
			Document:      e.docs[c.pos],
			LexicalScore:  c.lexical,
			SemanticScore: c.semantic,
			HybridScore:   c.hybrid,
			MatchKind:     kind,
		}
	}

	e.logger.Debug("search_complete",
		slog.String("query_type", string(queryType)),
		slog.Int("lexical_candidates", len(lexical)),
		slog.Int("semantic_candidates", len(semantic)),
		slog.Int("dropped", dropped),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	e.record(query, queryType, len(results), dropped, start)

	return results, nil
}

// poolSize is topK*SemanticPoolFactor, capped at the collection size.
func (e *Engine) poolSize(topK int) int {
	n := len(e.docs)
	if topK > n/e.cfg.SemanticPoolFactor {
		return n
	}
	return topK * e.cfg.SemanticPoolFactor
}

// union merges both result lists in discovery order. A document found by
// both keeps its lexical position and gains its semantic score.
func (e *Engine) union(lexical []*store.LexicalResult, semantic []*store.VectorResult) []*candidate {
	out := make([]*candidate, 0, len(lexical)+len(semantic))
	seen := make(map[int]*candidate, len(lexical)+len(semantic))

	for _, r := range lexical {
		pos, ok := e.byID[r.DocID]
		if !ok || seen[r.DocID] != nil {
			continue
		}
		c := &candidate{pos: pos, lexical: r.Score}
		seen[r.DocID] = c
		out = append(out, c)
	}
	for _, r := range semantic {
		if c := seen[r.ID]; c != nil {
			c.semantic = r.Score
			continue
		}
		pos, ok := e.byID[r.ID]
		if !ok {
			continue
		}
		c := &candidate{pos: pos, semantic: r.Score}
		seen[r.ID] = c
		out = append(out, c)
	}
	return out
}

// hybridScore maps a candidate's two signals to the single ranking score.
func (e *Engine) hybridScore(qt QueryType, lexical, semantic float64) float64 {
	if qt == QueryTypeSingleToken {
		return lexical
	}
	switch {
	case lexical >= e.cfg.LexicalConfidence:
		return lexical * lexicalDiscount
	case semantic >= e.cfg.SemanticConfidence:
		return semantic * semanticDiscount
	default:
		return 0
	}
}

func (e *Engine) record(query string, qt QueryType, results, dropped int, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.Record(telemetry.QueryEvent{
		Query:       query,
		QueryType:   string(qt),
		ResultCount: results,
		Dropped:     dropped,
		Latency:     time.Since(start),
		Timestamp:   start,
	})
}

// Normalize exposes the engine's normalizer.
func (e *Engine) Normalize(text string) string {
	return e.norm.Normalize(text)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Stats describes the engine.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Documents:      len(e.docs),
		Vectors:        e.semantic.Count(),
		Dimensions:     e.cfg.Dimensions,
		VectorBackend:  e.cfg.VectorBackend,
		EmbeddingModel: e.embedder.ModelName(),
		Config:         e.cfg,
	}
}

// Close releases the indexes. The engine must not be used afterwards.
func (e *Engine) Close() error {
	return e.semantic.Close()
}
