package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/Aman-CERP/ayatsearch/internal/config"
	"github.com/Aman-CERP/ayatsearch/internal/corpus"
	"github.com/Aman-CERP/ayatsearch/internal/normalize"
	"github.com/Aman-CERP/ayatsearch/internal/search"
	"github.com/Aman-CERP/ayatsearch/internal/telemetry"
)

// app is the state shared by commands that search: the effective config,
// the normalizer and a catalog of engines built lazily per chapter.
type app struct {
	root    string
	cfg     *config.Config
	norm    *normalize.Normalizer
	metrics *telemetry.QueryMetrics
	catalog *search.Catalog
	logger  *slog.Logger
}

// loadConfig finds the project root from flags and loads its configuration,
// applying the --corpus override.
func loadConfig(flags *globalFlags) (string, *config.Config, error) {
	root, err := config.FindProjectRoot(flags.dir)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, err
	}
	if flags.corpus != "" {
		abs, err := filepath.Abs(flags.corpus)
		if err != nil {
			return "", nil, err
		}
		cfg.Corpus.Path = abs
	}
	return root, cfg, nil
}

func newApp(flags *globalFlags, logger *slog.Logger) (*app, error) {
	root, cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(root, cfg, logger)
}

func newAppFromConfig(root string, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	norm, err := loadNormalizer(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		root:    root,
		cfg:     cfg,
		norm:    norm,
		metrics: telemetry.NewQueryMetrics(),
		logger:  logger,
	}
	a.catalog = search.NewCatalog(a.build)
	return a, nil
}

func loadNormalizer(cfg *config.Config) (*normalize.Normalizer, error) {
	opts, err := cfg.NormalizerOptions()
	if err != nil {
		return nil, err
	}
	return normalize.New(opts)
}

// build loads the corpus and rules from disk and builds the engine for one
// chapter. Reading both on every build lets a reload pick up edits to either.
func (a *app) build(ctx context.Context, chapter int) (*search.Engine, error) {
	norm, err := loadNormalizer(a.cfg)
	if err != nil {
		return nil, err
	}
	docs, err := corpus.Load(a.cfg.CorpusPath())
	if err != nil {
		return nil, err
	}
	docs = corpus.FilterChapter(docs, chapter)

	a.logger.Debug("engine_build_started",
		slog.Int("chapter", chapter),
		slog.Int("documents", len(docs)))

	return search.NewEngine(ctx, docs, a.cfg.SearchConfig(),
		search.WithNormalizer(norm),
		search.WithLogger(a.logger),
		search.WithMetrics(a.metrics),
	)
}

// chapter returns the --chapter value when it was given, else corpus.chapter.
func (a *app) chapter(value int, set bool) int {
	if set {
		return value
	}
	return a.cfg.Corpus.Chapter
}

// watchPaths are the files whose changes trigger a reload.
func (a *app) watchPaths() []string {
	paths := []string{a.cfg.CorpusPath()}
	if rules := a.cfg.RulesPath(); rules != "" {
		paths = append(paths, rules)
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			out = append(out, abs)
		}
	}
	return out
}
