package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/mcp"
	"github.com/Aman-CERP/ayatsearch/internal/output"
	"github.com/Aman-CERP/ayatsearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit       int
	chapter     int
	format      string // "text", "json"
	queriesFile string // one query per line; "-" reads stdin
	workers     int
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the corpus for verses",
		Long: `Search the corpus with the hybrid lexical and semantic engine.

Diacritics and letter variants are ignored on both sides. Results below
the acceptance threshold are never shown, so an empty list is a normal
answer.

Examples:
  ayatsearch search "الرحمن الرحيم"
  ayatsearch search "ملك يوم الدين" --chapter 1 -n 5
  ayatsearch search --queries-file queries.txt --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := collectQueries(cmd, args, opts.queriesFile)
			if err != nil {
				return err
			}
			chapterSet := cmd.Flags().Changed("chapter")
			limitSet := cmd.Flags().Changed("limit")
			return runSearch(cmd.Context(), cmd, flags, queries, opts, chapterSet, limitSet)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of results (default: search.max_results)")
	cmd.Flags().IntVar(&opts.chapter, "chapter", 0, "Restrict to one chapter, 0 for the whole corpus (default: corpus.chapter)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.queriesFile, "queries-file", "", "Read one query per line from a file (- for stdin)")
	cmd.Flags().IntVar(&opts.workers, "workers", runtime.NumCPU(), "Concurrent queries in batch mode")

	return cmd
}

// collectQueries joins positional args into one query, or reads a batch
// from the queries file. Blank lines in the file are skipped.
func collectQueries(cmd *cobra.Command, args []string, file string) ([]string, error) {
	if file == "" {
		if len(args) == 0 {
			return nil, aerrors.New(aerrors.ErrCodeInvalidInput, "no query given", nil).
				WithSuggestion("Pass a query or --queries-file")
		}
		return []string{strings.Join(args, " ")}, nil
	}
	if len(args) > 0 {
		return nil, aerrors.New(aerrors.ErrCodeInvalidInput, "query arguments and --queries-file are mutually exclusive", nil)
	}

	in := cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, aerrors.IOError("failed to open queries file", err).WithDetail("path", file)
		}
		defer f.Close()
		in = f
	}

	var queries []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			queries = append(queries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, aerrors.IOError("failed to read queries", err).WithDetail("path", file)
	}
	return queries, nil
}

// queryOutput is the JSON form of one answered query.
type queryOutput struct {
	Query      string            `json:"query"`
	Normalized string            `json:"normalized"`
	Chapter    int               `json:"chapter"`
	Results    []mcp.VerseResult `json:"results"`
}

func runSearch(ctx context.Context, cmd *cobra.Command, flags *globalFlags, queries []string,
	opts searchOptions, chapterSet, limitSet bool) error {
	if opts.format != "text" && opts.format != "json" {
		return aerrors.Newf(aerrors.ErrCodeInvalidInput, "unknown format %q (supported: text, json)", opts.format)
	}

	a, err := newApp(flags, nil)
	if err != nil {
		return err
	}

	chapter := a.chapter(opts.chapter, chapterSet)
	limit := a.cfg.Search.MaxResults
	if limitSet {
		limit = opts.limit
	}

	start := time.Now()
	holder, err := a.catalog.Holder(ctx, chapter)
	if err != nil {
		return err
	}
	slog.Debug("engine_ready",
		slog.Int("chapter", chapter),
		slog.Duration("build_time", time.Since(start)))

	answers, err := searchAll(ctx, holder, queries, limit, opts.workers)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		outputs := make([]queryOutput, len(queries))
		for i, q := range queries {
			outputs[i] = queryOutput{
				Query:      q,
				Normalized: a.norm.Normalize(q),
				Chapter:    chapter,
				Results:    mcp.ToVerseResults(answers[i]),
			}
		}
		w := output.New(cmd.OutOrStdout())
		if len(outputs) == 1 && opts.queriesFile == "" {
			return w.JSON(outputs[0])
		}
		return w.JSON(outputs)
	}

	w := newWriter(cmd)
	for i, q := range queries {
		if i > 0 {
			w.Newline()
		}
		w.Results(q, answers[i])
	}
	return nil
}

// searchAll answers queries concurrently, at most workers at a time. The
// answers keep the order of queries. The first failure cancels the rest.
func searchAll(ctx context.Context, holder *search.Holder, queries []string, limit, workers int) ([][]*search.SearchResult, error) {
	if workers < 1 {
		workers = 1
	}

	answers := make([][]*search.SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, q := range queries {
		g.Go(func() error {
			results, err := holder.Search(gctx, q, limit)
			if err != nil {
				return fmt.Errorf("query %d: %w", i+1, err)
			}
			answers[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

// newWriter uses icons when stdout is the process's terminal.
func newWriter(cmd *cobra.Command) *output.Writer {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return output.NewForFile(f)
	}
	return output.New(cmd.OutOrStdout())
}
