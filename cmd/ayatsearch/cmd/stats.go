package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ayatsearch/internal/corpus"
	"github.com/Aman-CERP/ayatsearch/internal/search"
)

// statsOutput is the JSON form of the stats command.
type statsOutput struct {
	Corpus   string             `json:"corpus"`
	Chapter  int                `json:"chapter"`
	Chapters []int              `json:"chapters,omitempty"`
	Engine   search.EngineStats `json:"engine"`
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	var (
		chapter    int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Build the engine and show corpus and index statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, nil)
			if err != nil {
				return err
			}
			scope := a.chapter(chapter, cmd.Flags().Changed("chapter"))

			holder, err := a.catalog.Holder(cmd.Context(), scope)
			if err != nil {
				return err
			}
			docs, err := corpus.Load(a.cfg.CorpusPath())
			if err != nil {
				return err
			}

			stats := statsOutput{
				Corpus:   a.cfg.CorpusPath(),
				Chapter:  scope,
				Chapters: corpus.Chapters(docs),
				Engine:   holder.Engine().Stats(),
			}
			if jsonOutput {
				return newWriter(cmd).JSON(stats)
			}

			out := newWriter(cmd)
			out.Statusf("📖", "Corpus: %s", stats.Corpus)
			out.Statusf("", "Chapters: %d", len(stats.Chapters))
			out.Statusf("", "Scope: chapter %d", stats.Chapter)
			out.Statusf("", "Documents: %d", stats.Engine.Documents)
			out.Statusf("", "Vectors: %d (%d dims, %s)", stats.Engine.Vectors, stats.Engine.Dimensions, stats.Engine.VectorBackend)
			out.Statusf("", "Embedding: %s", stats.Engine.EmbeddingModel)
			return nil
		},
	}

	cmd.Flags().IntVar(&chapter, "chapter", 0, "Chapter scope (default: corpus.chapter)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
