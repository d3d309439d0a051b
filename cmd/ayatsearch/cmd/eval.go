package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/mcp"
	"github.com/Aman-CERP/ayatsearch/internal/output"
	"github.com/Aman-CERP/ayatsearch/internal/validation"
)

func newEvalCmd(flags *globalFlags) *cobra.Command {
	var (
		chapter    int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "eval <queries.yaml>",
		Short: "Run golden queries and report relevance regressions",
		Long: `Run the queries in a YAML file through the search_verses tool and
check that each one returns an expected verse.

The file has tier1, tier2 and negative sections. Negative queries pass
when nothing clears the acceptance threshold. The command fails when any
query fails.`,
		Example: `  ayatsearch eval testdata/queries.yaml
  ayatsearch eval queries.yaml --chapter 1 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := validation.LoadQueries(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(flags, nil)
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(a.catalog, a.norm, mcp.Options{
				DefaultChapter: a.chapter(chapter, cmd.Flags().Changed("chapter")),
				DefaultLimit:   validation.DefaultLimit,
				Metrics:        a.metrics,
			})
			if err != nil {
				return err
			}

			report := validation.NewValidator(server).RunAll(cmd.Context(), queries)
			if jsonOutput {
				if err := newWriter(cmd).JSON(report); err != nil {
					return err
				}
			} else {
				printReport(newWriter(cmd), report)
			}

			if failed := report.Failed(); len(failed) > 0 {
				return aerrors.Newf(aerrors.ErrCodeSearchFailed, "%d of %d golden queries failed", len(failed), len(report.Results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&chapter, "chapter", 0, "Chapter for queries that do not set one (default: corpus.chapter)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}

func printReport(out *output.Writer, report *validation.Report) {
	for _, tr := range report.Results {
		line := fmt.Sprintf("%s %s: %q %v", tr.Spec.ID, tr.Spec.Name, tr.Spec.Query, tr.TopResults)
		switch {
		case tr.Error != "":
			out.Error(line + " (" + tr.Error + ")")
		case tr.Passed:
			out.Success(line)
		default:
			out.Error(fmt.Sprintf("%s, want one of %v", line, tr.Spec.Expected))
		}
	}
	out.Newline()
	out.Statusf("📊", "Tier 1: %d/%d  Tier 2: %d/%d  Negative: %d/%d",
		report.Tier1.Passed, report.Tier1.Total,
		report.Tier2.Passed, report.Tier2.Total,
		report.Negative.Passed, report.Negative.Total)
}
