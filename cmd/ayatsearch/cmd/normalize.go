package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ayatsearch/internal/output"
)

func newNormalizeCmd(flags *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "normalize <text...>",
		Short: "Print text the way the index sees it",
		Long: `Normalize Arabic text with the configured rules: diacritics and
Quranic marks removed, letter variants unified, rewrite rules applied.

Useful for checking why a query does or does not match.`,
		Example: `  ayatsearch normalize "بِسْمِ ٱللَّهِ"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			norm, err := loadNormalizer(cfg)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			normalized := norm.Normalize(text)
			if jsonOutput {
				return output.New(cmd.OutOrStdout()).JSON(map[string]string{
					"text":       text,
					"normalized": normalized,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), normalized)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
