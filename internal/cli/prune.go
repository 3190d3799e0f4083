package cli

import (
	"github.com/spf13/cobra"

	"gsjt/internal/app"
	"gsjt/internal/service"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	pruneCategories  []string
	prunePerCategory int
	pruneDryRun      bool
)

//nolint:gochecknoglobals // Cobra boilerplate
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete scenarios outside the canonical set",
	Long: `Deletes every stored scenario whose id is not SCENARIO_<category><nnn> for
the given categories and n = 1..per-category. The default keeps
SCENARIO_A001..SCENARIO_C010.`,
	RunE: runPrune,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().StringSliceVar(&pruneCategories, "categories", []string{"A", "B", "C"}, "categories to keep")
	pruneCmd.Flags().IntVar(&prunePerCategory, "per-category", 10, "scenarios kept per category")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "list what would be deleted")
}

func runPrune(cmd *cobra.Command, _ []string) error {
	keep := service.CanonicalScenarioIDs(pruneCategories, prunePerCategory)
	return withApp(cmd.Context(), func(a *app.App) error {
		report, err := a.ImportService.Prune(cmd.Context(), keep, pruneDryRun)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	})
}
