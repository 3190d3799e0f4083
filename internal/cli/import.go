package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"gsjt/internal/app"
	"gsjt/internal/service"
)

//nolint:gochecknoglobals // Cobra boilerplate
var importFile string

//nolint:gochecknoglobals // Cobra boilerplate
var importValidateOnly bool

//nolint:gochecknoglobals // Cobra boilerplate
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import scenarios from a JSON or YAML content file",
	Long: `Imports a scenario content file. system_metadata.version "2.0" selects the
four-competency score shape; any other version is read as the six-competency
legacy shape.

Each scenario is upserted and its options replaced. Files ending in .yaml or
.yml are read as YAML, anything else as JSON.

Examples:
  gsjt import --file scenarios.json
  gsjt import --file scenarios.yaml --validate-only`,
	RunE: runImport,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "content file to import")
	importCmd.Flags().BoolVar(&importValidateOnly, "validate-only", false, "parse and convert the file without touching the store")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, _ []string) error {
	if importValidateOnly {
		if _, err := loadConfig(); err != nil {
			return err
		}
		file, err := service.LoadFile(importFile)
		if err != nil {
			return err
		}
		scenarios := service.ToScenarios(file)
		return printJSON(cmd, map[string]interface{}{
			"version":   file.SystemMetadata.SchemaVersion(),
			"scenarios": len(scenarios),
		})
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		report, err := a.ImportService.ImportFile(cmd.Context(), importFile)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	})
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
