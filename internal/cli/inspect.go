package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gsjt/internal/app"
	"gsjt/internal/model"
	"gsjt/internal/service"
)

//nolint:gochecknoglobals // Cobra boilerplate
var inspectCmd = &cobra.Command{
	Use:   "inspect [candidate-id]",
	Short: "Print the most recently completed result, or one candidate's",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		lookup := a.AssessService.Latest
		if len(args) == 1 {
			lookup = func(ctx context.Context) (*model.CandidateResult, error) {
				return a.AssessService.Get(ctx, args[0])
			}
		}
		result, err := lookup(cmd.Context())
		if errors.Is(err, service.ErrResultNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "no matching result")
			return nil
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "candidate:    %s\n", result.CandidateID)
		fmt.Fprintf(out, "test id:      %s\n", result.TestID)
		fmt.Fprintf(out, "status:       %s\n", result.Status)
		if result.CompletedAt != nil {
			fmt.Fprintf(out, "completed at: %s\n", result.CompletedAt.Format("2006-01-02 15:04:05 MST"))
		}
		fmt.Fprintf(out, "rating:       %s\n", result.Rating)
		fmt.Fprintf(out, "answers:      %d\n", len(result.Answers))
		fmt.Fprintln(out, "total scores:")
		return printJSON(cmd, result.TotalScores)
	})
}
