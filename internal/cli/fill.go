package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/preview"
)

type fillOutput struct {
	Valid  bool                `json:"valid"`
	Values map[string]any      `json:"values"`
	Hidden []string            `json:"hidden,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func newFillCommand(opts *RootOptions) *cobra.Command {
	var attempts int

	cmd := &cobra.Command{
		Use:   "fill <file|url>",
		Short: "Fill a form interactively and print the submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.loadSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			driver := opts.promptDriver
			if driver == nil {
				survey := preview.NewSurveyDriver()
				survey.Out = cmd.ErrOrStderr()
				driver = survey
			}
			runner := preview.New(
				preview.WithPromptDriver(driver),
				preview.WithMaxAttempts(attempts),
				preview.WithLogger(opts.logger),
			)
			result, err := runner.Run(cmd.Context(), loaded)
			if err != nil {
				return fmt.Errorf("fill: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(fillOutput{
				Valid:  result.Valid,
				Values: result.ByName(loaded),
				Hidden: result.Hidden,
				Errors: result.Errors,
			})
		},
	}
	cmd.Flags().IntVar(&attempts, "attempts", 3, "re-prompts allowed per field before giving up")
	return cmd
}
