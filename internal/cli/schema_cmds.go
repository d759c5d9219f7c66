package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/contract"
	"github.com/goliatone/go-formbuilder/pkg/outline"
	"github.com/goliatone/go-formbuilder/pkg/schema"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

func newValidateCommand(opts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file|url>",
		Short: "Check a schema for authoring problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.loadSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result := validation.CheckSchema(loaded, opts.registry)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else if result.Valid {
				fmt.Fprintf(out, "%s: ok (%d steps, %d components)\n", args[0], len(loaded.Steps), len(loaded.Components))
			} else {
				for _, issue := range result.Issues {
					if issue.Field != "" {
						fmt.Fprintf(out, "%s [%s]: %s\n", issue.Path, issue.Field, issue.Message)
						continue
					}
					fmt.Fprintf(out, "%s: %s\n", issue.Path, issue.Message)
				}
			}

			if !result.Valid {
				return fmt.Errorf("%s: %d issue(s) found", args[0], len(result.Issues))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "migrate <file|url>",
		Short: "Rewrite a V1 or V2 schema as a normalized V2 document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.loadSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := schema.SerializeIndent(loaded)
			if err != nil {
				return err
			}
			data = append(data, '\n')
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newOutlineCommand(opts *RootOptions) *cobra.Command {
	var (
		format string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "outline <file|url>",
		Short: "Render a readable outline of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.loadSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderer, err := outline.New(outline.WithTitle(title), outline.WithRegistry(opts.registry))
			if err != nil {
				return err
			}
			_, err = renderer.Render(loaded, outline.Format(strings.ToLower(format)), cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(outline.FormatText), "output format (text|markdown)")
	cmd.Flags().StringVar(&title, "title", "Form", "outline heading")
	return cmd
}

func newContractCommand(opts *RootOptions) *cobra.Command {
	var (
		format  string
		title   string
		version string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "contract <file|url>",
		Short: "Generate an OpenAPI document describing the form submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.loadSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc := contract.Document(loaded, contract.Info{Title: title, Version: version})
			if err := contract.Validate(cmd.Context(), doc); err != nil {
				return err
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode contract: %w", err)
			}
			switch strings.ToLower(format) {
			case "json":
			case "yaml", "yml":
				var generic any
				if err := json.Unmarshal(data, &generic); err != nil {
					return fmt.Errorf("encode contract: %w", err)
				}
				if data, err = yaml.Marshal(generic); err != nil {
					return fmt.Errorf("encode contract: %w", err)
				}
			default:
				return fmt.Errorf("unsupported format %q (expected json or yaml)", format)
			}
			if len(data) > 0 && data[len(data)-1] != '\n' {
				data = append(data, '\n')
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json|yaml)")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&version, "version", "", "document version")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
