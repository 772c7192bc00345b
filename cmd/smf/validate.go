package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
	"github.com/Faultbox/smf/pkg/validation"
)

// headerReader captures the header of a parse and declines all data.
type headerReader struct {
	parser.IgnoringEvents
	header   *smf.Header
	errors   []*smf.Error
	warnings []*smf.Warning
}

func (r *headerReader) OnHeaderParsed(h *smf.Header) { r.header = h }
func (r *headerReader) OnError(err *smf.Error) { r.errors = append(r.errors, err) }
func (r *headerReader) OnWarning(w *smf.Warning) { r.warnings = append(r.warnings, w) }

func (a *app) validateCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "validate FILE --schema SCHEMA",
		Short: "Check a mesh header against a schema document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := validation.LoadSchema(schemaPath)
			if err != nil {
				return err
			}

			r := &headerReader{}
			parseErr := a.reg.ParseFile(args[0], r)
			for _, w := range r.warnings {
				a.diag.warning(w)
			}
			if parseErr != nil {
				if len(r.errors) > 0 {
					return smf.Combine(r.errors)
				}
				return parseErr
			}

			if _, err := validation.Validate(r.header, schema); err != nil {
				a.diag.error(err)
				return fmt.Errorf("%s: %d schema violations", args[0], len(validation.Violations(err)))
			}
			fmt.Fprintf(a.out, "%s: valid\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema document (YAML)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
