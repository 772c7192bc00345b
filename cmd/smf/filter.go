package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/smf/pkg/filter"
	"github.com/Faultbox/smf/pkg/mesh"
)

func (a *app) filterCmd() *cobra.Command {
	var (
		commands string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "filter IN OUT --commands FILE",
		Short: "Apply a filter command file to a mesh",
		Long: "Apply the filters listed in a command file, one per line, to IN and write the result to OUT.\n\nCommands:\n  " +
			strings.Join(filter.Commands(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]

			filters, err := filter.ParseCommandFile(commands)
			if err != nil {
				return err
			}
			res, err := a.resolve(format, out)
			if err != nil {
				return err
			}
			m, err := a.load(in)
			if err != nil {
				return err
			}
			if m, err = a.checkTriangles(m); err != nil {
				return err
			}
			m, err = filter.Apply(filter.Context{Source: commands}, m, filters)
			if err != nil {
				return err
			}
			if m, err = a.prepare(m); err != nil {
				return err
			}
			if err := mesh.SaveFile(a.reg, out, res, m); err != nil {
				return err
			}
			zap.L().Info("filtered", zap.String("in", in), zap.String("out", out), zap.Int("filters", len(filters)))
			fmt.Fprintf(a.out, "%s -> %s (%s %s)\n", in, out, res.Provider.Format().Name, res.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&commands, "commands", "", "filter command file")
	cmd.Flags().StringVar(&format, "format", "", "output format name (default: from OUT's suffix)")
	cmd.Flags().String("output-version", "", "output format version (default: newest)")
	cmd.Flags().String("endianness", "", "output byte order: big or little (default: keep)")
	cmd.Flags().Bool("validate-triangles", true, "reject triangles referring to missing vertices")
	_ = cmd.MarkFlagRequired("commands")
	return cmd
}

// checkTriangles rejects meshes whose triangles refer to missing vertices
// when configured to.
func (a *app) checkTriangles(m *mesh.Mesh) (*mesh.Mesh, error) {
	if !a.cfg.Filters.ValidateTriangles {
		return m, nil
	}
	f := &filter.TrianglesOptimize{Width: m.Header().Triangles().IndexBits(), Validate: true}
	return f.Filter(filter.Context{}, m)
}
