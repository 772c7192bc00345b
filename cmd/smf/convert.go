package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/smf/pkg/formats"
	"github.com/Faultbox/smf/pkg/mesh"
)

func (a *app) convertCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "convert FILE... --to FORMAT --out-dir DIR",
		Short: "Convert meshes to another encoding",
		Long:  "Convert each FILE independently, running up to --jobs conversions at once. A failed file does not stop the others.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(a.cfg.Output.Format, "")
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}

			jobs := a.cfg.Convert.Jobs
			if jobs == 0 {
				jobs = runtime.GOMAXPROCS(0)
			}

			var g errgroup.Group
			g.SetLimit(jobs)
			errs := make([]error, len(args))
			outs := make([]string, len(args))
			for i, in := range args {
				i, in := i, in
				g.Go(func() error {
					outs[i], errs[i] = a.convertOne(in, outDir, res)
					return nil
				})
			}
			_ = g.Wait()

			for i, in := range args {
				if errs[i] == nil {
					fmt.Fprintf(a.out, "%s -> %s\n", in, outs[i])
				}
			}
			return multierr.Combine(errs...)
		},
	}
	cmd.Flags().String("to", "", "output format name (default: output.format from config)")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for converted files")
	cmd.Flags().Int("jobs", 0, "concurrent conversions (default: one per CPU)")
	cmd.Flags().String("output-version", "", "output format version (default: newest)")
	cmd.Flags().String("endianness", "", "output byte order: big or little (default: keep)")
	cmd.Flags().Bool("validate-triangles", true, "reject triangles referring to missing vertices")
	return cmd
}

// convertOne runs one independent parse and serialize session.
func (a *app) convertOne(in, outDir string, res formats.Resolved) (string, error) {
	out := outputPath(in, outDir, res)
	if abs(in) == abs(out) {
		return "", fmt.Errorf("%s: output would overwrite the input", in)
	}
	m, err := a.load(in)
	if err != nil {
		return "", err
	}
	if m, err = a.checkTriangles(m); err != nil {
		return "", err
	}
	if m, err = a.prepare(m); err != nil {
		return "", err
	}
	if err := mesh.SaveFile(a.reg, out, res, m); err != nil {
		return "", err
	}
	zap.L().Debug("converted", zap.String("in", in), zap.String("out", out))
	return out, nil
}

func abs(path string) string {
	if p, err := filepath.Abs(path); err == nil {
		return p
	}
	return path
}
