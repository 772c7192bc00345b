// smf inspects, validates, filters and converts SMF mesh files.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Faultbox/smf/internal/config"
	"github.com/Faultbox/smf/internal/logger"
	"github.com/Faultbox/smf/pkg/formats"
	"github.com/Faultbox/smf/pkg/mesh"
	"github.com/Faultbox/smf/pkg/smf"
)

// Version information, set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	err := root.Execute()
	logger.Sync()
	if err != nil {
		newDiagnostics(os.Stderr).error(err)
		os.Exit(1)
	}
}

// flagKeys maps command flags to the configuration keys they override.
var flagKeys = map[string]string{
	"log-level":          config.KeyLogLevel,
	"log-file":           config.KeyLogFile,
	"to":                 config.KeyOutputFormat,
	"output-version":     config.KeyOutputVersion,
	"endianness":         config.KeyOutputEndianness,
	"validate-triangles": config.KeyValidateTriangles,
	"jobs":               config.KeyConvertJobs,
}

type app struct {
	configPath string
	cfg        *config.Config
	v          *viper.Viper
	reg        *formats.Registry
	out        io.Writer
	diag       *diagnostics
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:    config.NewViper(),
		reg:  formats.Default(),
		out:  out,
		diag: newDiagnostics(errOut),
	}

	root := &cobra.Command{
		Use:           "smf",
		Short:         "SMF mesh file tooling",
		Long:          "smf probes, validates, filters and converts meshes in the binary (smf/b) and text (smf/t) encodings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to config file")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "rotating log file")

	root.AddCommand(
		a.formatsCmd(),
		a.probeCmd(),
		a.eventsCmd(),
		a.validateCmd(),
		a.filterCmd(),
		a.convertCmd(),
		a.configCmd(),
		versionCmd(out),
	)
	return root
}

// setup loads configuration with priority defaults < file < env < flags
// and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	config.ApplyOverrides(cfg, a.v)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	a.cfg = cfg
	zap.L().Debug("configured", zap.String("command", cmd.Name()), zap.Any("config", cfg))
	return nil
}

// resolve picks the output encoding. An empty format is inferred from the
// file suffix, falling back to the configured format.
func (a *app) resolve(format, file string) (formats.Resolved, error) {
	var (
		res formats.Resolved
		err error
	)
	if format == "" {
		res, err = a.reg.Find("", file)
		if err != nil {
			res, err = a.reg.Find(a.cfg.Output.Format, file)
		}
	} else {
		res, err = a.reg.Find(format, file)
	}
	if err != nil {
		return formats.Resolved{}, err
	}
	if a.cfg.Output.Version != "" {
		v, err := smf.ParseFormatVersion(a.cfg.Output.Version)
		if err != nil {
			return formats.Resolved{}, err
		}
		return a.reg.FindVersion(res.Provider.Format().Name, v)
	}
	return res, nil
}

// load reads a mesh, reporting warnings.
func (a *app) load(path string) (*mesh.Mesh, error) {
	m, warnings, err := mesh.LoadFile(a.reg, path)
	for _, w := range warnings {
		a.diag.warning(w)
	}
	return m, err
}

// prepare applies the configured output byte order.
func (a *app) prepare(m *mesh.Mesh) (*mesh.Mesh, error) {
	if a.cfg.Output.Endianness == "" {
		return m, nil
	}
	order, err := smf.ParseByteOrder(a.cfg.Output.Endianness)
	if err != nil {
		return nil, err
	}
	if m.Header().ByteOrder() == order {
		return m, nil
	}
	h, err := m.Header().Builder().SetByteOrder(order).Build()
	if err != nil {
		return nil, err
	}
	return mesh.New(h, m.Arrays(), m.Triangles(), m.Metadata())
}

// outputPath names the converted form of in inside dir.
func outputPath(in, dir string, res formats.Resolved) string {
	base := filepath.Base(in)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s.%s", base, res.Provider.Format().Suffix))
}

func versionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(out, "smf version: %s\n", Version)
			fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
			return nil
		},
	}
}
