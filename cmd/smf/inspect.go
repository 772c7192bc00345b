package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/smf/pkg/formats"
	"github.com/Faultbox/smf/pkg/parser"
)

func (a *app) formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported encodings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSUFFIX\tMIME TYPE\tVERSIONS\tDESCRIPTION")
			for _, p := range a.reg.Providers() {
				d := p.Format()
				var versions []string
				for _, v := range formats.Versions(p) {
					versions = append(versions, v.String())
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					d.Name, d.Suffix, d.MimeType, strings.Join(versions, ","), d.Description)
			}
			return tw.Flush()
		},
	}
}

func (a *app) probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE...",
		Short: "Identify the encoding and version of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				res, err := a.reg.ProbeFile(path)
				if err != nil {
					a.diag.error(fmt.Errorf("%s: %w", path, err))
					failed++
					continue
				}
				fmt.Fprintf(a.out, "%s: %s %s\n", path, res.Format.Name, res.Version)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be identified", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events FILE",
		Short: "Print the parse events of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := &parser.Recorder{
				Sink: func(line string) { fmt.Fprintln(a.out, line) },
			}
			err := a.reg.ParseFile(args[0], rec)
			for _, w := range rec.Warnings {
				a.diag.warning(w)
			}
			if err != nil {
				return fmt.Errorf("%w: %d errors", err, len(rec.Errors))
			}
			return nil
		},
	}
}

