package filter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Faultbox/smf/pkg/encoding"
	"github.com/Faultbox/smf/pkg/formats/smft"
	"github.com/Faultbox/smf/pkg/smf"
)

var errExpectedArgs = errors.New("wrong number of arguments")

type command struct {
	syntax string
	parse  func(args []string) (Filter, error)
}

var commands = map[string]command{
	"core:triangles-optimize":   {(&TrianglesOptimize{}).Syntax(), parseTrianglesOptimize},
	"core:schema-set":           {(&SchemaSet{}).Syntax(), parseSchemaSet},
	"core:application-info-add": {(&ApplicationInfoAdd{}).Syntax(), parseApplicationInfoAdd},
	"core:schema-check":         {(&SchemaCheck{}).Syntax(), parseSchemaCheck},
}

// Commands returns the syntax of every known filter command, sorted.
func Commands() []string {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		out = append(out, c.syntax)
	}
	sort.Strings(out)
	return out
}

// ParseCommand parses one lexed command line of the form
// "module:command args...".
func ParseCommand(tokens []string) (Filter, error) {
	if len(tokens) == 0 {
		return nil, errors.New("empty command")
	}
	c, ok := commands[tokens[0]]
	if !ok {
		return nil, fmt.Errorf("unrecognized filter command %q", tokens[0])
	}
	f, err := c.parse(tokens[1:])
	if err != nil {
		return nil, fmt.Errorf("incorrect command syntax: expected %s, received %q: %w",
			c.syntax, strings.Join(tokens, " "), err)
	}
	return f, nil
}

// ParseCommands reads a filter command file, one command per line. Every
// line is parsed; all errors are returned together.
func ParseCommands(r io.Reader, source string) ([]Filter, error) {
	var (
		filters []Filter
		errs    []*smf.Error
	)
	sc := bufio.NewScanner(encoding.NewUTF8Reader(r))
	line := 0
	for sc.Scan() {
		line++
		pos := smf.Position{Source: source, Line: line, Column: 1}
		tokens, err := smft.Lex(sc.Text())
		if err != nil {
			errs = append(errs, smf.WrapError(smf.KindLexical, pos, err, "malformed command"))
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		f, err := ParseCommand(tokens)
		if err != nil {
			errs = append(errs, smf.NewError(smf.KindLexical, pos, err.Error()))
			continue
		}
		filters = append(filters, f)
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, smf.WrapError(smf.KindTransport, smf.Position{Source: source, Line: line}, err, "I/O error"))
	}
	if len(errs) > 0 {
		return nil, smf.Combine(errs)
	}
	return filters, nil
}

// ParseCommandFile reads the filter command file at path.
func ParseCommandFile(path string) ([]Filter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCommands(f, path)
}
