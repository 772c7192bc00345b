// Package formats is the registry of SMF encodings. It resolves a codec by
// name, by file suffix or by probing the first octets of a stream.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/smf/pkg/formats/smfb"
	"github.com/Faultbox/smf/pkg/formats/smft"
	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

// ProbeSize is the number of octets a probe may inspect.
const ProbeSize = 4096

var (
	ErrUnrecognized = errors.New("unrecognized SMF stream")
	ErrParseFailed  = errors.New("parse failed")
)

// Provider is a codec for one encoding.
type Provider interface {
	Format() smf.FormatDescription
	Versions() []smf.FormatVersion
	Probe(head []byte) (smf.FormatVersion, error)
	NewParser(r io.Reader, source string, events parser.Events) parser.Parser
	NewSerializer(w io.Writer, version smf.FormatVersion) (parser.Serializer, error)
}

// Registry is an immutable set of providers. It is safe for concurrent use.
type Registry struct {
	providers []Provider
	byName    map[string][]Provider
	bySuffix  map[string][]Provider
}

// NewRegistry creates a registry of the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: append([]Provider(nil), providers...),
		byName:    make(map[string][]Provider),
		bySuffix:  make(map[string][]Provider),
	}
	for _, p := range providers {
		f := p.Format()
		r.byName[f.Name] = append(r.byName[f.Name], p)
		suffix := strings.ToLower(f.Suffix)
		r.bySuffix[suffix] = append(r.bySuffix[suffix], p)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of the built-in binary and text encodings.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(smfb.Provider{}, smft.Provider{})
	})
	return defaultRegistry
}

// Providers returns the registered providers sorted by format name.
func (r *Registry) Providers() []Provider {
	out := append([]Provider(nil), r.providers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Format().Name < out[j].Format().Name
	})
	return out
}

// Versions returns a copy of the versions p supports, lowest first.
func Versions(p Provider) []smf.FormatVersion {
	out := append([]smf.FormatVersion(nil), p.Versions()...)
	smf.SortVersions(out)
	return out
}

// Resolved is a provider chosen for a specific version.
type Resolved struct {
	Provider Provider
	Version  smf.FormatVersion
}

// highest picks the provider supporting the highest version among candidates.
// If version is non-nil only providers supporting its major version qualify.
func highest(candidates []Provider, version *smf.FormatVersion) (Resolved, bool) {
	var (
		best  Resolved
		found bool
	)
	for _, p := range candidates {
		for _, v := range p.Versions() {
			if version != nil && v.Major != version.Major {
				continue
			}
			if !found || v.Compare(best.Version) > 0 {
				best = Resolved{Provider: p, Version: v}
				found = true
			}
		}
	}
	if found && version != nil {
		best.Version = *version
	}
	return best, found
}

// FindByName returns the provider for a format name at its highest version.
func (r *Registry) FindByName(name string) (Resolved, error) {
	res, ok := highest(r.byName[name], nil)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: format %q", smf.ErrNoProvider, name)
	}
	return res, nil
}

// FindBySuffix returns the provider for a file suffix, with or without the
// leading dot, at its highest version.
func (r *Registry) FindBySuffix(suffix string) (Resolved, error) {
	suffix = strings.ToLower(strings.TrimPrefix(suffix, "."))
	res, ok := highest(r.bySuffix[suffix], nil)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: suffix %q", smf.ErrNoProvider, suffix)
	}
	return res, nil
}

// Find resolves by explicit format name if given, otherwise by the suffix
// of file.
func (r *Registry) Find(format, file string) (Resolved, error) {
	var (
		res Resolved
		err error
	)
	if format != "" {
		res, err = r.FindByName(format)
	} else {
		res, err = r.FindBySuffix(filepath.Ext(file))
	}
	if err != nil {
		return Resolved{}, err
	}
	zap.L().Debug("resolved format",
		zap.String("file", file),
		zap.String("format", res.Provider.Format().Name),
		zap.Stringer("version", res.Version))
	return res, nil
}

// FindVersion returns the provider for a format name that supports version.
func (r *Registry) FindVersion(name string, version smf.FormatVersion) (Resolved, error) {
	res, ok := highest(r.byName[name], &version)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %s %s", smf.ErrUnsupportedVersion, name, version)
	}
	return res, nil
}

// Probe identifies the format of the first ProbeSize octets of br without
// consuming them.
func (r *Registry) Probe(br *bufio.Reader) (smf.FormatProbeResult, Provider, error) {
	head, err := br.Peek(ProbeSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return smf.FormatProbeResult{}, nil, err
	}
	var errs error
	for _, p := range r.providers {
		v, perr := p.Probe(head)
		if perr != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Format().Name, perr))
			continue
		}
		return smf.FormatProbeResult{Format: p.Format(), Version: v}, p, nil
	}
	if errs == nil {
		return smf.FormatProbeResult{}, nil, ErrUnrecognized
	}
	return smf.FormatProbeResult{}, nil, fmt.Errorf("%w: %w", ErrUnrecognized, errs)
}

// ProbeFile probes the file at path.
func (r *Registry) ProbeFile(path string) (smf.FormatProbeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return smf.FormatProbeResult{}, err
	}
	defer f.Close()
	res, _, err := r.Probe(bufio.NewReaderSize(f, ProbeSize))
	return res, err
}

// Open creates a parser for the file at path, choosing the provider by
// probing its content. The parser owns the file and releases it on Close.
func (r *Registry) Open(path string, events parser.Events) (parser.Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(f, ProbeSize)
	_, p, err := r.Probe(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p.NewParser(readCloser{Reader: br, Closer: f}, path, events), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Create creates a serializer writing the file at path in the given format
// and version. The serializer owns the file and releases it on Close.
func (r *Registry) Create(path string, res Resolved) (parser.Serializer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s, err := res.Provider.NewSerializer(f, res.Version)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// ParseFile parses the file at path, delivering events to events. It
// returns ErrParseFailed if the parse delivered errors.
func (r *Registry) ParseFile(path string, events parser.Events) (err error) {
	p, err := r.Open(path, events)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, p.Close())
	}()
	p.Parse()
	if p.Failed() {
		return fmt.Errorf("%s: %w", path, ErrParseFailed)
	}
	return nil
}
