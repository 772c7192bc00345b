package smfb

import (
	"io"

	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

// Provider exposes the encoding to a format registry.
type Provider struct{}

func (Provider) Format() smf.FormatDescription { return Description }

func (Provider) Versions() []smf.FormatVersion {
	return append([]smf.FormatVersion(nil), Versions...)
}

func (Provider) Probe(head []byte) (smf.FormatVersion, error) { return Probe(head) }

func (Provider) NewParser(r io.Reader, source string, events parser.Events) parser.Parser {
	return NewParser(r, source, events)
}

func (Provider) NewSerializer(w io.Writer, version smf.FormatVersion) (parser.Serializer, error) {
	s, err := NewSerializer(w, version)
	if err != nil {
		return nil, err
	}
	return s, nil
}
