package parser

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/smf/pkg/smf"
)

// State is the parse state machine.
//
//	Initial -> HeaderParsing -> HeaderParsed -> Finished
//
// Failed may be entered from any state and is absorbing.
type State int

const (
	StateInitial State = iota
	StateHeaderParsing
	StateHeaderParsed
	StateFinished
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateHeaderParsing:
		return "HeaderParsing"
	case StateHeaderParsed:
		return "HeaderParsed"
	case StateFinished:
		return "Finished"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Session is the state owned by one parse call. Sub-parsers share a
// pointer to it; every error routed through Fail moves it to StateFailed.
type Session struct {
	events Events
	source string
	state  State

	errors   int
	warnings int
}

// NewSession creates a session delivering to events.
func NewSession(events Events, source string) *Session {
	return &Session{events: events, source: source}
}

// Events returns the consumer.
func (s *Session) Events() Events { return s.events }

// Source returns the source identifier used in positions.
func (s *Session) Source() string { return s.source }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Failed reports whether the session has entered StateFailed.
func (s *Session) Failed() bool { return s.state == StateFailed }

// Finish delivers OnFinish and logs the outcome of the parse.
func (s *Session) Finish() {
	zap.L().Debug("parse finished",
		zap.String("source", s.source),
		zap.Stringer("state", s.state),
		zap.Int("errors", s.errors),
		zap.Int("warnings", s.warnings))
	s.events.OnFinish()
}

// Advance moves to the next state. It returns false, leaving the state
// unchanged, if the session has failed. Moving anywhere other than the
// successor state is a codec bug and panics.
func (s *Session) Advance(to State) bool {
	if s.state == StateFailed {
		return false
	}
	if to != s.state+1 || to == StateFailed {
		panic(fmt.Sprintf("illegal parser state transition %s -> %s", s.state, to))
	}
	s.state = to
	return true
}

// Fail delivers err and moves the session to StateFailed.
func (s *Session) Fail(err *smf.Error) {
	if err.Position.Source == "" {
		err.Position.Source = s.source
	}
	s.state = StateFailed
	s.errors++
	s.events.OnError(err)
}

// Warn delivers a warning without changing state.
func (s *Session) Warn(w *smf.Warning) {
	if w.Position.Source == "" {
		w.Position.Source = s.source
	}
	s.warnings++
	s.events.OnWarning(w)
}

// Tracker records which required data sections a parse has delivered.
type Tracker struct {
	header     *smf.Header
	attributes map[string]bool
	triangles  bool
	meta       uint64
}

// NewTracker creates a tracker for header.
func NewTracker(header *smf.Header) *Tracker {
	return &Tracker{header: header, attributes: make(map[string]bool)}
}

// AttributeReceived marks an attribute section as delivered. It returns
// false if the attribute was already delivered.
func (t *Tracker) AttributeReceived(name string) bool {
	if t.attributes[name] {
		return false
	}
	t.attributes[name] = true
	return true
}

// TrianglesReceived marks the triangle section as delivered. It returns
// false if triangles were already delivered.
func (t *Tracker) TrianglesReceived() bool {
	if t.triangles {
		return false
	}
	t.triangles = true
	return true
}

// MetaReceived counts a metadata block.
func (t *Tracker) MetaReceived() {
	t.meta++
}

// MetaCount returns the number of metadata blocks counted so far.
func (t *Tracker) MetaCount() uint64 {
	return t.meta
}

// VerticesRequired reports whether the header declares vertex data.
func (t *Tracker) VerticesRequired() bool {
	return t.header.VertexCount() > 0 && len(t.header.Attributes()) > 0
}

// TrianglesRequired reports whether the header declares triangle data.
func (t *Tracker) TrianglesRequired() bool {
	return t.header.Triangles().Count() > 0
}

// Check returns a structural error for every declared-but-missing vertex
// or triangle section.
func (t *Tracker) Check(pos smf.Position) []*smf.Error {
	var errs []*smf.Error
	if t.VerticesRequired() {
		received := 0
		for _, a := range t.header.Attributes() {
			if t.attributes[a.Name()] {
				received++
			}
		}
		if received == 0 {
			errs = append(errs, smf.NewError(smf.KindStructural, pos,
				"A non-zero vertex count was specified, but no vertices were provided."))
		} else {
			for _, a := range t.header.Attributes() {
				if !t.attributes[a.Name()] {
					errs = append(errs, smf.Errorf(smf.KindStructural, pos,
						"No data was provided for attribute %q.", a.Name()))
				}
			}
		}
	}
	if t.TrianglesRequired() && !t.triangles {
		errs = append(errs, smf.NewError(smf.KindStructural, pos,
			"A non-zero triangle count was specified, but no triangles were provided."))
	}
	return errs
}

// CheckMeta returns a structural error if the number of metadata blocks
// differs from the header's declared count.
func (t *Tracker) CheckMeta(pos smf.Position) *smf.Error {
	declared := t.header.MetaCount()
	switch {
	case t.meta > declared:
		return smf.Errorf(smf.KindStructural, pos,
			"Too many metadata elements were provided: expected %d, received %d.", declared, t.meta)
	case t.meta < declared:
		return smf.Errorf(smf.KindStructural, pos,
			"Too few metadata elements were provided: expected %d, received %d.", declared, t.meta)
	}
	return nil
}
