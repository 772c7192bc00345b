// Package parser defines the SMF event protocol shared by every codec and
// consumer, plus the serializer interfaces codecs implement for writing.
//
// A parse delivers events in this order:
//
//	OnStart
//	OnVersionReceived
//	OnHeaderParsed
//	{ OnDataAttributeStart, value events, OnDataAttributeFinish }*
//	OnDataTrianglesStart, OnDataTriangle*, OnDataTrianglesFinish
//	{ OnMeta, OnMetaData }*
//	OnFinish
//
// OnError and OnWarning may arrive at any point. OnFinish is delivered on
// every exit path. A consumer declines an attribute, the triangle list or a
// metadata block by returning a nil receiver; the codec then advances over
// the section without delivering its values.
package parser

import "github.com/Faultbox/smf/pkg/smf"

// ErrorReceiver receives diagnostics.
type ErrorReceiver interface {
	OnError(err *smf.Error)
	OnWarning(w *smf.Warning)
}

// Events is implemented by parse consumers.
type Events interface {
	ErrorReceiver

	OnStart()
	OnVersionReceived(version smf.FormatVersion)
	OnHeaderParsed(header *smf.Header)

	// OnDataAttributeStart returns the receiver for the attribute's values,
	// or nil to skip them.
	OnDataAttributeStart(attr smf.Attribute) AttributeValues

	// OnDataTrianglesStart returns the receiver for triangles, or nil to skip them.
	OnDataTrianglesStart() TriangleReceiver

	// OnMeta returns the receiver for a metadata payload, or nil to skip it.
	OnMeta(schema smf.SchemaIdentifier) MetaReceiver

	OnFinish()
}

// AttributeValues receives the values of one attribute, one event per vertex.
type AttributeValues interface {
	OnDataAttributeValueIntegerSigned1(x int64)
	OnDataAttributeValueIntegerSigned2(x, y int64)
	OnDataAttributeValueIntegerSigned3(x, y, z int64)
	OnDataAttributeValueIntegerSigned4(x, y, z, w int64)

	OnDataAttributeValueIntegerUnsigned1(x uint64)
	OnDataAttributeValueIntegerUnsigned2(x, y uint64)
	OnDataAttributeValueIntegerUnsigned3(x, y, z uint64)
	OnDataAttributeValueIntegerUnsigned4(x, y, z, w uint64)

	OnDataAttributeValueFloat1(x float64)
	OnDataAttributeValueFloat2(x, y float64)
	OnDataAttributeValueFloat3(x, y, z float64)
	OnDataAttributeValueFloat4(x, y, z, w float64)

	OnDataAttributeFinish(attr smf.Attribute)
}

// TriangleReceiver receives triangles.
type TriangleReceiver interface {
	OnDataTriangle(a, b, c uint64)
	OnDataTrianglesFinish()
}

// MetaReceiver receives one metadata payload.
type MetaReceiver interface {
	OnMetaData(data []byte)
}

// Parser is a sequential parser bound to one stream.
type Parser interface {
	// Parse drives the events to completion. OnFinish is always delivered.
	Parse()
	// Failed reports whether any error was delivered.
	Failed() bool
	Close() error
}

// IgnoringEvents implements Events by discarding everything. Embed it to
// implement only the events of interest.
type IgnoringEvents struct{}

func (IgnoringEvents) OnError(*smf.Error) {}
func (IgnoringEvents) OnWarning(*smf.Warning) {}
func (IgnoringEvents) OnStart() {}
func (IgnoringEvents) OnVersionReceived(smf.FormatVersion) {}
func (IgnoringEvents) OnHeaderParsed(*smf.Header) {}
func (IgnoringEvents) OnDataAttributeStart(smf.Attribute) AttributeValues { return nil }
func (IgnoringEvents) OnDataTrianglesStart() TriangleReceiver { return nil }
func (IgnoringEvents) OnMeta(smf.SchemaIdentifier) MetaReceiver { return nil }
func (IgnoringEvents) OnFinish() {}
