// Package body implements the polymorphic HTTP body: a tagged union
// over {null, text, bytes, blob, stream, multipart-form}, the one-shot
// consumption mixin shared by Request and Response, and the helper
// functions that derive Content-Type / Content-Length / wire writes
// from a body value.
package body

import "io"

// Kind tags the variant stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindBytes
	KindBlob
	KindStream
	KindForm
)

// Blob is the non-standard escape hatch type referenced by spec.md:
// bytes tagged with a lower-cased Content-Type.
type Blob struct {
	Type string
	Data []byte
}

func (b *Blob) Size() int64 { return int64(len(b.Data)) }

// Form is the capability a multipart-form body must expose: it knows
// its own boundary and can write itself to a destination writer.
type Form interface {
	Boundary() string
	WriteTo(w io.Writer) (int64, error)
}

// LengthAwareForm is the optional length-reporting capability: a form
// whose parts are all of known size can report its total encoded
// length synchronously.
type LengthAwareForm interface {
	Form
	HasKnownLength() bool
	Len() int64
}

// Value is the tagged union. Exactly one field is meaningful per Kind.
type Value struct {
	Kind   Kind
	Text   string
	Bytes  []byte
	Blob   *Blob
	Stream io.Reader
	Form   Form
}

func Null() Value                { return Value{Kind: KindNull} }
func Text(s string) Value        { return Value{Kind: KindText, Text: s} }
func Bytes(b []byte) Value       { return Value{Kind: KindBytes, Bytes: b} }
func FromBlob(b *Blob) Value     { return Value{Kind: KindBlob, Blob: b} }
func Stream(r io.Reader) Value   { return Value{Kind: KindStream, Stream: r} }
func FromForm(f Form) Value      { return Value{Kind: KindForm, Form: f} }

// Replayable reports whether the value can be serialized to the wire
// more than once.
func (v Value) Replayable() bool {
	switch v.Kind {
	case KindNull, KindText, KindBytes, KindBlob:
		return true
	default:
		return false
	}
}

// IsNull reports whether v carries no bytes at all.
func (v Value) IsNull() bool { return v.Kind == KindNull }
