package bridge

import (
	"encoding/json"
	"fmt"
)

// ContentType selects how Put serialises its arguments.
type ContentType uint8

const (
	// ContentJSON sends the arguments as an application/json body.
	ContentJSON ContentType = iota + 1
	// ContentMultipart sends each top-level argument key as a form field.
	ContentMultipart
)

func (c ContentType) String() string {
	switch c {
	case ContentJSON:
		return "json"
	case ContentMultipart:
		return "multipart-form"
	default:
		return fmt.Sprintf("ContentType(%d)", uint8(c))
	}
}

// ResponseType selects how a successful response body is decoded.
type ResponseType uint8

const (
	ResponseNone ResponseType = iota
	ResponseText
	ResponseJSON
	ResponseBinary
)

func (r ResponseType) String() string {
	switch r {
	case ResponseNone:
		return "none"
	case ResponseText:
		return "text"
	case ResponseJSON:
		return "json"
	case ResponseBinary:
		return "binary"
	default:
		return fmt.Sprintf("ResponseType(%d)", uint8(r))
	}
}

// PayloadKind tags a Payload.
type PayloadKind uint8

const (
	PayloadText PayloadKind = iota + 1
	PayloadBinary
)

// Payload is file content chosen explicitly as text or binary by the caller.
type Payload struct {
	kind PayloadKind
	text string
	data []byte
}

// Text wraps s as a text payload.
func Text(s string) Payload {
	return Payload{kind: PayloadText, text: s}
}

// Binary wraps b as a binary payload. b is not copied.
func Binary(b []byte) Payload {
	return Payload{kind: PayloadBinary, data: b}
}

// Kind reports the payload tag. The zero Payload reports 0.
func (p Payload) Kind() PayloadKind { return p.kind }

// IsBinary reports whether p was built with Binary.
func (p Payload) IsBinary() bool { return p.kind == PayloadBinary }

// Bytes returns the payload content.
func (p Payload) Bytes() []byte {
	if p.kind == PayloadText {
		return []byte(p.text)
	}
	return p.data
}

// FormField is one named field of a multipart form.
type FormField struct {
	Name  string
	Value Payload
}

// Form is an ordered multipart form.
type Form []FormField

// Value is the decoded body of a successful call.
type Value struct {
	kind ResponseType
	body []byte
}

// Kind reports which ResponseType produced v.
func (v Value) Kind() ResponseType { return v.kind }

// IsNone reports whether the call was declared with ResponseNone.
func (v Value) IsNone() bool { return v.kind == ResponseNone }

// Text returns the body as a string.
func (v Value) Text() string { return string(v.body) }

// Bytes returns the raw body.
func (v Value) Bytes() []byte { return v.body }

// Decode unmarshals a JSON body into out.
func (v Value) Decode(out any) error {
	if v.kind != ResponseJSON {
		return fmt.Errorf("bridge: cannot decode %s response as JSON", v.kind)
	}
	if err := json.Unmarshal(v.body, out); err != nil {
		return fmt.Errorf("bridge: decode response: %w", err)
	}
	return nil
}
