// Package wire holds the byte-level encodings shared by the bridge client and
// the sandbox server: the JSON form of call arguments, the single "args"
// query parameter, and multipart bodies.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"reflect"
	"strings"
)

const (
	// ArgsParam is the query parameter carrying JSON-encoded call arguments.
	ArgsParam = "args"

	ContentTypeJSON        = "application/json"
	ContentTypeText        = "text/plain"
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeMultipart   = "multipart/form-data"

	// BlobFilename is attached to binary multipart parts.
	BlobFilename = "blob"
)

// EncodeJSON serialises v without HTML escaping and without the trailing
// newline json.Encoder appends.
func EncodeJSON(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeQueryArgs returns the query values for v. A nil v, including a typed
// nil pointer, map or slice, yields nil so no query string is attached.
func EncodeQueryArgs(v any) (url.Values, error) {
	if IsNil(v) {
		return nil, nil
	}
	data, err := EncodeJSON(v)
	if err != nil {
		return nil, fmt.Errorf("wire: encode args: %w", err)
	}
	return url.Values{ArgsParam: []string{string(data)}}, nil
}

// IsNil reports whether v is nil or holds a nil pointer, map, slice or
// interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// DecodeQueryArgs decodes the "args" parameter of q into out. It reports
// false when the parameter is absent.
func DecodeQueryArgs(q url.Values, out any) (bool, error) {
	raw, ok := q[ArgsParam]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw[0]), out); err != nil {
		return true, fmt.Errorf("wire: decode args: %w", err)
	}
	return true, nil
}

// Field is one part of a multipart body.
type Field struct {
	Name   string
	Data   []byte
	Binary bool
}

// EncodeMultipart writes fields as a multipart/form-data body and returns it
// with the matching Content-Type header value (boundary included).
func EncodeMultipart(fields []Field) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, "", fmt.Errorf("wire: multipart field name is required")
		}
		if err := writeField(mw, f); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("wire: close multipart writer: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func writeField(mw *multipart.Writer, f Field) error {
	h := make(textproto.MIMEHeader)
	if f.Binary {
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(f.Name), BlobFilename))
		h.Set("Content-Type", ContentTypeOctetStream)
	} else {
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(f.Name)))
	}
	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("wire: create part %q: %w", f.Name, err)
	}
	if _, err := w.Write(f.Data); err != nil {
		return fmt.Errorf("wire: write part %q: %w", f.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// MediaType strips parameters from a Content-Type header value.
func MediaType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
