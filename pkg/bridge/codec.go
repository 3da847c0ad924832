package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/localapp/appbridge_go/internal/httpx"
	"github.com/localapp/appbridge_go/internal/wire"
)

// APIRoot prefixes every route before transmission.
const APIRoot = "/api"

// Codec issues bridge calls against a fixed origin.
type Codec struct {
	client *httpx.Client
}

// New constructs a Codec bound to origin.
func New(origin string, opts ...httpx.Option) (*Codec, error) {
	cl, err := httpx.NewClient(origin, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client) *Codec {
	return &Codec{client: httpClient}
}

// URL returns the full URL Get would request for route and args.
func (c *Codec) URL(route string, args any) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("bridge: codec is nil")
	}
	q, err := wire.EncodeQueryArgs(args)
	if err != nil {
		return "", fmt.Errorf("bridge: %w", err)
	}
	return c.client.BuildURL(APIRoot+route, q), nil
}

// Get issues an HTTP GET to <origin>/api<route>. A non-nil args is sent as
// JSON in the "args" query parameter; a nil args sends no query string.
func (c *Codec) Get(ctx context.Context, route string, args any, rt ResponseType) (Value, error) {
	if err := c.check(route); err != nil {
		return Value{}, err
	}
	q, err := wire.EncodeQueryArgs(args)
	if err != nil {
		return Value{}, fmt.Errorf("bridge: %w", err)
	}
	return c.exchange(ctx, route, rt, &httpx.Request{
		Method: http.MethodGet,
		Path:   APIRoot + route,
		Query:  q,
	})
}

// Put issues an HTTP PUT to <origin>/api<route> with args encoded per ct.
func (c *Codec) Put(ctx context.Context, route string, args any, ct ContentType, rt ResponseType) (Value, error) {
	if err := c.check(route); err != nil {
		return Value{}, err
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch ct {
	case ContentJSON:
		body, err = wire.EncodeJSON(args)
		contentType = wire.ContentTypeJSON
	case ContentMultipart:
		var fields []wire.Field
		fields, err = formFields(args)
		if err == nil {
			body, contentType, err = wire.EncodeMultipart(fields)
		}
	default:
		return Value{}, fmt.Errorf("bridge: unsupported content type %s", ct)
	}
	if err != nil {
		return Value{}, fmt.Errorf("bridge: encode %s body: %w", ct, err)
	}

	return c.exchange(ctx, route, rt, &httpx.Request{
		Method: http.MethodPut,
		Path:   APIRoot + route,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   bytes.NewReader(body),
	})
}

func (c *Codec) check(route string) error {
	if c == nil || c.client == nil {
		return errors.New("bridge: codec is nil")
	}
	if strings.TrimSpace(route) == "" {
		return errors.New("bridge: route is required")
	}
	return nil
}

func (c *Codec) exchange(ctx context.Context, route string, rt ResponseType, req *httpx.Request) (Value, error) {
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		var httpErr *httpx.HTTPError
		if errors.As(err, &httpErr) {
			return Value{}, &RemoteCallError{
				Kind:       KindRemoteCallFailed,
				Method:     req.Method,
				Route:      route,
				StatusCode: httpErr.StatusCode,
				Message:    string(httpErr.Body),
			}
		}
		return Value{}, err
	}

	if rt == ResponseNone {
		if err := httpx.DiscardAndClose(resp.Body); err != nil {
			return Value{}, fmt.Errorf("bridge: read response: %w", err)
		}
		return Value{kind: ResponseNone}, nil
	}

	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return Value{}, fmt.Errorf("bridge: read response: %w", err)
	}
	switch rt {
	case ResponseText, ResponseBinary:
	case ResponseJSON:
		if !json.Valid(data) {
			return Value{}, fmt.Errorf("bridge: %s %s: response is not valid JSON", req.Method, route)
		}
	default:
		return Value{}, fmt.Errorf("bridge: unsupported response type %s", rt)
	}
	return Value{kind: rt, body: data}, nil
}

// formFields maps the top-level keys of args onto multipart fields.
func formFields(args any) ([]wire.Field, error) {
	if wire.IsNil(args) {
		return nil, nil
	}
	switch v := args.(type) {
	case Form:
		fields := make([]wire.Field, 0, len(v))
		for _, f := range v {
			fields = append(fields, payloadField(f.Name, f.Value))
		}
		return fields, nil
	case map[string]Payload:
		fields := make([]wire.Field, 0, len(v))
		for _, k := range sortedKeys(v) {
			fields = append(fields, payloadField(k, v[k]))
		}
		return fields, nil
	case map[string]string:
		fields := make([]wire.Field, 0, len(v))
		for _, k := range sortedKeys(v) {
			fields = append(fields, wire.Field{Name: k, Data: []byte(v[k])})
		}
		return fields, nil
	case map[string][]byte:
		fields := make([]wire.Field, 0, len(v))
		for _, k := range sortedKeys(v) {
			fields = append(fields, wire.Field{Name: k, Data: v[k], Binary: true})
		}
		return fields, nil
	case map[string]any:
		return anyFields(v)
	case json.Marshaler:
		return marshalerFields(v)
	}

	rv := reflect.Indirect(reflect.ValueOf(args))
	switch {
	case rv.Kind() == reflect.Struct:
		return structFields(rv)
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		return mapFields(rv)
	}
	return nil, fmt.Errorf("multipart args must be a struct or a map with string keys, got %T", args)
}

// structFields follows encoding/json field naming: the json tag name wins,
// "-" skips the field, omitempty drops empty values and untagged embedded
// structs are flattened. Each value then goes through valueField, so []byte
// and Payload fields keep their bytes.
func structFields(rv reflect.Value) ([]wire.Field, error) {
	rt := rv.Type()
	fields := make([]wire.Field, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			ev := fv
			if ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					continue
				}
				ev = ev.Elem()
			}
			if ev.Kind() == reflect.Struct {
				inner, err := structFields(ev)
				if err != nil {
					return nil, err
				}
				fields = append(fields, inner...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if hasOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		f, err := valueField(name, fv.Interface())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func mapFields(rv reflect.Value) ([]wire.Field, error) {
	keys := make([]string, 0, rv.Len())
	byName := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		byName[k] = iter.Value()
	}
	sort.Strings(keys)
	fields := make([]wire.Field, 0, len(keys))
	for _, k := range keys {
		f, err := valueField(k, byName[k].Interface())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// marshalerFields splits the JSON object a custom marshaler produces. String
// members become text fields, everything else a blob of its JSON text.
func marshalerFields(m json.Marshaler) ([]wire.Field, error) {
	data, err := wire.EncodeJSON(m)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("multipart args must encode to a JSON object: %w", err)
	}
	fields := make([]wire.Field, 0, len(obj))
	for _, k := range sortedKeys(obj) {
		raw := obj[k]
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			fields = append(fields, wire.Field{Name: k, Data: []byte(s)})
			continue
		}
		fields = append(fields, wire.Field{Name: k, Data: raw, Binary: true})
	}
	return fields, nil
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

// isEmptyValue matches the omitempty rule of encoding/json.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func anyFields(m map[string]any) ([]wire.Field, error) {
	fields := make([]wire.Field, 0, len(m))
	for _, k := range sortedKeys(m) {
		f, err := valueField(k, m[k])
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// valueField keeps text and binary values as they are; anything else is
// JSON-encoded and sent as an octet-stream blob.
func valueField(name string, v any) (wire.Field, error) {
	switch val := v.(type) {
	case string:
		return wire.Field{Name: name, Data: []byte(val)}, nil
	case []byte:
		return wire.Field{Name: name, Data: val, Binary: true}, nil
	case json.RawMessage:
		return wire.Field{Name: name, Data: val, Binary: true}, nil
	case Payload:
		return payloadField(name, val), nil
	case *Payload:
		if val != nil {
			return payloadField(name, *val), nil
		}
	}
	if _, ok := v.(json.Marshaler); !ok {
		rv := reflect.ValueOf(v)
		switch {
		case rv.Kind() == reflect.String:
			return wire.Field{Name: name, Data: []byte(rv.String())}, nil
		case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
			return wire.Field{Name: name, Data: rv.Bytes(), Binary: true}, nil
		}
	}
	data, err := wire.EncodeJSON(v)
	if err != nil {
		return wire.Field{}, fmt.Errorf("field %q: %w", name, err)
	}
	return wire.Field{Name: name, Data: data, Binary: true}, nil
}

func payloadField(name string, p Payload) wire.Field {
	return wire.Field{Name: name, Data: p.Bytes(), Binary: p.IsBinary()}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetJSON issues Get with ResponseJSON and decodes the body into T.
func GetJSON[T any](ctx context.Context, c *Codec, route string, args any) (T, error) {
	var out T
	v, err := c.Get(ctx, route, args, ResponseJSON)
	if err != nil {
		return out, err
	}
	err = v.Decode(&out)
	return out, err
}

// PutJSON issues Put with ResponseJSON and decodes the body into T.
func PutJSON[T any](ctx context.Context, c *Codec, route string, args any, ct ContentType) (T, error) {
	var out T
	v, err := c.Put(ctx, route, args, ct, ResponseJSON)
	if err != nil {
		return out, err
	}
	err = v.Decode(&out)
	return out, err
}
