package wire

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeQueryArgsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		args any
	}{
		{name: "plain path", args: "/tmp/a b.txt"},
		{name: "html characters", args: "<x>&y=1?"},
		{name: "object", args: map[string]any{"title": "Pick", "initialdir": "/home"}},
		{name: "array", args: []any{"ls", "-la", float64(3)}},
		{name: "unicode", args: "файл-日本.txt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := EncodeQueryArgs(tc.args)
			require.NoError(t, err)

			parsed, err := url.ParseQuery(q.Encode())
			require.NoError(t, err)

			var got any
			ok, err := DecodeQueryArgs(parsed, &got)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tc.args, got)
		})
	}
}

func TestEncodeQueryArgsNil(t *testing.T) {
	q, err := EncodeQueryArgs(nil)
	require.NoError(t, err)
	require.Nil(t, q)
	require.Equal(t, "", q.Encode())

	var out any
	ok, err := DecodeQueryArgs(url.Values{}, &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEncodeQueryArgsTypedNil(t *testing.T) {
	var opts *struct{ Title string }
	var list []string
	var m map[string]any
	for _, v := range []any{opts, list, m} {
		q, err := EncodeQueryArgs(v)
		require.NoError(t, err)
		require.Nil(t, q)
	}

	q, err := EncodeQueryArgs([]string{})
	require.NoError(t, err)
	require.Equal(t, "[]", q.Get(ArgsParam))

	require.False(t, IsNil(0))
	require.False(t, IsNil(""))
}

func TestEncodeJSONNoHTMLEscape(t *testing.T) {
	data, err := EncodeJSON(map[string]string{"q": "<a&b>"})
	require.NoError(t, err)
	require.Equal(t, `{"q":"<a&b>"}`, string(data))
}

func TestEncodeMultipart(t *testing.T) {
	body, ct, err := EncodeMultipart([]Field{
		{Name: "path", Data: []byte("a.txt")},
		{Name: "contents", Data: []byte{0x00, 0xff}, Binary: true},
	})
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	require.Equal(t, ContentTypeMultipart, mediaType)

	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])

	part, err := mr.NextPart()
	require.NoError(t, err)
	require.Equal(t, "path", part.FormName())
	require.Empty(t, part.FileName())
	data, _ := io.ReadAll(part)
	require.Equal(t, "a.txt", string(data))

	part, err = mr.NextPart()
	require.NoError(t, err)
	require.Equal(t, "contents", part.FormName())
	require.Equal(t, BlobFilename, part.FileName())
	require.Equal(t, ContentTypeOctetStream, part.Header.Get("Content-Type"))
	data, _ = io.ReadAll(part)
	require.Equal(t, []byte{0x00, 0xff}, data)

	_, err = mr.NextPart()
	require.ErrorIs(t, err, io.EOF)
}

func TestEncodeMultipartRequiresName(t *testing.T) {
	_, _, err := EncodeMultipart([]Field{{Name: " "}})
	require.Error(t, err)
}

func TestMediaType(t *testing.T) {
	require.Equal(t, "multipart/form-data", MediaType("Multipart/Form-Data; boundary=x"))
	require.Equal(t, "application/json", MediaType(" application/json "))
}
