package wire_test

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/wire"
)

func TestParse_RequestLine(t *testing.T) {
	req, err := wire.Parse([]byte("GET /auth/user?user=7&x=a%20b HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	assert.Equal(t, wire.MethodGet, req.Method)
	assert.Equal(t, "/auth/user", req.Path)
	assert.Equal(t, "user=7&x=a%20b", req.RawQuery)
	assert.Equal(t, map[string]string{"user": "7", "x": "a b"}, req.Query)
	assert.Equal(t, wire.ProtoHTTP11, req.Proto)
	assert.Equal(t, wire.Headers{{Name: "Host", Value: "localhost"}}, req.Headers)
	assert.Nil(t, req.Body)
}

func TestParse_NoQuery(t *testing.T) {
	req, err := wire.Parse([]byte("GET /auth/user HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	assert.Nil(t, req.Query)
	assert.Equal(t, "/auth/user", req.Target())
}

func TestParse_Body(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		body string
	}{
		{
			name: "content length",
			raw:  "POST /auth/user HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello",
			body: "hello",
		},
		{
			name: "content length shorter than remainder",
			raw:  "POST /auth/user HTTP/1.1\r\nContent-Length: 3\r\n\r\nhello",
			body: "hel",
		},
		{
			name: "remainder without content length",
			raw:  "POST /auth/user HTTP/1.1\r\n\r\nuser_name=alice&user_pswd=wonder",
			body: "user_name=alice&user_pswd=wonder",
		},
		{
			name: "bare LF line endings",
			raw:  "PUT /auth/user HTTP/1.0\nContent-Length: 2\n\nok",
			body: "ok",
		},
		{
			name: "leading empty lines are ignored",
			raw:  "\r\n\r\nDELETE /auth/user HTTP/1.1\r\n\r\nx",
			body: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := wire.Parse([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(req.Body))
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"missing blank line", "GET /auth/user HTTP/1.1\r\nHost: x\r\n"},
		{"request line only", "GET /auth/user HTTP/1.1"},
		{"two part request line", "GET /auth/user\r\n\r\n"},
		{"double space", "GET  /auth/user HTTP/1.1\r\n\r\n"},
		{"lowercase method", "get /auth/user HTTP/1.1\r\n\r\n"},
		{"unknown method", "BREW /pot HTTP/1.1\r\n\r\n"},
		{"invalid method token", "G(T /x HTTP/1.1\r\n\r\n"},
		{"absolute form", "GET http://example.com/ HTTP/1.1\r\n\r\n"},
		{"asterisk on GET", "GET * HTTP/1.1\r\n\r\n"},
		{"http2", "GET / HTTP/2.0\r\n\r\n"},
		{"bad protocol", "GET / HTTX/1.1\r\n\r\n"},
		{"control byte in target", "GET /a\x01b HTTP/1.1\r\n\r\n"},
		{"bad query escape", "GET /auth/user?user=%zz HTTP/1.1\r\n\r\n"},
		{"header without colon", "GET / HTTP/1.1\r\nHost localhost\r\n\r\n"},
		{"space before colon", "GET / HTTP/1.1\r\nHost : localhost\r\n\r\n"},
		{"obs fold", "GET / HTTP/1.1\r\nX-A: a\r\n b\r\n\r\n"},
		{"control byte in value", "GET / HTTP/1.1\r\nX-A: a\x00b\r\n\r\n"},
		{"unsatisfiable content length", "POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nshort"},
		{"negative content length", "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n"},
		{"non numeric content length", "POST / HTTP/1.1\r\nContent-Length: ten\r\n\r\n"},
		{"conflicting content length", "POST / HTTP/1.1\r\nContent-Length: 1\r\nContent-Length: 2\r\n\r\nab"},
		{"transfer encoding", "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n0\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := wire.Parse([]byte(tt.raw))
			assert.Nil(t, req)
			assert.ErrorIs(t, err, hanabi.ErrMalformedInput)
		})
	}
}

func TestParse_NeverPanicsOnTruncation(t *testing.T) {
	raw := "POST /auth/user?user=1 HTTP/1.1\r\nHost: localhost\r\nContent-Length: 11\r\n\r\nhello world"
	end := strings.Index(raw, "\r\n\r\n")

	for i := 0; i <= len(raw); i++ {
		assert.NotPanics(t, func() {
			_, err := wire.Parse([]byte(raw[:i]))
			if i < end+4 {
				assert.ErrorIs(t, err, hanabi.ErrMalformedInput, "prefix length %d", i)
			}
		})
	}
}

func TestParse_SerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  wire.Request
	}{
		{
			name: "bare get",
			req:  wire.Request{Method: wire.MethodGet, Path: "/auth/user", Proto: wire.ProtoHTTP11},
		},
		{
			name: "query and headers",
			req: wire.Request{
				Method:   wire.MethodGet,
				Path:     "/auth/user",
				RawQuery: "user=7",
				Query:    map[string]string{"user": "7"},
				Proto:    wire.ProtoHTTP11,
				Headers: wire.Headers{
					{Name: "Origin", Value: "http://localhost:3000"},
					{Name: "cookie", Value: "tkn=abc"},
					{Name: "Cookie", Value: "other=1"},
				},
			},
		},
		{
			name: "body with content length",
			req: wire.Request{
				Method:  wire.MethodPost,
				Path:    "/auth/user",
				Proto:   wire.ProtoHTTP10,
				Headers: wire.Headers{{Name: "Content-Length", Value: "32"}},
				Body:    []byte("user_name=alice&user_pswd=wonder"),
			},
		},
		{
			name: "body without content length",
			req: wire.Request{
				Method: wire.MethodPut,
				Path:   "/auth/user",
				Proto:  wire.ProtoHTTP11,
				Body:   []byte("method_override=put&user_name=alice&user_pswd=wonder"),
			},
		},
		{
			name: "asterisk options",
			req:  wire.Request{Method: wire.MethodOptions, Path: "*", Proto: wire.ProtoHTTP11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := wire.Parse(tt.req.Serialize())
			require.NoError(t, err)
			assert.Equal(t, &tt.req, parsed)
		})
	}
}

func TestReadRequest(t *testing.T) {
	raw := "POST /auth/user HTTP/1.1\r\nContent-Length: 5\r\n\r\nhelloTRAILING"
	r := bufio.NewReader(strings.NewReader(raw))

	req, err := wire.ReadRequest(r, wire.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(req.Body))

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "TRAILING", string(rest))
}

func TestReadRequest_BufferedBodyWithoutLength(t *testing.T) {
	raw := "POST /auth/user HTTP/1.1\r\n\r\nuser_name=alice&user_pswd=wonder"
	r := bufio.NewReader(strings.NewReader(raw))

	req, err := wire.ReadRequest(r, wire.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "user_name=alice&user_pswd=wonder", string(req.Body))
}

func TestReadRequest_LongHeaderLine(t *testing.T) {
	long := strings.Repeat("a", 100)
	raw := "GET / HTTP/1.1\r\nX-Long: " + long + "\r\n\r\n"
	r := bufio.NewReaderSize(strings.NewReader(raw), 16)

	req, err := wire.ReadRequest(r, wire.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, long, req.Headers.Get("x-long"))
}

func TestReadRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		limits wire.Limits
		target error
	}{
		{
			name:   "header section too large",
			raw:    "GET / HTTP/1.1\r\nX-A: " + strings.Repeat("a", 64) + "\r\n\r\n",
			limits: wire.Limits{MaxHeaderBytes: 32, MaxBodyBytes: 1024},
			target: hanabi.ErrTooLarge,
		},
		{
			name:   "body too large",
			raw:    "POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n",
			limits: wire.Limits{MaxHeaderBytes: 1024, MaxBodyBytes: 10},
			target: hanabi.ErrTooLarge,
		},
		{
			name:   "closed before blank line",
			raw:    "GET / HTTP/1.1\r\nHost: x\r\n",
			limits: wire.DefaultLimits(),
			target: hanabi.ErrMalformedInput,
		},
		{
			name:   "closed before body",
			raw:    "POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc",
			limits: wire.DefaultLimits(),
			target: hanabi.ErrMalformedInput,
		},
		{
			name:   "bad request line",
			raw:    "NOT A REQUEST LINE\r\n\r\n",
			limits: wire.DefaultLimits(),
			target: hanabi.ErrMalformedInput,
		},
		{
			name:   "nothing sent",
			raw:    "",
			limits: wire.DefaultLimits(),
			target: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wire.ReadRequest(bufio.NewReader(bytes.NewReader([]byte(tt.raw))), tt.limits)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []wire.Method{
		wire.MethodGet, wire.MethodHead, wire.MethodPost, wire.MethodPut, wire.MethodDelete,
		wire.MethodOptions, wire.MethodPatch, wire.MethodConnect, wire.MethodTrace,
	} {
		parsed, err := wire.ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	_, err := wire.ParseMethod("")
	assert.ErrorIs(t, err, hanabi.ErrMalformedInput)
}
