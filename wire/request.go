package wire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/hanabi-drive/hanabi"
)

const (
	ProtoHTTP10 = "HTTP/1.0"
	ProtoHTTP11 = "HTTP/1.1"
)

// Request is a parsed HTTP request. It is immutable after parsing and owned by the
// handling cycle of a single connection.
type Request struct {
	Method   Method
	Path     string
	RawQuery string
	// Query is nil when the request target carries no query string.
	Query   map[string]string
	Proto   string
	Headers Headers
	// Body is nil when the request carries no body bytes.
	Body []byte
	// RemoteAddr is filled in by the server, never by the parser.
	RemoteAddr string
}

// Target returns the request target as it appears on the request line.
func (r *Request) Target() string {
	if r.Query == nil {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}

// Limits bounds how much of a connection ReadRequest will consume.
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxHeaderBytes: 8 << 10,
		MaxBodyBytes:   1 << 20,
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("parse request: %w: %s", hanabi.ErrMalformedInput, fmt.Sprintf(format, args...))
}

// Parse decodes a complete request from data.
//
// The body is sized by Content-Length when present; otherwise every byte after the
// blank line belongs to the body. A Content-Length larger than the available bytes,
// a missing blank line, or any grammar violation yields an error wrapping
// hanabi.ErrMalformedInput.
func Parse(data []byte) (*Request, error) {
	head, rest, err := splitHead(data)
	if err != nil {
		return nil, err
	}

	req, contentLength, err := parseHead(head)
	if err != nil {
		return nil, err
	}

	body := rest
	if contentLength >= 0 {
		if int64(len(rest)) < contentLength {
			return nil, malformed("declared body length %d exceeds %d available bytes", contentLength, len(rest))
		}
		body = rest[:contentLength]
	}
	if len(body) > 0 {
		req.Body = bytes.Clone(body)
	}

	return req, nil
}

// ReadRequest reads one request from a connection.
//
// The header section is bounded by limits.MaxHeaderBytes and the body by
// limits.MaxBodyBytes; exceeding either yields an error wrapping hanabi.ErrTooLarge.
// Without Content-Length the body is whatever the client has already sent, so the
// call never blocks waiting for a body of unknown size. io.EOF is returned unwrapped
// when the peer closes the connection before sending anything.
func ReadRequest(r *bufio.Reader, limits Limits) (*Request, error) {
	if limits.MaxHeaderBytes <= 0 || limits.MaxBodyBytes <= 0 {
		defaults := DefaultLimits()
		if limits.MaxHeaderBytes <= 0 {
			limits.MaxHeaderBytes = defaults.MaxHeaderBytes
		}
		if limits.MaxBodyBytes <= 0 {
			limits.MaxBodyBytes = defaults.MaxBodyBytes
		}
	}

	var head []byte
	partial := false
	for {
		line, err := r.ReadSlice('\n')
		if len(head)+len(line) > limits.MaxHeaderBytes {
			return nil, fmt.Errorf("read request: %w: header section exceeds %d bytes", hanabi.ErrTooLarge, limits.MaxHeaderBytes)
		}
		if err != nil {
			if errors.Is(err, bufio.ErrBufferFull) {
				head = append(head, line...)
				partial = true
				continue
			}
			if errors.Is(err, io.EOF) {
				if len(head) == 0 && len(line) == 0 {
					return nil, io.EOF
				}
				return nil, malformed("connection closed before end of header section")
			}
			return nil, fmt.Errorf("read request: %w", err)
		}
		if !partial && isBlankLine(line) {
			if len(head) == 0 {
				// RFC 9112 section 2.2: ignore empty lines before the request line.
				continue
			}
			break
		}
		partial = false
		head = append(head, line...)
	}

	req, contentLength, err := parseHead(head)
	if err != nil {
		return nil, err
	}

	if contentLength < 0 {
		contentLength = int64(r.Buffered())
	}
	if contentLength > limits.MaxBodyBytes {
		return nil, fmt.Errorf("read request: %w: body of %d bytes exceeds %d", hanabi.ErrTooLarge, contentLength, limits.MaxBodyBytes)
	}
	if contentLength > 0 {
		body := make([]byte, contentLength)
		if _, err := io.ReadFull(r, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, malformed("declared body length %d cannot be satisfied", contentLength)
			}
			return nil, fmt.Errorf("read request body: %w", err)
		}
		req.Body = body
	}

	return req, nil
}

// Serialize encodes the request in wire format. Headers are written verbatim, so a
// request whose body should be length-delimited must carry its own Content-Length.
func (r *Request) Serialize() []byte {
	var b bytes.Buffer
	proto := r.Proto
	if proto == "" {
		proto = ProtoHTTP11
	}
	b.WriteString(r.Method.String())
	b.WriteByte(' ')
	b.WriteString(r.Target())
	b.WriteByte(' ')
	b.WriteString(proto)
	b.WriteString("\r\n")
	writeHeaders(&b, r.Headers)
	b.Write(r.Body)
	return b.Bytes()
}

func writeHeaders(b *bytes.Buffer, headers Headers) {
	for _, h := range headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
}

func isBlankLine(line []byte) bool {
	return len(line) == 1 || (len(line) == 2 && line[0] == '\r')
}

// splitHead separates the header section from the body, skipping leading empty lines.
// The returned head excludes the terminating blank line.
func splitHead(data []byte) (head, rest []byte, err error) {
	start := 0
	for i := 0; ; {
		j := bytes.IndexByte(data[i:], '\n')
		if j < 0 {
			return nil, nil, malformed("missing blank line after header section")
		}
		line := data[i : i+j+1]
		next := i + j + 1
		if isBlankLine(line) {
			if i == start {
				start = next
				i = next
				continue
			}
			return data[start:i], data[next:], nil
		}
		i = next
	}
}

// parseHead parses the request line and header fields. contentLength is -1 when
// the request declares no Content-Length.
func parseHead(head []byte) (*Request, int64, error) {
	lines := strings.Split(string(head), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return nil, -1, malformed("empty request")
	}
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, -1, err
	}

	for _, line := range lines[1:] {
		h, err := parseHeaderLine(line)
		if err != nil {
			return nil, -1, err
		}
		req.Headers = append(req.Headers, h)
	}

	if req.Headers.Has("Transfer-Encoding") {
		return nil, -1, malformed("transfer codings are not supported")
	}

	contentLength, err := parseContentLength(req.Headers)
	if err != nil {
		return nil, -1, err
	}

	return req, contentLength, nil
}

// request-line = method SP request-target SP HTTP-version
func parseRequestLine(line string) (*Request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, malformed("request line %q must have three space-separated parts", line)
	}
	methodToken, target, proto := parts[0], parts[1], parts[2]

	method, err := ParseMethod(methodToken)
	if err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}

	if proto != ProtoHTTP11 && proto != ProtoHTTP10 {
		return nil, malformed("unsupported protocol %q", proto)
	}

	req := &Request{
		Method: method,
		Proto:  proto,
	}

	if target == "*" {
		if method != MethodOptions {
			return nil, malformed("asterisk-form target is only valid for OPTIONS")
		}
		req.Path = target
		return req, nil
	}
	if target == "" || target[0] != '/' {
		return nil, malformed("request target %q is not in origin-form", target)
	}
	for i := 0; i < len(target); i++ {
		if b := target[i]; b <= 0x20 || b >= 0x7f {
			return nil, malformed("invalid byte 0x%02x in request target", b)
		}
	}

	path, rawQuery, hasQuery := strings.Cut(target, "?")
	req.Path = path
	if hasQuery {
		query, err := parseQuery(rawQuery)
		if err != nil {
			return nil, err
		}
		req.RawQuery = rawQuery
		req.Query = query
	}

	return req, nil
}

// parseQuery decodes key=value pairs separated by '&'. The first occurrence of a key wins.
func parseQuery(raw string) (map[string]string, error) {
	query := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, malformed("bad query key %q", rawKey)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, malformed("bad query value for %q", key)
		}
		if _, exists := query[key]; !exists {
			query[key] = value
		}
	}
	return query, nil
}

// field-line = field-name ":" OWS field-value OWS
func parseHeaderLine(line string) (Header, error) {
	if line != "" && (line[0] == ' ' || line[0] == '\t') {
		return Header{}, malformed("obsolete line folding is not supported")
	}
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return Header{}, malformed("header line %q has no colon", line)
	}
	if !isToken(name) {
		return Header{}, malformed("invalid header field name %q", name)
	}
	value = strings.Trim(value, " \t")
	for i := 0; i < len(value); i++ {
		if b := value[i]; (b < 0x20 && b != '\t') || b == 0x7f {
			return Header{}, malformed("invalid byte 0x%02x in %s value", b, name)
		}
	}
	return Header{Name: name, Value: value}, nil
}

func parseContentLength(headers Headers) (int64, error) {
	values := headers.Values("Content-Length")
	if len(values) == 0 {
		return -1, nil
	}
	var length int64 = -1
	for _, v := range values {
		if v == "" || strings.TrimLeft(v, "0123456789") != "" {
			return -1, malformed("invalid Content-Length %q", v)
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return -1, malformed("invalid Content-Length %q", v)
		}
		if length >= 0 && n != length {
			return -1, malformed("conflicting Content-Length values")
		}
		length = n
	}
	return length, nil
}
