package wire

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hanabi-drive/hanabi"
)

// Status is a numeric status code with its reason phrase.
type Status struct {
	Code   int
	Reason string
}

// StatusOf returns the status for code with its standard reason phrase.
func StatusOf(code int) Status {
	return Status{Code: code, Reason: http.StatusText(code)}
}

func (s Status) String() string {
	return strconv.Itoa(s.Code) + " " + s.Reason
}

// Response is built incrementally by handlers and serialized once per exchange.
// A Response must not be copied after first use.
type Response struct {
	Proto   string
	Status  Status
	Headers Headers
	Body    bytes.Buffer
}

// NewResponse returns a 200 OK HTTP/1.1 response with no headers and an empty body.
func NewResponse() *Response {
	r := &Response{}
	r.Reset()
	return r
}

// Reset returns the response to its initial state, keeping allocated capacity.
func (r *Response) Reset() {
	r.Proto = ProtoHTTP11
	r.Status = StatusOf(http.StatusOK)
	r.Headers = r.Headers[:0]
	r.Body.Reset()
}

// SetStatus sets the status code and its standard reason phrase.
func (r *Response) SetStatus(code int) {
	r.Status = StatusOf(code)
}

// AddHeader appends a header field.
func (r *Response) AddHeader(name, value string) {
	r.Headers.Add(name, value)
}

// SetBody replaces the body and sets Content-Length and Content-Type to match.
func (r *Response) SetBody(contentType string, data []byte) {
	r.Body.Reset()
	r.Body.Write(data)
	r.Headers.Set("Content-Length", strconv.Itoa(len(data)))
	r.Headers.Set("Content-Type", contentType)
}

// Serialize encodes the status line, headers in insertion order, a blank line and
// the body bytes verbatim.
func (r *Response) Serialize() []byte {
	var b bytes.Buffer
	b.Grow(64 + r.Body.Len())
	proto := r.Proto
	if proto == "" {
		proto = ProtoHTTP11
	}
	b.WriteString(proto)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(r.Status.Code))
	b.WriteByte(' ')
	b.WriteString(r.Status.Reason)
	b.WriteString("\r\n")
	writeHeaders(&b, r.Headers)
	b.Write(r.Body.Bytes())
	return b.Bytes()
}

// WriteTo writes the serialized response to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Serialize())
	return int64(n), err
}

// ParseResponse decodes a serialized response. It accepts the same header grammar as
// Parse; the body is sized by Content-Length or the remaining bytes.
func ParseResponse(data []byte) (*Response, error) {
	head, rest, err := splitHead(data)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimSuffix(string(head), "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	// status-line = HTTP-version SP status-code SP [ reason-phrase ]
	proto, rest1, ok := strings.Cut(lines[0], " ")
	if !ok || (proto != ProtoHTTP11 && proto != ProtoHTTP10) {
		return nil, fmt.Errorf("parse response: %w: bad status line %q", hanabi.ErrMalformedInput, lines[0])
	}
	codeText, reason, _ := strings.Cut(rest1, " ")
	code, err := strconv.Atoi(codeText)
	if err != nil || len(codeText) != 3 {
		return nil, fmt.Errorf("parse response: %w: bad status code %q", hanabi.ErrMalformedInput, codeText)
	}

	resp := &Response{Proto: proto, Status: Status{Code: code, Reason: reason}}
	for _, line := range lines[1:] {
		h, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		resp.Headers = append(resp.Headers, h)
	}

	contentLength, err := parseContentLength(resp.Headers)
	if err != nil {
		return nil, err
	}
	body := rest
	if contentLength >= 0 {
		if int64(len(rest)) < contentLength {
			return nil, fmt.Errorf("parse response: %w: declared body length %d exceeds %d available bytes", hanabi.ErrMalformedInput, contentLength, len(rest))
		}
		body = rest[:contentLength]
	}
	resp.Body.Write(body)

	return resp, nil
}
