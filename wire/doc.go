// Package wire encodes and decodes the plain-text HTTP/1.x framing used by the
// hanabi protocol engine.
//
// The request side is a strict parser over an untrusted byte stream: a request line
// `METHOD SP target SP HTTP/1.x`, `Field: Value` header lines, a blank line, then a
// body sized by Content-Length or by the remaining bytes. Every failure is returned
// as an error wrapping hanabi.ErrMalformedInput (or hanabi.ErrTooLarge for limit
// violations); the parser never panics on bad input.
//
// The response side keeps headers in insertion order and writes them verbatim, with
// no canonicalization or deduplication.
package wire
