package wire

import (
	"fmt"

	"github.com/hanabi-drive/hanabi"
)

// Method is an HTTP request method.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodOptions
	MethodPatch
	MethodConnect
	MethodTrace
)

var methodNames = [...]string{
	MethodUnknown: "",
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodOptions: "OPTIONS",
	MethodPatch:   "PATCH",
	MethodConnect: "CONNECT",
	MethodTrace:   "TRACE",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// ParseMethod maps a method token to a Method. Method tokens are case-sensitive.
func ParseMethod(s string) (Method, error) {
	for m := MethodGet; int(m) < len(methodNames); m++ {
		if methodNames[m] == s {
			return m, nil
		}
	}
	if s == "" || !isToken(s) {
		return MethodUnknown, fmt.Errorf("parse method: %w: invalid method token %q", hanabi.ErrMalformedInput, s)
	}
	return MethodUnknown, fmt.Errorf("parse method: %w: unsupported method %q", hanabi.ErrMalformedInput, s)
}

// tchar = "!" / "#" / "$" / "%" / "&" / "'" / "*" / "+" / "-" / "." / "^" / "_" / "`" / "|" / "~" / DIGIT / ALPHA
func isTchar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTchar(s[i]) {
			return false
		}
	}
	return true
}
