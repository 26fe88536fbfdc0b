package auth

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/hanabi-drive/hanabi"
)

// Grammar is an ordered list of required form field names.
//
// Parsing is a single left-to-right scan: at each step the remaining body must begin
// with the next field name followed by '='. The value runs to the next '&' or the end
// of the body and is percent-decoded. Reordered, missing, empty or extra fields are
// malformed.
type Grammar []string

var (
	loginGrammar    = Grammar{"user_name", "user_pswd"}
	overrideGrammar = Grammar{"method_override", "user_name", "user_pswd"}
)

const overrideField = "method_override"

// Parse returns the decoded values in grammar order.
func (g Grammar) Parse(body []byte) ([]string, error) {
	values := make([]string, 0, len(g))
	rest := body

	for i, field := range g {
		if i > 0 {
			if len(rest) == 0 || rest[0] != '&' {
				return nil, fmt.Errorf("parse form: %w: expected '&' before %s", hanabi.ErrMalformedInput, field)
			}
			rest = rest[1:]
		}

		if !bytes.HasPrefix(rest, []byte(field)) || len(rest) <= len(field) || rest[len(field)] != '=' {
			return nil, fmt.Errorf("parse form: %w: expected field %s", hanabi.ErrMalformedInput, field)
		}
		rest = rest[len(field)+1:]

		end := bytes.IndexByte(rest, '&')
		if end < 0 {
			end = len(rest)
		}
		raw := rest[:end]
		rest = rest[end:]

		value, err := url.QueryUnescape(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse form: %w: bad escape in %s", hanabi.ErrMalformedInput, field)
		}
		if value == "" {
			return nil, fmt.Errorf("parse form: %w: %s is empty", hanabi.ErrMalformedInput, field)
		}
		values = append(values, value)
	}

	if len(rest) > 0 {
		return nil, fmt.Errorf("parse form: %w: unexpected trailing data", hanabi.ErrMalformedInput)
	}
	return values, nil
}

// overrideAction returns the method_override value when the body leads with that
// field, and ok=false otherwise.
func overrideAction(body []byte) (string, bool, error) {
	if !bytes.HasPrefix(body, []byte(overrideField+"=")) {
		return "", false, nil
	}
	raw := body[len(overrideField)+1:]
	if end := bytes.IndexByte(raw, '&'); end >= 0 {
		raw = raw[:end]
	}
	action, err := url.QueryUnescape(string(raw))
	if err != nil {
		return "", true, fmt.Errorf("parse form: %w: bad escape in %s", hanabi.ErrMalformedInput, overrideField)
	}
	return action, true, nil
}
