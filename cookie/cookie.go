// Package cookie reads Cookie request headers and builds Set-Cookie response headers.
package cookie

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/wire"
)

// SameSite is the SameSite attribute of a Set-Cookie header.
type SameSite uint8

const (
	SameSiteUnset SameSite = iota
	SameSiteStrict
	SameSiteLax
	SameSiteNone
)

func (s SameSite) String() string {
	switch s {
	case SameSiteStrict:
		return "Strict"
	case SameSiteLax:
		return "Lax"
	case SameSiteNone:
		return "None"
	default:
		return ""
	}
}

// ParseSameSite parses a SameSite mode case-insensitively. The empty string is SameSiteUnset.
func ParseSameSite(s string) (SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SameSiteUnset, nil
	case "strict":
		return SameSiteStrict, nil
	case "lax":
		return SameSiteLax, nil
	case "none":
		return SameSiteNone, nil
	default:
		return SameSiteUnset, fmt.Errorf("parse samesite: %w: unknown mode %q", hanabi.ErrMalformedInput, s)
	}
}

// Attributes are the Set-Cookie attributes. Zero values are omitted on write.
type Attributes struct {
	SameSite    SameSite
	Secure      bool
	Partitioned bool
	HttpOnly    bool
	Path        string
	// MaxAge is in seconds. Zero omits the attribute; negative writes Max-Age=0.
	MaxAge int
}

// Cookie is a cookie to be sent with Set-Cookie.
type Cookie struct {
	Name  string
	Value string
	Attributes
}

// SetCookie builds the Set-Cookie header for name and value with attrs.
// Calling it twice with the same inputs yields identical headers.
func SetCookie(name, value string, attrs Attributes) (wire.Header, error) {
	return Cookie{Name: name, Value: value, Attributes: attrs}.Header()
}

// Validate checks the name, value and path against the cookie grammar of RFC 6265.
func (c Cookie) Validate() error {
	if !isValidName(c.Name) {
		return fmt.Errorf("validate cookie: %w: invalid name %q", hanabi.ErrMalformedInput, c.Name)
	}
	if !isValidValue(c.Value) {
		return fmt.Errorf("validate cookie %s: %w: invalid value", c.Name, hanabi.ErrMalformedInput)
	}
	// path-value = *av-octet, av-octet = %x20-3A / %x3C-7E
	for i := 0; i < len(c.Path); i++ {
		if b := c.Path[i]; b < 0x20 || b > 0x7e || b == ';' {
			return fmt.Errorf("validate cookie %s: %w: invalid path", c.Name, hanabi.ErrMalformedInput)
		}
	}
	return nil
}

// String renders the Set-Cookie field value. Attributes always appear in the same order.
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.MaxAge > 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	} else if c.MaxAge < 0 {
		b.WriteString("; Max-Age=0")
	}
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if c.SameSite != SameSiteUnset {
		b.WriteString("; SameSite=")
		b.WriteString(c.SameSite.String())
	}
	if c.Partitioned {
		b.WriteString("; Partitioned")
	}
	return b.String()
}

// Header validates the cookie and returns it as a Set-Cookie header.
func (c Cookie) Header() (wire.Header, error) {
	if err := c.Validate(); err != nil {
		return wire.Header{}, err
	}
	return wire.Header{Name: "Set-Cookie", Value: c.String()}, nil
}

// Write appends the Set-Cookie header to resp.
func (c Cookie) Write(resp *wire.Response) error {
	h, err := c.Header()
	if err != nil {
		return err
	}
	resp.Headers = append(resp.Headers, h)
	return nil
}

// ParseSetCookie recovers a Cookie from a Set-Cookie field value.
// Unknown attributes are ignored as RFC 6265 requires.
func ParseSetCookie(value string) (Cookie, error) {
	parts := strings.Split(value, ";")
	name, val, err := parsePair(parts[0])
	if err != nil {
		return Cookie{}, fmt.Errorf("parse set-cookie: %w", err)
	}
	c := Cookie{Name: name, Value: val}

	for _, part := range parts[1:] {
		attr, attrValue, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch strings.ToLower(attr) {
		case "max-age":
			n, err := strconv.Atoi(attrValue)
			if err != nil {
				return Cookie{}, fmt.Errorf("parse set-cookie: %w: bad Max-Age %q", hanabi.ErrMalformedInput, attrValue)
			}
			if n <= 0 {
				n = -1
			}
			c.MaxAge = n
		case "path":
			c.Path = attrValue
		case "secure":
			c.Secure = true
		case "httponly":
			c.HttpOnly = true
		case "partitioned":
			c.Partitioned = true
		case "samesite":
			mode, err := ParseSameSite(attrValue)
			if err != nil {
				return Cookie{}, fmt.Errorf("parse set-cookie: %w", err)
			}
			c.SameSite = mode
		}
	}

	return c, nil
}

// cookie-name = token
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isTchar(name[i]) {
			return false
		}
	}
	return true
}

// cookie-value = *cookie-octet / ( DQUOTE *cookie-octet DQUOTE )
// cookie-octet = %x21 / %x23-2B / %x2D-3A / %x3C-5B / %x5D-7E
func isValidValue(value string) bool {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	for i := 0; i < len(value); i++ {
		b := value[i]
		if b < 0x21 || b > 0x7e || b == '"' || b == ',' || b == ';' || b == '\\' {
			return false
		}
	}
	return true
}

func isTchar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", b) >= 0
}
