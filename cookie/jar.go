package cookie

import (
	"fmt"
	"strings"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/wire"
)

// Pair is a cookie name/value pair received in a Cookie header.
type Pair struct {
	Name  string
	Value string
}

// Jar holds the cookies a request carried, in the order they were sent.
type Jar []Pair

// Get returns the value of the first cookie named name.
func (j Jar) Get(name string) (string, bool) {
	for _, p := range j {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Len returns the number of cookies in the jar, duplicates included.
func (j Jar) Len() int {
	return len(j)
}

// Has reports whether a cookie named name was sent.
func (j Jar) Has(name string) bool {
	_, ok := j.Get(name)
	return ok
}

// Read parses every Cookie header into a Jar. A request without cookies yields an
// empty jar and no error; only structurally invalid cookie syntax is an error.
func Read(headers wire.Headers) (Jar, error) {
	var jar Jar
	for _, line := range headers.Values("Cookie") {
		// cookie-string = cookie-pair *( ";" SP cookie-pair )
		for _, part := range strings.Split(line, ";") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			name, value, err := parsePair(part)
			if err != nil {
				return nil, fmt.Errorf("read cookies: %w", err)
			}
			jar = append(jar, Pair{Name: name, Value: value})
		}
	}
	return jar, nil
}

func parsePair(part string) (string, string, error) {
	name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
	if !ok {
		return "", "", fmt.Errorf("%w: cookie pair %q has no '='", hanabi.ErrMalformedInput, part)
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !isValidName(name) {
		return "", "", fmt.Errorf("%w: invalid cookie name %q", hanabi.ErrMalformedInput, name)
	}
	if !isValidValue(value) {
		return "", "", fmt.Errorf("%w: invalid value for cookie %s", hanabi.ErrMalformedInput, name)
	}
	return name, value, nil
}
