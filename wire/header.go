package wire

import "strings"

// Header is a single field/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list. Lookups are case-insensitive; order and
// duplicates are preserved exactly as added.
type Headers []Header

// Get returns the value of the first field matching name.
func (h Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Lookup returns the value of the first field matching name and whether it exists.
func (h Headers) Lookup(name string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value of fields matching name, in order.
func (h Headers) Values(name string) []string {
	var values []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

// Has reports whether a field matching name exists.
func (h Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Add appends a field.
func (h *Headers) Add(name, value string) {
	*h = append(*h, Header{Name: name, Value: value})
}

// Set replaces the first field matching name and removes the rest.
// If no field matches, the field is appended.
func (h *Headers) Set(name, value string) {
	found := false
	out := (*h)[:0]
	for _, f := range *h {
		if strings.EqualFold(f.Name, name) {
			if found {
				continue
			}
			found = true
			f.Value = value
		}
		out = append(out, f)
	}
	*h = out
	if !found {
		h.Add(name, value)
	}
}

// Del removes every field matching name.
func (h *Headers) Del(name string) {
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	*h = out
}

// splitList splits a comma-separated field value, trimming optional whitespace and
// dropping empty elements.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// List returns the comma-separated elements of every field matching name.
func (h Headers) List(name string) []string {
	var items []string
	for _, v := range h.Values(name) {
		items = append(items, splitList(v)...)
	}
	return items
}
