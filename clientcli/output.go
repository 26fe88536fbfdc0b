package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Formatter formats results for output.
type Formatter interface {
	FormatResult(w io.Writer, result *Result) error
	FormatIdentity(w io.Writer, identity *Identity) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool, session *Session) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatResult formats an account action as human-readable text.
func (f *HumanFormatter) FormatResult(w io.Writer, result *Result) error {
	if f.Quiet {
		return nil
	}
	switch result.Action {
	case "register":
		_, _ = fmt.Fprintf(w, "Registered: %s\n", result.User)
	case "login":
		_, _ = fmt.Fprintf(w, "Logged in: %s\n", result.User)
	case "logout":
		_, _ = fmt.Fprintln(w, "Logged out")
	default:
		_, _ = fmt.Fprintf(w, "%s: %d\n", result.Action, result.StatusCode)
	}
	if result.SessionIssued {
		_, _ = fmt.Fprintln(w, "  New session issued")
	}
	return nil
}

// FormatIdentity formats the session clearance as human-readable text.
func (f *HumanFormatter) FormatIdentity(w io.Writer, identity *Identity) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, identity.Name)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Endpoint:  %s\n", identity.Endpoint)
	_, _ = fmt.Fprintf(w, "Clearance: %s (%d)\n", identity.Name, identity.Level)
	if identity.Session {
		_, _ = fmt.Fprintln(w, "Session:   active")
	} else {
		_, _ = fmt.Fprintln(w, "Session:   none")
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList prints one row per profile, marking the default with '*'.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  NAME\tENDPOINT\tUSER")
	for _, p := range profiles {
		marker := ' '
		if p.Name == defaultName {
			marker = '*'
		}
		user := p.User
		if user == "" {
			user = "-"
		}
		_, _ = fmt.Fprintf(tw, "%c %s\t%s\t%s\n", marker, truncate(p.Name, 20), truncate(p.Endpoint, 50), user)
	}
	return tw.Flush()
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool, session *Session) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Origin:   %s\n", orNotSet(profile.Origin))
	_, _ = fmt.Fprintf(w, "User:     %s\n", orNotSet(profile.User))
	if session != nil {
		_, _ = fmt.Fprintf(w, "Session:  %s\n", maskSecret(session.Token))
	} else {
		_, _ = fmt.Fprintln(w, "Session:  (none)")
	}
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatResult formats an account action as JSON.
func (f *JSONFormatter) FormatResult(w io.Writer, result *Result) error {
	return writeJSON(w, result)
}

// FormatIdentity formats the session clearance as JSON.
func (f *JSONFormatter) FormatIdentity(w io.Writer, identity *Identity) error {
	return writeJSON(w, identity)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

type profileEntry struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Origin   string `json:"origin,omitempty"`
	User     string `json:"user,omitempty"`
	Default  bool   `json:"default,omitempty"`
}

func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	entries := make([]profileEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, profileEntry{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Origin:   p.Origin,
			User:     p.User,
			Default:  p.Name == defaultName,
		})
	}
	return writeJSON(w, map[string]any{"profiles": entries})
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool, session *Session) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Origin   string `json:"origin"`
		User     string `json:"user"`
		Default  bool   `json:"default"`
		Session  string `json:"session,omitempty"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Origin:   profile.Origin,
		User:     profile.User,
		Default:  isDefault,
	}
	if session != nil {
		output.Session = maskSecret(session.Token)
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
