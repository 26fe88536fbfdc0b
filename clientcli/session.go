package clientcli

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Session is a stored session token for one endpoint.
type Session struct {
	CookieName string    `yaml:"cookie_name"`
	Token      string    `yaml:"token"`
	User       string    `yaml:"user,omitempty"`
	// Expires is zero when the server sent no Max-Age.
	Expires time.Time `yaml:"expires,omitempty"`
}

// Expired reports whether the session lifetime has passed at now.
func (s Session) Expired(now time.Time) bool {
	return !s.Expires.IsZero() && !now.Before(s.Expires)
}

// SessionFile persists sessions between CLI invocations, keyed by endpoint.
type SessionFile struct {
	Sessions map[string]Session `yaml:"sessions"`
}

// DefaultSessionPath returns the default session file path (~/.hanabi/sessions.yaml).
func DefaultSessionPath() string {
	return homePath("sessions.yaml")
}

// LoadSessionFile reads path. A missing file yields an empty SessionFile.
func LoadSessionFile(path string) (*SessionFile, error) {
	var f SessionFile
	if err := readYAML(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SessionFile{Sessions: map[string]Session{}}, nil
		}
		return nil, err
	}
	if f.Sessions == nil {
		f.Sessions = map[string]Session{}
	}
	return &f, nil
}

// Get returns the unexpired session stored for endpoint.
func (f *SessionFile) Get(endpoint string, now time.Time) (Session, bool) {
	s, ok := f.Sessions[sessionKey(endpoint)]
	if !ok || s.Token == "" || s.Expired(now) {
		return Session{}, false
	}
	return s, true
}

// Set stores s for endpoint.
func (f *SessionFile) Set(endpoint string, s Session) {
	if f.Sessions == nil {
		f.Sessions = map[string]Session{}
	}
	f.Sessions[sessionKey(endpoint)] = s
}

// Delete forgets the session for endpoint.
func (f *SessionFile) Delete(endpoint string) {
	delete(f.Sessions, sessionKey(endpoint))
}

// Save writes the file with owner-only permissions.
func (f *SessionFile) Save(path string) error {
	return writeYAML(path, f)
}

func sessionKey(endpoint string) string {
	return strings.TrimSuffix(endpoint, "/")
}
