package clientcli

import "github.com/hanabi-drive/hanabi"

// Identity is the clearance the server reports for the current session.
type Identity struct {
	Endpoint  string           `json:"endpoint"`
	Clearance hanabi.Clearance `json:"-"`
	Level     int              `json:"clearance"`
	Name      string           `json:"clearance_name"`
	Session   bool             `json:"session"`
}

// Result describes the outcome of an account action.
type Result struct {
	Action     string `json:"action"`
	User       string `json:"user,omitempty"`
	StatusCode int    `json:"status"`
	Message    string `json:"message,omitempty"`
	// SessionIssued is true when the server set a new session cookie.
	SessionIssued bool `json:"session_issued"`
}
