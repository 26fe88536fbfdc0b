package hanabi

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Credential is a persisted name/password pair.
type Credential struct {
	Name     string `json:"name" validate:"required,max=128,printascii"`
	Password string `json:"password" validate:"required,max=128,printascii"`
}

// Clearance is the authorization level associated with a session.
type Clearance uint8

const (
	Nameless  Clearance = 0
	Traveller Clearance = 1
	Citizen   Clearance = 2
	Mayor     Clearance = 4
)

// ClearanceFrom maps an integer level to a Clearance.
// Unrecognized values map to Nameless.
func ClearanceFrom(level int) Clearance {
	switch level {
	case 1:
		return Traveller
	case 2:
		return Citizen
	case 4:
		return Mayor
	default:
		return Nameless
	}
}

func (c Clearance) String() string {
	switch c {
	case Nameless:
		return "nameless"
	case Traveller:
		return "traveller"
	case Citizen:
		return "citizen"
	case Mayor:
		return "mayor"
	default:
		return "clearance(" + strconv.Itoa(int(c)) + ")"
	}
}

// Tables holds configurable table names for credential storage.
type Tables struct {
	Users string `mapstructure:"users" yaml:"users"`
}

// DefaultTables returns the default table names.
func DefaultTables() Tables {
	return Tables{Users: "users"}
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}

	if !IsValidTableName(t.Users) {
		return fmt.Errorf("validate tables: invalid users table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Users)
	}

	return nil
}
