package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hanabi-drive/hanabi"
)

type seedEntry struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoadSeedFile loads credentials from a JSON file.
// The file should contain an array of name/password pairs:
//
//	[
//	  {"name": "alice", "password": "wonder"},
//	  {"name": "bob", "password": "builder"}
//	]
//
// Entries with an empty name or password are skipped.
func LoadSeedFile(path string) ([]hanabi.Credential, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	creds := make([]hanabi.Credential, 0, len(entries))
	for _, e := range entries {
		if e.Name != "" && e.Password != "" {
			creds = append(creds, hanabi.Credential{Name: e.Name, Password: e.Password})
		}
	}

	return creds, nil
}
