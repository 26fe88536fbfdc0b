package hanabi

import "context"

// CredentialStore defines the contract over the persisted name/password table.
// Implementations must be safe for concurrent use; serialization of writers against
// readers is delegated to the backend's own transaction semantics.
//
// All methods accept a context for cancellation and timeout control.
type CredentialStore interface {
	// Insert persists a new credential record.
	// Names are not unique: inserting an existing name adds another record.
	//
	// Returns:
	//   - error: any database error
	Insert(ctx context.Context, cred Credential) error

	// Find looks up a credential by exact name and password match.
	//
	// Returns:
	//   - Credential: the matching record
	//   - error: ErrNotFound if no record matches, or other database errors
	Find(ctx context.Context, name, password string) (Credential, error)

	// List returns the stored names in insertion order.
	List(ctx context.Context) ([]string, error)
}
