package embeds

import "context"

// Resolver turns a user-supplied URL into parsed embed metadata.
// Implementations own the network policy (timeouts, user agent); the
// coordinator treats a call as blocking for the duration of the round trip.
type Resolver interface {
	// Resolve fetches and parses embed metadata for the URL.
	// Returns an error on transport or parse failure; a response whose URL
	// field is empty means the provider had nothing usable.
	Resolve(ctx context.Context, url string) (*RawEmbedInfo, error)
}

// Repository defines the interface for embed record persistence.
// The storage layer is the authority on identity assignment.
type Repository interface {
	// Create inserts a new record and assigns its identity.
	Create(ctx context.Context, record *EmbedRecord) error

	// GetByID retrieves a record by identity.
	// Returns ErrRecordNotFound when the identity does not exist.
	GetByID(ctx context.Context, id int64) (*EmbedRecord, error)

	// GetBySourceURL retrieves a record whose source_url matches exactly.
	// Returns nil, nil when no record matches (not an error condition).
	GetBySourceURL(ctx context.Context, sourceURL string) (*EmbedRecord, error)

	// Delete removes a record by identity. Deleting a missing record is a
	// no-op, not an error.
	Delete(ctx context.Context, id int64) error
}
