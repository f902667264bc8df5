package profile

import "context"

// Repository provides persistence for the shared profiles document.
// User ids are normalized to lowercase on entry by every implementation.
type Repository interface {
	// Get returns the user's profile. Returns a NotFound-coded error if absent.
	Get(ctx context.Context, userID string) (*Profile, error)

	// ListAll returns every profile keyed by user id.
	ListAll(ctx context.Context) (map[string]Profile, error)

	// Create validates the fields, derives the user id from the first name
	// and inserts the profile with CreatedAt == UpdatedAt. An existing
	// profile under the same derived id is overwritten; last writer wins.
	Create(ctx context.Context, fields Fields) (userID string, p *Profile, err error)

	// Update merges the non-nil fields over the current profile, refreshes
	// UpdatedAt and keeps CreatedAt. Returns a NotFound-coded error if absent.
	Update(ctx context.Context, userID string, update Update) (*Profile, error)

	// Delete removes the profile. Returns a NotFound-coded error if absent.
	Delete(ctx context.Context, userID string) error
}
