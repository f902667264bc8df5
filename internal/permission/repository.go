package permission

import "context"

// Repository provides persistence for the shared permissions document.
// User ids are normalized to lowercase on entry by every implementation.
type Repository interface {
	// Exists reports whether the user has an entry in the document.
	Exists(ctx context.Context, userID string) (bool, error)

	// List returns the user's permitted agents in first-add order.
	// Returns a NotFound-coded error if the user is absent.
	List(ctx context.Context, userID string) ([]string, error)

	// CreateUser inserts the user with an empty agent list if absent.
	// created=false means the user already existed; the document is
	// untouched in that case.
	CreateUser(ctx context.Context, userID string) (created bool, err error)

	// AddAgent permits an agent for the user, creating the user if needed.
	AddAgent(ctx context.Context, userID, agentName string) (*AddResult, error)
}
