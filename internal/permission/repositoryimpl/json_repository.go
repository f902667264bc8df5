package repositoryimpl

import (
	"context"
	"slices"

	"github.com/agentgate/agentgate/internal/permission"
	"github.com/agentgate/agentgate/pkg/cerr"
	"github.com/agentgate/agentgate/pkg/docstore"
	"github.com/agentgate/agentgate/pkg/storage"
)

// JSONRepository stores all permissions in a single JSON document mutated
// through the docstore retry loop.
type JSONRepository struct {
	store *docstore.Store[*permission.Document]
}

// NewJSONRepository creates a permission repository over the document at path.
func NewJSONRepository(s storage.Storage, path string, opts ...docstore.Option) *JSONRepository {
	return &JSONRepository{
		store: docstore.New(s, path, permission.NewDocument, opts...),
	}
}

func notFoundError(userID string) error {
	return cerr.NewAPIError(cerr.NotFound, "USER_NOT_FOUND", "User was not found in the system", nil).
		WithContext("user_id", userID)
}

func (r *JSONRepository) Exists(ctx context.Context, userID string) (bool, error) {
	userID = permission.NormalizeUserID(userID)
	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := doc.Permissions[userID]
	return ok, nil
}

func (r *JSONRepository) List(ctx context.Context, userID string) ([]string, error) {
	userID = permission.NormalizeUserID(userID)
	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	agents, ok := doc.Permissions[userID]
	if !ok {
		return nil, notFoundError(userID)
	}
	return slices.Clone(agents), nil
}

func (r *JSONRepository) CreateUser(ctx context.Context, userID string) (bool, error) {
	userID = permission.NormalizeUserID(userID)
	var created bool
	_, err := r.store.Mutate(ctx, func(doc *permission.Document) (*permission.Document, error) {
		if _, ok := doc.Permissions[userID]; ok {
			created = false
			return nil, docstore.ErrNoChange
		}
		created = true
		doc.Permissions[userID] = []string{}
		return doc, nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *JSONRepository) AddAgent(ctx context.Context, userID, agentName string) (*permission.AddResult, error) {
	userID = permission.NormalizeUserID(userID)
	var result *permission.AddResult
	_, err := r.store.Mutate(ctx, func(doc *permission.Document) (*permission.Document, error) {
		agents, ok := doc.Permissions[userID]
		switch {
		case !ok:
			doc.Permissions[userID] = []string{agentName}
			result = &permission.AddResult{
				UserID:          userID,
				AgentName:       agentName,
				Created:         true,
				PermittedAgents: []string{agentName},
			}
		case slices.Contains(agents, agentName):
			result = &permission.AddResult{
				UserID:          userID,
				AgentName:       agentName,
				AlreadyPresent:  true,
				PermittedAgents: slices.Clone(agents),
			}
			return nil, docstore.ErrNoChange
		default:
			doc.Permissions[userID] = append(agents, agentName)
			result = &permission.AddResult{
				UserID:          userID,
				AgentName:       agentName,
				PermittedAgents: slices.Clone(doc.Permissions[userID]),
			}
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
