package repositoryimpl

import (
	"context"
	"maps"
	"time"

	"github.com/agentgate/agentgate/internal/profile"
	"github.com/agentgate/agentgate/pkg/cerr"
	"github.com/agentgate/agentgate/pkg/docstore"
	"github.com/agentgate/agentgate/pkg/storage"
)

// JSONRepository stores all profiles in a single JSON document mutated
// through the docstore retry loop.
type JSONRepository struct {
	store *docstore.Store[*profile.Document]
}

// NewJSONRepository creates a profile repository over the document at path.
func NewJSONRepository(s storage.Storage, path string, opts ...docstore.Option) *JSONRepository {
	return &JSONRepository{
		store: docstore.New(s, path, profile.NewDocument, opts...),
	}
}

func notFoundError(userID string) error {
	return cerr.NewAPIError(cerr.NotFound, "PROFILE_NOT_FOUND", "User profile was not found", nil).
		WithContext("user_id", userID)
}

func (r *JSONRepository) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	userID = profile.DeriveUserID(userID)
	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := doc.Profiles[userID]
	if !ok {
		return nil, notFoundError(userID)
	}
	return &p, nil
}

func (r *JSONRepository) ListAll(ctx context.Context) (map[string]profile.Profile, error) {
	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(doc.Profiles), nil
}

func (r *JSONRepository) Create(ctx context.Context, fields profile.Fields) (string, *profile.Profile, error) {
	if err := profile.ValidateFields(fields); err != nil {
		return "", nil, err
	}
	userID := profile.DeriveUserID(fields.FirstName)
	var created profile.Profile
	_, err := r.store.Mutate(ctx, func(doc *profile.Document) (*profile.Document, error) {
		now := time.Now().UTC()
		created = profile.Profile{
			Email:     fields.Email,
			FirstName: fields.FirstName,
			LastName:  fields.LastName,
			Phone:     fields.Phone,
			Company:   fields.Company,
			Role:      fields.Role,
			Bio:       fields.Bio,
			CreatedAt: now,
			UpdatedAt: now,
		}
		doc.Profiles[userID] = created
		return doc, nil
	})
	if err != nil {
		return "", nil, err
	}
	return userID, &created, nil
}

func (r *JSONRepository) Update(ctx context.Context, userID string, update profile.Update) (*profile.Profile, error) {
	userID = profile.DeriveUserID(userID)
	var updated profile.Profile
	_, err := r.store.Mutate(ctx, func(doc *profile.Document) (*profile.Document, error) {
		current, ok := doc.Profiles[userID]
		if !ok {
			return nil, notFoundError(userID)
		}
		merged := current.Merge(update)
		if err := profile.ValidateFields(merged.Fields()); err != nil {
			return nil, err
		}
		merged.CreatedAt = current.CreatedAt
		merged.UpdatedAt = time.Now().UTC()
		doc.Profiles[userID] = merged
		updated = merged
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *JSONRepository) Delete(ctx context.Context, userID string) error {
	userID = profile.DeriveUserID(userID)
	_, err := r.store.Mutate(ctx, func(doc *profile.Document) (*profile.Document, error) {
		if _, ok := doc.Profiles[userID]; !ok {
			return nil, notFoundError(userID)
		}
		delete(doc.Profiles, userID)
		return doc, nil
	})
	return err
}
