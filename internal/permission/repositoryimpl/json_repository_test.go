package repositoryimpl

import (
	"context"
	"fmt"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate/agentgate/pkg/cerr"
	"github.com/agentgate/agentgate/pkg/docstore"
	"github.com/agentgate/agentgate/pkg/storage"
)

func newTestRepository(t *testing.T, opts ...docstore.Option) *JSONRepository {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewJSONRepository(s, "permissions.json", opts...)
}

func TestAddAgentCreatesUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	result, err := repo.AddAgent(ctx, "abhinav", "image-generator")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.False(t, result.AlreadyPresent)
	assert.Equal(t, []string{"image-generator"}, result.PermittedAgents)
}

func TestAddAgentAppendsPreservingOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddAgent(ctx, "user_123", "data-analyst")
	require.NoError(t, err)
	_, err = repo.AddAgent(ctx, "user_123", "image-generator")
	require.NoError(t, err)

	result, err := repo.AddAgent(ctx, "user_123", "code-reviewer")
	require.NoError(t, err)

	assert.False(t, result.Created)
	assert.False(t, result.AlreadyPresent)
	assert.Equal(t, []string{"data-analyst", "image-generator", "code-reviewer"}, result.PermittedAgents)
}

func TestAddAgentAlreadyPresent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddAgent(ctx, "user_123", "data-analyst")
	require.NoError(t, err)
	_, err = repo.AddAgent(ctx, "user_123", "image-generator")
	require.NoError(t, err)

	result, err := repo.AddAgent(ctx, "user_123", "data-analyst")
	require.NoError(t, err)

	assert.True(t, result.AlreadyPresent)
	assert.Equal(t, []string{"data-analyst", "image-generator"}, result.PermittedAgents)

	// The sequence is unchanged.
	agents, err := repo.List(ctx, "user_123")
	require.NoError(t, err)
	assert.Equal(t, []string{"data-analyst", "image-generator"}, agents)
}

func TestAddAgentIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.AddAgent(ctx, "u", "a")
		require.NoError(t, err)
	}
	agents, err := repo.List(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, agents)
}

func TestAddAgentNormalizesUserID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddAgent(ctx, "Abhinav", "image-generator")
	require.NoError(t, err)

	agents, err := repo.List(ctx, "ABHINAV")
	require.NoError(t, err)
	assert.Equal(t, []string{"image-generator"}, agents)
}

func TestAddAgentOverNullPermissionsMap(t *testing.T) {
	// `"permissions": null` decodes without error; writes against the loaded
	// document must still land in a usable map.
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, err = s.Write(context.Background(), "permissions.json",
		[]byte(`{"last_updated":"2026-01-01T00:00:00Z","permissions":null}`), "")
	require.NoError(t, err)
	repo := NewJSONRepository(s, "permissions.json")

	result, err := repo.AddAgent(context.Background(), "alice", "image-generator")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, []string{"image-generator"}, result.PermittedAgents)
}

func TestListMissingUser(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.List(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestExists(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "someone")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.AddAgent(ctx, "someone", "x")
	require.NoError(t, err)

	exists, err = repo.Exists(ctx, "someone")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "User_1")
	require.NoError(t, err)
	assert.True(t, created)

	agents, err := repo.List(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, agents)

	created, err = repo.CreateUser(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestConcurrentAddsLoseNothing(t *testing.T) {
	// Contenders race on the same initially-absent user; conflicts force
	// retries, but every distinct agent must survive in the final sequence.
	const n = 8
	repo := newTestRepository(t, docstore.WithAttempts(n*4))
	ctx := context.Background()

	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		agent := fmt.Sprintf("agent-%d", i)
		wg.Go(func() {
			result, err := repo.AddAgent(ctx, "shared", agent)
			assert.NoError(t, err)
			if err == nil {
				assert.False(t, result.AlreadyPresent)
			}
		})
	}
	wg.Wait()

	agents, err := repo.List(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, agents, n)
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		want = append(want, fmt.Sprintf("agent-%d", i))
	}
	assert.ElementsMatch(t, want, agents)
}
