package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savesense/internal/domain"
)

type failingLookupRepo struct {
	*memoryRepo
}

func (failingLookupRepo) FindOne(context.Context, string, string) (domain.SharedEntry, error) {
	return domain.SharedEntry{}, errors.New("disk on fire")
}

func TestGate_Save(t *testing.T) {
	repo := newMemoryRepo()
	g := NewGate(repo, testLogger())
	candidate := domain.SharedEntry{UserID: "u1", Value: "https://example.com", ContentType: domain.KindWebURL}

	saved, existed, err := g.Save(context.Background(), candidate)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEmpty(t, saved.ID)

	again, existed, err := g.Save(context.Background(), candidate)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, saved.ID, again.ID)
	assert.Equal(t, 1, repo.inserts)

	other := candidate
	other.UserID = "u2"
	_, existed, err = g.Save(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, existed, "dedup is scoped per user")
}

func TestGate_LookupError(t *testing.T) {
	repo := newMemoryRepo()
	g := NewGate(failingLookupRepo{repo}, testLogger())

	_, _, err := g.Save(context.Background(), domain.SharedEntry{UserID: "u1", Value: "v"})
	assert.ErrorContains(t, err, "failed to check for duplicates")
	assert.Zero(t, repo.inserts)
}

// expiringRepo lets the context run out while the lookup is in progress.
type expiringRepo struct {
	*memoryRepo
	cancel context.CancelFunc
}

func (r expiringRepo) FindOne(ctx context.Context, userID, value string) (domain.SharedEntry, error) {
	r.cancel()
	return r.memoryRepo.FindOne(ctx, userID, value)
}

func TestGate_NoInsertAfterContextDone(t *testing.T) {
	repo := newMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := NewGate(expiringRepo{memoryRepo: repo, cancel: cancel}, testLogger())

	_, _, err := g.Save(ctx, domain.SharedEntry{UserID: "u1", Value: "https://example.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, repo.inserts)
}
