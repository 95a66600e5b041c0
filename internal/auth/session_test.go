package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savesense/internal/domain"
	"savesense/internal/storage"
)

type memorySessions struct {
	sessions map[int64]domain.User
	err      error
}

func (m *memorySessions) GetSession(_ context.Context, id int64) (domain.User, error) {
	if m.err != nil {
		return domain.User{}, m.err
	}
	u, ok := m.sessions[id]
	if !ok {
		return domain.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memorySessions) SaveSession(_ context.Context, id int64, u domain.User) error {
	m.sessions[id] = u
	return nil
}

func (m *memorySessions) DeleteSession(_ context.Context, id int64) error {
	delete(m.sessions, id)
	return nil
}

func TestUserForEmail(t *testing.T) {
	a, err := UserForEmail("Alice@Example.com")
	require.NoError(t, err)
	b, err := UserForEmail(" alice@example.com ")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "alice@example.com", a.Email)
	assert.Len(t, a.ID, 36)

	_, err = UserForEmail("not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestStatic(t *testing.T) {
	empty, err := NewStatic("", "")
	require.NoError(t, err)
	_, err = empty.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	byEmail, err := NewStatic("", "bob@example.com")
	require.NoError(t, err)
	u, err := byEmail.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)

	byID, err := NewStatic("fixed-id", "bob@example.com")
	require.NoError(t, err)
	u, err = byID.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", u.ID)
}

func TestChatSessions(t *testing.T) {
	store := &memorySessions{sessions: map[int64]domain.User{}}
	sessions := NewChatSessions(store)
	ctx := context.Background()

	provider := sessions.For(7)
	_, err := provider.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = sessions.Login(ctx, 7, "bad")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	u, err := sessions.Login(ctx, 7, "carol@example.com")
	require.NoError(t, err)

	got, err := provider.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	require.NoError(t, sessions.Logout(ctx, 7))
	_, err = provider.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	store.err = errors.New("disk gone")
	_, err = provider.CurrentUser(ctx)
	assert.EqualError(t, err, "disk gone")
}
