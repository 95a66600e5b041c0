// Package auth resolves the user on whose behalf a share is saved.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"savesense/internal/domain"
	"savesense/internal/storage"
)

// ErrNoSession is returned when no user is signed in.
var ErrNoSession = errors.New("no active session")

// ErrInvalidEmail is returned by Login for malformed addresses.
var ErrInvalidEmail = errors.New("invalid email address")

// Provider returns the currently signed-in user.
type Provider interface {
	CurrentUser(ctx context.Context) (domain.User, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (domain.User, error)

func (f ProviderFunc) CurrentUser(ctx context.Context) (domain.User, error) { return f(ctx) }

// UserForEmail derives a stable user identity from an email address, so the
// same address maps to the same store across devices and sign-ins.
func UserForEmail(email string) (domain.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	normalized := strings.ToLower(addr.Address)
	return domain.User{
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+normalized)).String(),
		Email: normalized,
	}, nil
}

// Static is a Provider with a fixed, possibly absent, user.
type Static struct {
	User *domain.User
}

// NewStatic builds a provider from configured credentials. An empty email
// yields a provider without a session.
func NewStatic(userID, email string) (Static, error) {
	if strings.TrimSpace(email) == "" && strings.TrimSpace(userID) == "" {
		return Static{}, nil
	}
	if userID != "" {
		return Static{User: &domain.User{ID: userID, Email: email}}, nil
	}
	u, err := UserForEmail(email)
	if err != nil {
		return Static{}, err
	}
	return Static{User: &u}, nil
}

func (s Static) CurrentUser(context.Context) (domain.User, error) {
	if s.User == nil || s.User.ID == "" {
		return domain.User{}, ErrNoSession
	}
	return *s.User, nil
}

// ChatSessions manages logins of chat accounts.
type ChatSessions struct {
	store storage.SessionStore
}

// NewChatSessions creates a new chat session manager.
func NewChatSessions(store storage.SessionStore) *ChatSessions {
	return &ChatSessions{store: store}
}

// Login signs a chat account in as the owner of email.
func (c *ChatSessions) Login(ctx context.Context, chatUserID int64, email string) (domain.User, error) {
	u, err := UserForEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	if err := c.store.SaveSession(ctx, chatUserID, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Logout signs a chat account out.
func (c *ChatSessions) Logout(ctx context.Context, chatUserID int64) error {
	return c.store.DeleteSession(ctx, chatUserID)
}

// For returns a Provider bound to one chat account.
func (c *ChatSessions) For(chatUserID int64) Provider {
	return ProviderFunc(func(ctx context.Context) (domain.User, error) {
		u, err := c.store.GetSession(ctx, chatUserID)
		if errors.Is(err, storage.ErrNotFound) {
			return domain.User{}, ErrNoSession
		}
		if err != nil {
			return domain.User{}, err
		}
		return u, nil
	})
}
