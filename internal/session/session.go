// Package session resolves who is looking at the portal. Components receive
// a User explicitly; nothing reads identity from globals.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hostel-portal/internal/role"
	"hostel-portal/internal/storage"
)

var ErrNoSession = errors.New("no active session")

type User struct {
	ID          string    `json:"id,omitempty"`
	Role        role.Role `json:"role"`
	Name        string    `json:"name,omitempty"`
	Username    string    `json:"username,omitempty"`
	Designation string    `json:"designation,omitempty"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	Token       string    `json:"token,omitempty"`
}

// DisplayName prefers the full name, then the username.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	return strings.TrimSpace(u.Username)
}

// Key identifies the viewer for per-user bookkeeping (rate limits, uploads).
func (u User) Key() string {
	if u.ID != "" {
		return u.ID
	}
	return u.Username
}

// StoreProvider reads the viewer record persisted under a fixed key of a
// local store. It never writes.
type StoreProvider struct {
	store storage.Store
	key   string
}

func NewStoreProvider(store storage.Store, key string) *StoreProvider {
	return &StoreProvider{store: store, key: key}
}

func (p *StoreProvider) Current(_ context.Context) (User, error) {
	var u User
	if err := storage.GetJSON(p.store, p.key, &u); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return User{}, ErrNoSession
		}
		return User{}, fmt.Errorf("read session record: %w", err)
	}
	u.Role = role.Parse(string(u.Role))
	return u, nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}
