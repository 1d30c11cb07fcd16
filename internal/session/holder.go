package session

import (
	"sync"

	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

// Identity is the signed-in user together with the token that proves it
type Identity struct {
	Token string
	User  *sdk.User
}

// Holder owns the current identity. Every view reads it; only the app lifecycle writes it.
type Holder struct {
	mu       sync.RWMutex
	identity *Identity
}

func NewHolder() *Holder {
	return &Holder{}
}

// Set installs a new identity, replacing any previous one
func (h *Holder) Set(token string, user *sdk.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var u *sdk.User
	if user != nil {
		cp := *user
		u = &cp
	}
	h.identity = &Identity{Token: token, User: u}
}

// Clear drops the identity
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = nil
}

// UpdateUser replaces the profile copy while keeping the token
func (h *Holder) UpdateUser(user *sdk.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.identity == nil || user == nil {
		return
	}
	cp := *user
	h.identity.User = &cp
}

// Current returns a copy of the identity, or nil when signed out
func (h *Holder) Current() *Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.identity == nil {
		return nil
	}
	id := *h.identity
	if id.User != nil {
		u := *id.User
		id.User = &u
	}
	return &id
}

// User returns the current user, or nil when signed out
func (h *Holder) User() *sdk.User {
	if id := h.Current(); id != nil {
		return id.User
	}
	return nil
}

// UserId returns the current user's id, or "" when signed out
func (h *Holder) UserId() string {
	if u := h.User(); u != nil {
		return u.Id
	}
	return ""
}

// Token returns the current token, or "" when signed out
func (h *Holder) Token() string {
	if id := h.Current(); id != nil {
		return id.Token
	}
	return ""
}

// IsAuthenticated reports whether a user is signed in
func (h *Holder) IsAuthenticated() bool {
	return h.UserId() != ""
}

// Require returns the current user id or the login-required error for gated actions
func (h *Holder) Require() (string, error) {
	userId := h.UserId()
	if userId == "" {
		return "", errcode.ErrLoginRequired
	}
	return userId, nil
}
