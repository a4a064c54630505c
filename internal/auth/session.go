// Package auth tracks the signed-in identity and tells subscribers when it
// changes.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"loot-tracker/internal/localstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const guestPrefix = "guest-"

type Identity struct {
	UserID       string `json:"userId"`
	Guest        bool   `json:"guest"`
	Email        string `json:"email,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Listener receives the previous and the new identity. Either may be nil.
type Listener func(prev, next *Identity)

type Session struct {
	mu        sync.Mutex
	current   *Identity
	kv        localstore.KV
	listeners map[int]Listener
	nextID    int
	logger    zerolog.Logger
}

func NewSession(kv localstore.KV, logger zerolog.Logger) *Session {
	return &Session{
		kv:        kv,
		listeners: make(map[int]Listener),
		logger:    logger.With().Str("component", "session").Logger(),
	}
}

// Current returns a copy of the active identity, nil when signed out.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.current)
}

func (s *Session) UserID() string {
	if id := s.Current(); id != nil {
		return id.UserID
	}
	return ""
}

func (s *Session) SignIn(ctx context.Context, id Identity) error {
	if id.UserID == "" {
		return fmt.Errorf("identity has no user id")
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, localstore.SessionKey, data); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	s.swap(&id)
	s.logger.Info().Str("uid", id.UserID).Bool("guest", id.Guest).Msg("signed in")
	return nil
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := s.kv.Delete(ctx, localstore.SessionKey); err != nil {
		return fmt.Errorf("failed to clear cached session: %w", err)
	}
	s.swap(nil)
	s.logger.Info().Msg("signed out")
	return nil
}

// Restore loads the cached identity, if any, and makes it current. Restoring
// counts as a sign-in for subscribers.
func (s *Session) Restore(ctx context.Context) (*Identity, error) {
	data, ok, err := s.kv.Get(ctx, localstore.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil || id.UserID == "" {
		s.logger.Warn().Err(err).Msg("discarding unreadable cached session")
		return nil, s.kv.Delete(ctx, localstore.SessionKey)
	}
	s.swap(&id)
	s.logger.Info().Str("uid", id.UserID).Msg("session restored")
	return clone(&id), nil
}

// Subscribe registers fn for every identity change and returns a function
// that removes it.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// GuestIdentity returns the device-bound guest identity, generating and
// persisting its id on first use.
func (s *Session) GuestIdentity(ctx context.Context) (Identity, error) {
	data, ok, err := s.kv.Get(ctx, localstore.DeviceKey)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read device id: %w", err)
	}
	if ok && len(data) > 0 {
		return Identity{UserID: string(data), Guest: true}, nil
	}
	deviceID := guestPrefix + uuid.New().String()
	if err := s.kv.Set(ctx, localstore.DeviceKey, []byte(deviceID)); err != nil {
		return Identity{}, fmt.Errorf("failed to persist device id: %w", err)
	}
	return Identity{UserID: deviceID, Guest: true}, nil
}

func (s *Session) swap(next *Identity) {
	s.mu.Lock()
	prev := s.current
	s.current = clone(next)
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(clone(prev), clone(next))
	}
}

func clone(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
