package user

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
)

// Session holds the current identity of the running instance, mirrored into local storage.
// It starts in the loading state until Restore completes.
type Session struct {
	store core.LocalStorage
	key   string

	mu       sync.RWMutex
	current  *User
	restored bool
	busy     int    // in-flight login/signup
	gen      uint64 // bumped on every set/clear
}

func NewSession(store core.LocalStorage, conf *core.Config) *Session {
	return &Session{store: store, key: conf.Auth.SessionKey}
}

// Key returns the local storage key of the persisted identity.
func (s *Session) Key() string { return s.key }

func (s *Session) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return User{}, false
	}
	return *s.current, true
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.restored || s.busy > 0
}

// Guard decides what an identity-requiring view should do given the current state.
func (s *Session) Guard() (GuardDecision, User) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var usr User
	if s.current != nil {
		usr = *s.current
	}
	return Guard(!s.restored || s.busy > 0, s.current != nil), usr
}

// begin marks an auth operation in flight; the returned func ends it.
func (s *Session) begin() func() {
	s.mu.Lock()
	s.busy++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.busy--
			s.mu.Unlock()
		})
	}
}

// set persists usr then makes it current. On failure the Session is unchanged.
func (s *Session) set(ctx context.Context, usr User) error {
	data, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding session user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.store.Set(ctx, s.key, data); err != nil {
		return errors.Wrap(err, "persisting session user")
	}
	usr.PasswordHash = nil
	s.current = &usr
	s.gen++
	return nil
}

// clear forgets the current identity and removes the persisted record.
func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.gen++
	if err := s.store.Remove(ctx, s.key); err != nil {
		return errors.Wrap(err, "removing persisted session user")
	}
	return nil
}

// generation identifies the last set/clear.
func (s *Session) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// drop removes the persisted record unless a set/clear happened since gen.
func (s *Session) drop(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	if err := s.store.Remove(ctx, s.key); err != nil {
		return errors.Wrap(err, "removing persisted session user")
	}
	return nil
}

// persisted reads the stored identity. ok is false when nothing is stored.
func (s *Session) persisted(ctx context.Context) (usr User, ok bool, err error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Cause(err) == core.ErrNoValue {
			return User{}, false, nil
		}
		return User{}, false, errors.Wrap(err, "reading persisted session user")
	}
	if err = json.Unmarshal(data, &usr); err != nil {
		return User{}, false, errors.Wrap(errCorruptSession, err.Error())
	}
	if usr.ID == "" || !(usr.Role == RoleStudent || usr.Role == RoleAdmin) {
		return User{}, false, errCorruptSession
	}
	return usr, true, nil
}

// resolve ends the initial loading state, optionally with a restored identity.
// usr is ignored when a login or logout happened since gen.
func (s *Session) resolve(usr *User, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if usr != nil && s.gen == gen {
		s.current = usr
	}
	s.restored = true
}
