package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/client/securestore"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	guestMarker = "true"
)

var ErrInvalidTheme = errors.New("theme must be light or dark")

// Manager is the session state machine. It is safe for concurrent use:
// storeMu serialises every multi-key store sequence, mu guards the
// in-memory state.
type Manager struct {
	store securestore.Store
	log   logging.Logger

	storeMu sync.Mutex

	mu    sync.RWMutex
	state State

	loadOnce   sync.Once
	loadedOnce sync.Once
	loaded     chan struct{}

	subsMu sync.Mutex
	subs   map[int]func(models.User)
	nextID int
}

func NewManager(store securestore.Store, log logging.Logger) *Manager {
	return &Manager{
		store:  store,
		log:    log.With("component", "session"),
		loaded: make(chan struct{}),
		subs:   make(map[int]func(models.User)),
	}
}

func (m *Manager) markLoaded() {
	m.loadedOnce.Do(func() { close(m.loaded) })
}

// Load reads the persisted credentials once per Manager. Later calls return
// the current state without touching the store.
func (m *Manager) Load(ctx context.Context) State {
	m.loadOnce.Do(func() {
		m.storeMu.Lock()
		user, ok := m.restore(ctx)
		m.storeMu.Unlock()

		if ok {
			m.notify(user)
		}
		m.markLoaded()
	})
	return m.Snapshot()
}

// restore decides the initial mode. Caller holds storeMu.
func (m *Manager) restore(ctx context.Context) (models.User, bool) {
	m.mu.RLock()
	decided := m.state.Mode != ModeLoading
	m.mu.RUnlock()
	if decided {
		return models.User{}, false
	}

	token, user, err := m.readCredentials(ctx)
	if err != nil {
		m.log.Warn(ctx, "session restore failed, continuing as guest", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil || token == "" || user == nil {
		m.state = State{Mode: ModeGuest}
		return models.User{}, false
	}
	m.state = newAuthenticated(token, *user)
	return *user, true
}

func (m *Manager) readCredentials(ctx context.Context) (string, *models.User, error) {
	token, ok, err := m.store.Get(ctx, securestore.KeyUserToken)
	if err != nil || !ok {
		return "", nil, err
	}
	raw, ok, err := m.store.Get(ctx, securestore.KeyUserData)
	if err != nil || !ok {
		return "", nil, err
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func newAuthenticated(token string, user models.User) State {
	s := State{Mode: ModeAuthenticated, Token: token, User: &user}
	if exp, ok := TokenExpiry(token); ok {
		s.TokenExpiresAt = exp
	}
	return s
}

// WaitLoaded blocks until the mode has left ModeLoading.
func (m *Manager) WaitLoaded(ctx context.Context) error {
	select {
	case <-m.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) save(ctx context.Context, key, value string) {
	if err := m.store.Save(ctx, key, value); err != nil {
		m.log.Warn(ctx, "session key not saved", "key", key, "error", err)
	}
}

func (m *Manager) delete(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.log.Warn(ctx, "session key not deleted", "key", key, "error", err)
	}
}

func (m *Manager) saveUser(ctx context.Context, user models.User) {
	b, err := json.Marshal(user)
	if err != nil {
		m.log.Error(ctx, "user not serialisable", "error", err)
		return
	}
	m.save(ctx, securestore.KeyUserData, string(b))
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.markLoaded()
}

// SignIn stores the credentials, drops the guest marker and switches to
// ModeAuthenticated. Calling it again simply overwrites.
func (m *Manager) SignIn(ctx context.Context, token string, user models.User) {
	m.storeMu.Lock()
	m.save(ctx, securestore.KeyUserToken, token)
	m.saveUser(ctx, user)
	m.delete(ctx, securestore.KeyIsGuest)
	m.setState(newAuthenticated(token, user))
	m.storeMu.Unlock()

	m.notify(user)
}

// SignOut removes all three session keys, attempting each regardless of
// earlier failures, and leaves the session in ModeGuest.
func (m *Manager) SignOut(ctx context.Context) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.delete(ctx, securestore.KeyUserToken)
	m.delete(ctx, securestore.KeyUserData)
	m.delete(ctx, securestore.KeyIsGuest)
	m.setState(State{Mode: ModeGuest})
}

// ContinueAsGuest marks the session as guest and forgets any credentials.
func (m *Manager) ContinueAsGuest(ctx context.Context) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.save(ctx, securestore.KeyIsGuest, guestMarker)
	m.delete(ctx, securestore.KeyUserToken)
	m.delete(ctx, securestore.KeyUserData)
	m.setState(State{Mode: ModeGuest})
}

// UpdateUser merges patch into the signed-in user and persists the result.
// It reports false and does nothing outside ModeAuthenticated.
func (m *Manager) UpdateUser(ctx context.Context, patch models.User) bool {
	m.storeMu.Lock()

	m.mu.Lock()
	if m.state.Mode != ModeAuthenticated || m.state.User == nil {
		m.mu.Unlock()
		m.storeMu.Unlock()
		return false
	}
	merged := m.state.User.Merge(patch)
	m.state.User = &merged
	m.mu.Unlock()

	m.saveUser(ctx, merged)
	m.storeMu.Unlock()

	m.notify(merged)
	return true
}

// AccessToken reads the persisted token for the HTTP client. "" means none.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	token, _, err := m.store.Get(ctx, securestore.KeyUserToken)
	return token, err
}

func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Mode
}

// Token returns the in-memory token; "" outside ModeAuthenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}

// User returns the signed-in user, if any.
func (m *Manager) User() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.User == nil {
		return models.User{}, false
	}
	return *m.state.User, true
}

// OnUserChange registers fn to run whenever a user record becomes
// available or changes. The returned func unregisters it.
func (m *Manager) OnUserChange(fn func(models.User)) func() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.subsMu.Lock()
		delete(m.subs, id)
		m.subsMu.Unlock()
	}
}

func (m *Manager) notify(user models.User) {
	m.subsMu.Lock()
	fns := make([]func(models.User), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// Theme returns the stored theme preference, ThemeLight when unset or
// unreadable.
func (m *Manager) Theme(ctx context.Context) string {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	v, ok, err := m.store.Get(ctx, securestore.KeyThemePreference)
	if err != nil {
		m.log.Warn(ctx, "theme unreadable", "error", err)
	}
	if !ok || (v != ThemeDark && v != ThemeLight) {
		return ThemeLight
	}
	return v
}

func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return ErrInvalidTheme
	}
	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	m.save(ctx, securestore.KeyThemePreference, theme)
	return nil
}
