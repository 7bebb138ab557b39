// Package session owns the process-wide authenticated session. All mutation
// goes through the Manager; consumers read state via Snapshot and never touch
// the credential store or the auth service directly.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/nenelamp/cyberguard/internal/authapi"
	"github.com/nenelamp/cyberguard/internal/model"
	"github.com/nenelamp/cyberguard/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	loginFailedMsg  = "Login failed"
	signupFailedMsg = "Signup failed"
	networkErrorMsg = "Network error. Please try again."
)

// State is a point-in-time copy of the session. IsAuthenticated holds iff
// User and Token are both present.
type State struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            *model.User `json:"user"`
	Token           string      `json:"token,omitempty"`
	IsLoading       bool        `json:"isLoading"`
	Error           string      `json:"error,omitempty"`
}

// API is the slice of the auth service the manager needs.
type API interface {
	Verify(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*authapi.Credentials, error)
	Signup(ctx context.Context, req authapi.SignupRequest) (*authapi.Credentials, error)
	Me(ctx context.Context, token string) (*model.UserPatch, error)
}

type Manager struct {
	store store.Store
	api   API
	log   *zap.Logger

	mu      sync.Mutex
	user    *model.User
	token   string
	errMsg  string
	loading bool

	// gen orders overlapping operations: each state-mutating call bumps it,
	// and a network response whose gen is stale is discarded.
	gen uint64
}

type Params struct {
	fx.In

	Store store.Store
	API   *authapi.Client
	Log   *zap.Logger
}

func New(p Params) *Manager {
	return &Manager{
		store: p.Store,
		api:   p.API,
		log:   p.Log,

		// loading holds from process start until Initialize completes
		loading: true,
	}
}

// RegisterHooks should be invoked by fx. Initialize runs in OnStart so the
// session is resolved before anything serves reads.
func RegisterHooks(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: m.Initialize,
	})
}

// Initialize restores a persisted session, verifying the stored token with
// the auth service. Any doubt — partial or unparseable data, a rejected
// token, an unreachable service — fails closed: the store is cleared and the
// session stays unauthenticated. Never returns an error; startup proceeds
// logged out.
func (m *Manager) Initialize(ctx context.Context) error {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	token, user, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn("discarding persisted session", zap.Error(err))
			m.clearStore()
		}
		return nil
	}

	if err := m.api.Verify(ctx, token); err != nil {
		m.log.Info("stored token rejected", zap.Error(err))
		m.clearStore()
		return nil
	}

	m.mu.Lock()
	m.user = user
	m.token = token
	m.mu.Unlock()

	m.log.Info("session restored", zap.String("user", user.Email))
	return nil
}

// Login exchanges credentials for a session. A false return means the
// session is unchanged and the reason is readable via Snapshot().Error.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	gen := m.begin()
	creds, err := m.api.Login(ctx, email, password)
	return m.finish(gen, creds, err, loginFailedMsg)
}

// Signup registers an account and, on success, logs it in.
func (m *Manager) Signup(ctx context.Context, req authapi.SignupRequest) bool {
	gen := m.begin()
	creds, err := m.api.Signup(ctx, req)
	return m.finish(gen, creds, err, signupFailedMsg)
}

// Logout clears the persisted and in-memory session. Always succeeds, and
// supersedes any auth call still in flight.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.clearStoreLocked()
	m.user = nil
	m.token = ""
	m.errMsg = ""
	m.loading = false
}

// UpdateUser shallow-merges patch into the current user and persists the
// result. No-op when unauthenticated. Local only; the service is not told.
func (m *Manager) UpdateUser(patch model.UserPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyPatchLocked(patch)
}

// RefreshUser re-syncs the user record from the auth service. Failures of
// any kind are silent: no error is recorded and the session is untouched.
func (m *Manager) RefreshUser(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	gen := m.gen
	m.mu.Unlock()

	if token == "" {
		return
	}

	patch, err := m.api.Me(ctx, token)
	if err != nil {
		m.log.Debug("user refresh failed", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		// logged out or re-authenticated while the request was in flight
		return
	}
	m.applyPatchLocked(*patch)
}

// ClearError resets the recorded error. Idempotent.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{
		IsAuthenticated: m.user != nil && m.token != "",
		Token:           m.token,
		IsLoading:       m.loading,
		Error:           m.errMsg,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

func (m *Manager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.loading = true
	m.errMsg = ""
	return m.gen
}

func (m *Manager) finish(gen uint64, creds *authapi.Credentials, err error, genericMsg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		// a newer operation owns the session now; drop this response
		return false
	}
	m.loading = false

	if err != nil {
		var apiErr *authapi.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Message != "":
			m.errMsg = apiErr.Message
		case errors.As(err, &apiErr):
			m.errMsg = genericMsg
		default:
			m.errMsg = networkErrorMsg
		}
		return false
	}

	user := creds.User
	if err := m.store.Save(creds.Token, &user); err != nil {
		m.log.Error("persisting credentials", zap.Error(err))
	}
	m.user = &user
	m.token = creds.Token
	return true
}

func (m *Manager) applyPatchLocked(patch model.UserPatch) {
	if m.user == nil {
		return
	}

	u := *m.user
	patch.Apply(&u)

	if err := m.store.Save(m.token, &u); err != nil {
		m.log.Error("persisting user update", zap.Error(err))
	}
	m.user = &u
}

func (m *Manager) clearStore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearStoreLocked()
}

func (m *Manager) clearStoreLocked() {
	if err := m.store.Clear(); err != nil {
		m.log.Error("clearing credential store", zap.Error(err))
	}
}
