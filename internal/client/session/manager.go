// Package session holds the client's authentication state and mediates every
// auth transition: register, login, MFA enablement and verification, logout.
//
// The manager is an explicit state container built in main and passed by
// reference; nothing in the package is global. State is read via snapshot
// accessors and written only by the five named transitions. Failures of any
// kind (validation, transport, rejection) are absorbed into the state as a
// human-readable error message and never propagate to callers as panics or
// unexpected errors.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/avoronov/filevault/internal/client/api"
	"github.com/avoronov/filevault/internal/client/models"
	"github.com/avoronov/filevault/internal/client/repositories/metadata"
	"github.com/avoronov/filevault/internal/common"
	"github.com/avoronov/filevault/internal/logging"
)

// profileKey is the namespaced record under which the persisted session
// subset lives. Only identity fields are stored, never credentials.
const profileKey = "filevault.session.profile"

// State is a snapshot of the session. Identity fields mirror the last
// trusted server response; the flag fields are transient and never persist.
type State struct {
	Username     string
	Email        string
	Role         models.Role
	IsMFAEnabled bool

	Pending       bool
	Error         string
	Success       bool
	LogoutSuccess bool

	// Code is the challenge discriminator from the last login response,
	// e.g. api.MFARequiredCode. While set, the identity fields above are
	// frozen at their pre-login values.
	Code string

	// MFA is the position in the enrollment/verification flow.
	MFA MFAState
}

// Manager is the process-wide session state container.
type Manager struct {
	mu  sync.Mutex
	st  State
	gen uint64

	// mfaUsername carries the login name across an MFA challenge so the
	// verification call can reference the account without the identity
	// fields being adopted prematurely.
	mfaUsername string

	api   api.Client
	store metadata.Repository
	log   logging.Logger
}

func NewManager(apiClient api.Client, store metadata.Repository, log logging.Logger) *Manager {
	return &Manager{
		st:    State{Role: models.RoleGuest, MFA: MFAUnenrolled},
		api:   apiClient,
		store: store,
		log:   log.With("component", "session"),
	}
}

// State returns a copy of the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

// LoggedIn reports whether the session carries a trusted identity. A pending
// MFA challenge does not count: the identity is not trustworthy until the
// code is verified.
func (m *Manager) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Username != "" && m.st.Code == ""
}

// ConsumeLogoutSuccess returns the one-shot logout flag and resets it.
func (m *Manager) ConsumeLogoutSuccess() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.st.LogoutSuccess
	m.st.LogoutSuccess = false
	return v
}

// ClearFlags resets the transient flags without touching identity fields.
func (m *Manager) ClearFlags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Error = ""
	m.st.Pending = false
	m.st.Success = false
	m.st.LogoutSuccess = false
}

// Invalidate bumps the liveness generation so any in-flight continuation is
// discarded instead of applied. Used when the surface that started a request
// goes away before the response settles.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.st.Pending = false
}

// begin starts a transition: it rejects overlap with an in-flight one,
// clears the stale error and raises the pending flag. The returned generation
// must be passed to finish so stale continuations are dropped.
func (m *Manager) begin() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Pending {
		m.st.Error = common.ErrBusy.Error()
		return 0, false
	}
	m.st.Error = ""
	m.st.Success = false
	m.gen++
	m.st.Pending = true
	return m.gen, true
}

// finish applies the transition outcome unless the generation moved on.
func (m *Manager) finish(gen uint64, apply func(st *State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.st.Pending = false
	apply(&m.st)
}

// fail records an error outcome for the transition.
func (m *Manager) fail(gen uint64, msg string) {
	m.finish(gen, func(st *State) {
		st.Error = msg
		st.Success = false
	})
}

// Register creates an account. The server is the authority on the effective
// role; the local role stays at its current value (guest on a fresh session).
func (m *Manager) Register(ctx context.Context, username, email, password, confirmPassword string, role models.Role) State {
	gen, ok := m.begin()
	if !ok {
		return m.State()
	}

	if msg := validateRegistration(username, email, password, confirmPassword, role); msg != "" {
		m.fail(gen, msg)
		return m.State()
	}

	err := m.api.Register(ctx, api.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		m.log.Warn(ctx, "registration failed", "error", err)
		m.fail(gen, err.Error())
		return m.State()
	}

	m.finish(gen, func(st *State) {
		st.Username = username
		st.Email = email
		st.Success = true
	})
	m.persist(ctx)
	return m.State()
}

// Login authenticates. If the server answers with the MFA challenge
// discriminator, the identity fields are left untouched: they are not yet
// trustworthy, and the caller branches on the discriminator alone.
func (m *Manager) Login(ctx context.Context, username, password string) State {
	gen, ok := m.begin()
	if !ok {
		return m.State()
	}

	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.log.Warn(ctx, "login failed", "error", err)
		m.fail(gen, err.Error())
		return m.State()
	}

	m.finish(gen, func(st *State) {
		st.Success = true
		st.Code = res.Code
		if res.Code == api.MFARequiredCode {
			m.mfaUsername = username
			st.MFA = MFAAwaitingVerification
			return
		}
		st.Username = username
		st.Email = res.Profile.Email
		st.Role = res.Profile.Role
		st.IsMFAEnabled = res.Profile.IsMFAEnabled
		if st.IsMFAEnabled {
			st.MFA = MFAVerified
		} else {
			st.MFA = MFAUnenrolled
		}
	})

	if st := m.State(); st.Code == "" {
		m.persist(ctx)
	}
	return m.State()
}

// Logout clears the identity and raises the one-shot logout flag. The
// persisted record and any in-flight continuation are invalidated.
func (m *Manager) Logout(ctx context.Context) State {
	gen, ok := m.begin()
	if !ok {
		return m.State()
	}

	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn(ctx, "logout failed", "error", err)
		m.fail(gen, err.Error())
		return m.State()
	}

	m.finish(gen, func(st *State) {
		st.Username = ""
		st.Email = ""
		st.Role = models.RoleGuest
		st.IsMFAEnabled = false
		st.Code = ""
		st.MFA = MFAUnenrolled
		st.Success = true
		st.LogoutSuccess = true
		m.mfaUsername = ""
		m.gen++ // anything still in flight must not resurrect the session
	})

	if err := m.store.Delete(ctx, profileKey); err != nil {
		m.log.Error(ctx, "failed to clear persisted session", "error", err)
	}
	return m.State()
}

// Restore loads the persisted identity subset written by a previous process.
// Transient flags always start clean.
func (m *Manager) Restore(ctx context.Context) error {
	raw, err := m.store.Get(ctx, profileKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Username = p.Username
	m.st.Email = p.Email
	m.st.Role = p.Role
	if m.st.Role == "" {
		m.st.Role = models.RoleGuest
	}
	m.st.IsMFAEnabled = p.IsMFAEnabled
	if p.IsMFAEnabled {
		m.st.MFA = MFAVerified
	} else {
		m.st.MFA = MFAUnenrolled
	}
	return nil
}

// persist writes the durable identity subset. Errors are logged, not
// surfaced: a failed persist never breaks an otherwise successful transition.
func (m *Manager) persist(ctx context.Context) {
	st := m.State()
	raw, err := json.Marshal(models.Profile{
		Username:     st.Username,
		Email:        st.Email,
		Role:         st.Role,
		IsMFAEnabled: st.IsMFAEnabled,
	})
	if err != nil {
		m.log.Error(ctx, "failed to encode session for persistence", "error", err)
		return
	}
	if err := m.store.Set(ctx, profileKey, raw); err != nil {
		m.log.Error(ctx, "failed to persist session", "error", err)
	}
}

func validateRegistration(username, email, password, confirmPassword string, role models.Role) string {
	if len(username) < 2 {
		return "username must be at least 2 characters"
	}
	if !strings.Contains(email, "@") {
		return "email is not valid"
	}
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	if password != confirmPassword {
		return "passwords do not match"
	}
	if !role.Valid() {
		return "role must be admin, user or guest"
	}
	return ""
}
