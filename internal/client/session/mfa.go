package session

import (
	"context"

	"github.com/avoronov/filevault/internal/client/models"
)

// MFAState is the position in the enrollment/verification flow.
//
//	MFAUnenrolled ──opt-in──▶ MFAEnrolling ──server ok──▶ MFAAwaitingVerification ──code ok──▶ MFAVerified
//
// A login against an account that already has MFA enabled jumps straight to
// MFAAwaitingVerification. Declining enrollment and proceeding without MFA is
// a legitimate terminal state, not a failure: the flow simply stays at
// MFAUnenrolled.
type MFAState string

const (
	MFAUnenrolled           MFAState = "unenrolled"
	MFAEnrolling            MFAState = "enrolling"
	MFAAwaitingVerification MFAState = "awaiting_verification"
	MFAVerified             MFAState = "verified"
)

// EnableMFA opts the account into MFA. On success the account is enabled and
// the flow advances to awaiting verification; the caller then fetches the
// provisioning QR and collects a code.
func (m *Manager) EnableMFA(ctx context.Context) State {
	gen, ok := m.begin()
	if !ok {
		return m.State()
	}

	m.mu.Lock()
	m.st.MFA = MFAEnrolling
	m.mu.Unlock()

	if err := m.api.EnableMFA(ctx); err != nil {
		m.log.Warn(ctx, "mfa enable failed", "error", err)
		m.finish(gen, func(st *State) {
			st.Error = err.Error()
			st.Success = false
			st.IsMFAEnabled = false
			st.MFA = MFAUnenrolled
		})
		return m.State()
	}

	m.finish(gen, func(st *State) {
		st.IsMFAEnabled = true
		st.Success = true
		st.MFA = MFAAwaitingVerification
	})
	m.persist(ctx)
	return m.State()
}

// VerifyMFA submits the six-digit TOTP code. The format is validated before
// any network call; a malformed code never leaves the process. On success the
// manager adopts the full profile from the verification response and the
// session becomes trusted.
func (m *Manager) VerifyMFA(ctx context.Context, totp string) State {
	gen, ok := m.begin()
	if !ok {
		return m.State()
	}

	if !validTOTP(totp) {
		m.fail(gen, "TOTP must be exactly 6 digits")
		return m.State()
	}

	m.mu.Lock()
	username := m.st.Username
	if username == "" {
		username = m.mfaUsername
	}
	m.mu.Unlock()

	profile, err := m.api.VerifyMFA(ctx, totp, username)
	if err != nil {
		m.log.Warn(ctx, "mfa verification failed", "error", err)
		m.fail(gen, err.Error())
		return m.State()
	}

	m.finish(gen, func(st *State) {
		st.Username = profile.Username
		st.Email = profile.Email
		st.Role = profile.Role
		st.IsMFAEnabled = true
		st.Code = ""
		st.MFA = MFAVerified
		st.Success = true
		m.mfaUsername = ""
	})
	m.persist(ctx)
	return m.State()
}

// QRCode fetches the provisioning QR image for authenticator-app enrollment
// and returns it as an inline data URI. This is a read helper, not one of the
// named transitions; errors are returned to the caller.
func (m *Manager) QRCode(ctx context.Context) (string, error) {
	content, err := m.api.MFAQRCode(ctx)
	if err != nil {
		return "", err
	}
	blob, err := models.NewCachedBlob(content, "image/png")
	if err != nil {
		return "", err
	}
	return blob.Content, nil
}

// validTOTP accepts exactly six ASCII digits.
func validTOTP(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
