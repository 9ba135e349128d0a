package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/filevault/internal/client/api"
	"github.com/avoronov/filevault/internal/client/models"
	"github.com/avoronov/filevault/internal/client/session"
	"github.com/avoronov/filevault/internal/logging"
)

type stubSession struct {
	st            session.State
	logoutFlag    bool
	qr            string
	qrErr         error
	registerCalls int
	loginCalls    int
	verifyCalls   int
	enableCalls   int
	logoutCalls   int
	lastTOTP      string
}

func (s *stubSession) State() session.State { return s.st }
func (s *stubSession) LoggedIn() bool       { return s.st.Username != "" && s.st.Code == "" }
func (s *stubSession) ConsumeLogoutSuccess() bool {
	v := s.logoutFlag
	s.logoutFlag = false
	return v
}
func (s *stubSession) ClearFlags()                       {}
func (s *stubSession) Restore(ctx context.Context) error { return nil }
func (s *stubSession) Register(ctx context.Context, username, email, password, confirm string, role models.Role) session.State {
	s.registerCalls++
	s.st.Username = username
	s.st.Email = email
	return s.st
}
func (s *stubSession) Login(ctx context.Context, username, password string) session.State {
	s.loginCalls++
	return s.st
}
func (s *stubSession) EnableMFA(ctx context.Context) session.State {
	s.enableCalls++
	s.st.IsMFAEnabled = true
	s.st.MFA = session.MFAAwaitingVerification
	return s.st
}
func (s *stubSession) VerifyMFA(ctx context.Context, totp string) session.State {
	s.verifyCalls++
	s.lastTOTP = totp
	s.st.Code = ""
	s.st.MFA = session.MFAVerified
	return s.st
}
func (s *stubSession) QRCode(ctx context.Context) (string, error) { return s.qr, s.qrErr }
func (s *stubSession) Logout(ctx context.Context) session.State {
	s.logoutCalls++
	s.st = session.State{Role: models.RoleGuest}
	s.logoutFlag = true
	return s.st
}

type stubFiles struct {
	files     []models.FileRecord
	blob      *models.CachedBlob
	cached    bool
	err       error
	shareID   string
	listCalls int
	calls     []string
}

func (s *stubFiles) List(ctx context.Context) ([]models.FileRecord, error) {
	s.listCalls++
	return s.files, s.err
}
func (s *stubFiles) View(ctx context.Context, id int64) (*models.CachedBlob, bool, error) {
	s.calls = append(s.calls, "view")
	return s.blob, s.cached, s.err
}
func (s *stubFiles) ViewShared(ctx context.Context, shareID string) (*models.CachedBlob, bool, error) {
	s.calls = append(s.calls, "shared")
	return s.blob, s.cached, s.err
}
func (s *stubFiles) Upload(ctx context.Context, path string) error {
	s.calls = append(s.calls, "upload")
	return s.err
}
func (s *stubFiles) Delete(ctx context.Context, id int64) error {
	s.calls = append(s.calls, "delete")
	return s.err
}
func (s *stubFiles) Share(ctx context.Context, id int64) (string, error) {
	s.calls = append(s.calls, "share")
	return s.shareID, s.err
}
func (s *stubFiles) Download(ctx context.Context, id int64, dest string) error {
	s.calls = append(s.calls, "download")
	return s.err
}

type stubUsers struct {
	users []models.UserRecord
	err   error
	calls int
}

func (s *stubUsers) List(ctx context.Context) ([]models.UserRecord, error) {
	s.calls++
	return s.users, s.err
}

func newTestApp(sess *stubSession, files *stubFiles, users *stubUsers, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		session: sess,
		files:   files,
		users:   users,
		reader:  bufio.NewReader(strings.NewReader(input)),
		out:     out,
		log:     logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, out
}

func withStubInput(t *testing.T, lines []string, passwords []string) {
	t.Helper()
	origText, origPw := getSimpleText, getPassword
	ti, pi := 0, 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if ti >= len(lines) {
			return "", io.EOF
		}
		v := lines[ti]
		ti++
		return v, nil
	}
	getPassword = func(_ io.Writer, _ string) (string, error) {
		if pi >= len(passwords) {
			return "", io.EOF
		}
		v := passwords[pi]
		pi++
		return v, nil
	}
	t.Cleanup(func() { getSimpleText, getPassword = origText, origPw })
}

func TestRegister_SuccessSuggestsMFA(t *testing.T) {
	sess := &stubSession{st: session.State{Role: models.RoleGuest}}
	app, out := newTestApp(sess, &stubFiles{}, &stubUsers{}, "")
	withStubInput(t, []string{"alice", "alice@example.com", ""}, []string{"sup3rsecret", "sup3rsecret"})

	require.NoError(t, app.Register(context.Background()))

	assert.Equal(t, 1, sess.registerCalls)
	assert.Contains(t, out.String(), "Account created.")
	assert.Contains(t, out.String(), "'mfa'")
}

func TestLogin_MFAChallengePromptsVerify(t *testing.T) {
	sess := &stubSession{st: session.State{Code: api.MFARequiredCode, Role: models.RoleGuest}}
	app, out := newTestApp(sess, &stubFiles{}, &stubUsers{}, "")
	withStubInput(t, []string{"alice"}, []string{"sup3rsecret"})

	require.NoError(t, app.Login(context.Background()))

	assert.Equal(t, 1, sess.loginCalls)
	assert.Contains(t, out.String(), "'verify'")
}

func TestVerify_PassesCodeThrough(t *testing.T) {
	sess := &stubSession{st: session.State{
		Username: "alice", Code: api.MFARequiredCode,
		Role: models.RoleUser, MFA: session.MFAAwaitingVerification,
	}}
	app, _ := newTestApp(sess, &stubFiles{}, &stubUsers{}, "")
	withStubInput(t, []string{"123456"}, nil)

	require.NoError(t, app.Verify(context.Background()))

	assert.Equal(t, 1, sess.verifyCalls)
	assert.Equal(t, "123456", sess.lastTOTP)
}

func TestVerify_NothingPending(t *testing.T) {
	sess := &stubSession{st: session.State{Username: "alice", Role: models.RoleUser, MFA: session.MFAVerified}}
	app, out := newTestApp(sess, &stubFiles{}, &stubUsers{}, "")

	require.NoError(t, app.Verify(context.Background()))

	assert.Equal(t, 0, sess.verifyCalls)
	assert.Contains(t, out.String(), "Nothing to verify.")
}

func TestMFA_EnableShowsQRCode(t *testing.T) {
	sess := &stubSession{
		st: session.State{Username: "alice", Role: models.RoleUser, MFA: session.MFAUnenrolled},
		qr: "data:image/png;base64,aGVsbG8=",
	}
	app, out := newTestApp(sess, &stubFiles{}, &stubUsers{}, "")

	require.NoError(t, app.MFA(context.Background()))

	assert.Equal(t, 1, sess.enableCalls)
	assert.Contains(t, out.String(), "data:image/png;base64,")
	assert.Contains(t, out.String(), "'verify'")
}

func TestMFA_AlreadyEnabled(t *testing.T) {
	sess := &stubSession{st: session.State{
		Username: "alice", Role: models.RoleUser,
		IsMFAEnabled: true, MFA: session.MFAVerified,
	}}
	app, out := newTestApp(sess, &stubFiles{}, &stubUsers{}, "")

	require.NoError(t, app.MFA(context.Background()))

	assert.Equal(t, 0, sess.enableCalls)
	assert.Contains(t, out.String(), "already enabled")
}

func TestLogout_MessagePrintedOnce(t *testing.T) {
	sess := &stubSession{st: session.State{Username: "alice", Role: models.RoleUser}}
	app, out := newTestApp(sess, &stubFiles{}, &stubUsers{}, "")

	require.NoError(t, app.Logout(context.Background()))
	first := out.String()
	assert.Contains(t, first, "Logged out.")

	out.Reset()
	assert.False(t, sess.ConsumeLogoutSuccess())
}

func TestList_PrintsRoster(t *testing.T) {
	sess := &stubSession{st: session.State{Username: "alice", Role: models.RoleUser}}
	files := &stubFiles{files: []models.FileRecord{
		{ID: 1, Filename: "report.pdf", Size: 2048, ContentType: "application/pdf", UploadedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), Owner: "alice"},
	}}
	app, out := newTestApp(sess, files, &stubUsers{}, "")

	require.NoError(t, app.List(context.Background()))

	assert.Contains(t, out.String(), "report.pdf")
	assert.Contains(t, out.String(), "application/pdf")
}

func TestView_RequiresLoginAndValidID(t *testing.T) {
	files := &stubFiles{blob: &models.CachedBlob{Content: "data:text/plain;base64,aGk=", ContentType: "text/plain"}}
	app, out := newTestApp(&stubSession{}, files, &stubUsers{}, "")

	require.NoError(t, app.View(context.Background(), []string{"1"}))
	assert.Contains(t, out.String(), "Log in first.")
	assert.Empty(t, files.calls)

	sess := &stubSession{st: session.State{Username: "alice", Role: models.RoleUser}}
	app, out = newTestApp(sess, files, &stubUsers{}, "")

	require.NoError(t, app.View(context.Background(), []string{"nope"}))
	assert.Contains(t, out.String(), "Usage: view <id>")
	assert.Empty(t, files.calls)

	out.Reset()
	files.cached = true
	require.NoError(t, app.View(context.Background(), []string{"1"}))
	assert.Contains(t, out.String(), "text/plain")
	assert.Contains(t, out.String(), "from cache")
}

func TestShared_WorksWithoutLogin(t *testing.T) {
	files := &stubFiles{blob: &models.CachedBlob{Content: "data:text/plain;base64,aGk=", ContentType: "text/plain"}}
	app, out := newTestApp(&stubSession{}, files, &stubUsers{}, "")

	require.NoError(t, app.Shared(context.Background(), []string{"h4sh"}))

	assert.Equal(t, []string{"shared"}, files.calls)
	assert.Contains(t, out.String(), "text/plain")
}

func TestShare_PrintsShareID(t *testing.T) {
	sess := &stubSession{st: session.State{Username: "alice", Role: models.RoleUser}}
	files := &stubFiles{shareID: "h4sh"}
	app, out := newTestApp(sess, files, &stubUsers{}, "")

	require.NoError(t, app.Share(context.Background(), []string{"3"}))

	assert.Contains(t, out.String(), "Share id: h4sh")
	assert.Contains(t, out.String(), "shared h4sh")
}

func TestUsers_AdminOnlyFallsBackToList(t *testing.T) {
	sess := &stubSession{st: session.State{Username: "bob", Role: models.RoleUser}}
	users := &stubUsers{}
	files := &stubFiles{}
	app, out := newTestApp(sess, files, users, "")

	require.NoError(t, app.Users(context.Background()))

	assert.Equal(t, 0, users.calls)
	assert.Equal(t, 1, files.listCalls)
	assert.Contains(t, out.String(), "admins only")
}

func TestUsers_AdminSeesMFABadges(t *testing.T) {
	sess := &stubSession{st: session.State{Username: "root", Role: models.RoleAdmin}}
	users := &stubUsers{users: []models.UserRecord{
		{Username: "alice", Email: "a@example.com", Role: models.RoleUser, IsMFAEnabled: true},
		{Username: "bob", Email: "b@example.com", Role: models.RoleUser},
	}}
	app, out := newTestApp(sess, &stubFiles{}, users, "")

	require.NoError(t, app.Users(context.Background()))

	assert.Equal(t, 1, users.calls)
	assert.Contains(t, out.String(), "alice")
	assert.Contains(t, out.String(), "enabled")
}

func TestCommands_ReportServiceErrors(t *testing.T) {
	sess := &stubSession{st: session.State{Username: "alice", Role: models.RoleUser}}
	files := &stubFiles{err: errors.New("server unavailable")}
	app, out := newTestApp(sess, files, &stubUsers{}, "")

	require.NoError(t, app.Delete(context.Background(), []string{"4"}))

	assert.Contains(t, out.String(), "server unavailable")
}
