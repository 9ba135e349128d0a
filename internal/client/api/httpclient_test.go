package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avoronov/filevault/internal/common"
	"github.com/avoronov/filevault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, 5*time.Second, testLogger())
	require.NoError(t, err)
	return c, srv
}

func TestLogin_FullProfile(t *testing.T) {
	var gotPath, gotRequestID string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"email":"a@x.com","role":"user","isMFAEnabled":false}}`))
	}))

	res, err := c.Login(context.Background(), "alice1", "password1")
	require.NoError(t, err)

	assert.Equal(t, "/users/login/", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Empty(t, res.Code)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "a@x.com", res.Profile.Email)
	assert.Equal(t, "user", string(res.Profile.Role))
	assert.False(t, res.Profile.IsMFAEnabled)
}

func TestLogin_MFARequired_NoProfile(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"code":"MFA_REQUIRED"}`))
	}))

	res, err := c.Login(context.Background(), "alice1", "password1")
	require.NoError(t, err)
	assert.Equal(t, MFARequiredCode, res.Code)
	assert.Nil(t, res.Profile)
}

func TestLogin_Unauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid credentials"}`))
	}))

	_, err := c.Login(context.Background(), "alice1", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestCookies_ReplayedAcrossCalls(t *testing.T) {
	var sawCookie bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/login/":
			http.SetCookie(w, &http.Cookie{Name: "Authorization", Value: "token123", Path: "/"})
			_, _ = w.Write([]byte(`{"success":true,"data":{"email":"a@x.com","role":"user","isMFAEnabled":false}}`))
		case "/files":
			cookie, err := r.Cookie("Authorization")
			sawCookie = err == nil && cookie.Value == "token123"
			_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
		}
	}))

	_, err := c.Login(context.Background(), "alice1", "password1")
	require.NoError(t, err)

	_, err = c.ListFiles(context.Background())
	require.NoError(t, err)
	assert.True(t, sawCookie, "session cookie should be carried automatically")
}

func TestGetFile_BinaryWithContentType(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))

	content, contentType, err := c.GetFile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, content)
}

func TestUploadFile_MultipartFieldAndPath(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, "report.pdf", header.Filename)
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "pdf-bytes", string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	err := c.UploadFile(context.Background(), "report.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
}

func TestDeleteFile_PathForm(t *testing.T) {
	var gotMethod, gotURI string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotURI = r.URL.RequestURI()
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	require.NoError(t, c.DeleteFile(context.Background(), 3))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/files/?id=3", gotURI)
}

func TestShareFile_ReturnsShareID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/share", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"h4sh"}}`))
	}))

	id, err := c.ShareFile(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "h4sh", id)
}

func TestGetSharedFile_PathEscaped(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/shared/h4sh", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("shared"))
	}))

	content, contentType, err := c.GetSharedFile(context.Background(), "h4sh")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", contentType)
	assert.Equal(t, "shared", string(content))
}

func TestListUsers_BareArrayBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		_, _ = w.Write([]byte(`[{"username":"alice1","email":"a@x.com","role":"admin","isMFAEnabled":true}]`))
	}))

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice1", users[0].Username)
	assert.True(t, users[0].IsMFAEnabled)
}

func TestVerifyMFA_AdoptsProfile(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/mfa/verify/", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"username":"alice1","email":"a@x.com","role":"user"}}`))
	}))

	profile, err := c.VerifyMFA(context.Background(), "123456", "alice1")
	require.NoError(t, err)
	assert.Equal(t, "alice1", profile.Username)
	assert.True(t, profile.IsMFAEnabled)
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens anymore

	c, err := NewHTTPClient(srv.URL, time.Second, testLogger())
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "alice1", "password1")
	require.ErrorIs(t, err, common.ErrUnavailable)
}
