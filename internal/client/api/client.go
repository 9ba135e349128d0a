// Package api is the remote access gateway: a thin, uniform wrapper that
// translates high-level operations (login, upload, fetch-file, fetch-users)
// into authenticated HTTP calls against the file-storage service.
//
// The gateway carries session cookies automatically, normalizes the base
// endpoint, and forwards caller-supplied paths and payloads verbatim. It does
// not retry, back off, or transform responses beyond the decode the caller
// asks for (JSON envelope vs binary body). All decision logic lives in the
// session and service layers.
package api

import (
	"context"
	"io"
	"time"

	"github.com/avoronov/filevault/internal/client/models"
)

// MFARequiredCode is the login-response discriminator the server sends when
// the account has MFA enabled and a TOTP verification must follow. While it
// is present, the profile fields of the response are not trustworthy.
const MFARequiredCode = "MFA_REQUIRED"

// RegisterRequest is the payload for account creation. Role is forwarded but
// the server remains the authority on the effective role.
type RegisterRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// LoginResult is the outcome of a login call: either a challenge code with no
// profile, or a full profile with no code.
type LoginResult struct {
	Code    string
	Profile *models.Profile
}

// Client defines the remote operations of the file-storage service.
//
// All methods honor context cancellation. Transport failures are reported as
// wrapped common.ErrUnavailable; rejected credentials as common.ErrUnauthorized.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) error
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context) error

	EnableMFA(ctx context.Context) error
	MFAQRCode(ctx context.Context) ([]byte, error)
	VerifyMFA(ctx context.Context, token, username string) (*models.Profile, error)

	ListFiles(ctx context.Context) ([]models.FileRecord, error)
	GetFile(ctx context.Context, id int64) (content []byte, contentType string, err error)
	UploadFile(ctx context.Context, filename string, content io.Reader) error
	DeleteFile(ctx context.Context, id int64) error
	ShareFile(ctx context.Context, id int64) (shareID string, err error)
	GetSharedFile(ctx context.Context, shareID string) (content []byte, contentType string, err error)

	ListUsers(ctx context.Context) ([]models.UserRecord, error)

	// SessionExpiresAt reports the expiry of the current session cookie,
	// if one is held and carries a readable expiry claim.
	SessionExpiresAt() (time.Time, bool)

	Close() error
}
