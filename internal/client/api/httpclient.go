package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avoronov/filevault/internal/client/models"
	"github.com/avoronov/filevault/internal/common"
	"github.com/avoronov/filevault/internal/logging"
)

// sessionCookieName is the cookie the server sets on login and refreshes on
// subsequent responses. It carries a JWT access token.
const sessionCookieName = "Authorization"

// HTTPClient is the concrete gateway over HTTP+JSON with cookie-based auth.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a gateway for the given base endpoint, e.g.
// "http://localhost:8000/api". A trailing slash on the endpoint is tolerated.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: timeout},
		log:     log.With("component", "api"),
	}, nil
}

// envelope is the uniform response body of the service:
// {success, message, code?, data?}.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+"/"+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return resp, nil
}

// get issues a GET with the path forwarded verbatim.
func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// post issues a JSON POST. Paths get a trailing slash appended if absent,
// matching the server's URL scheme for mutating endpoints.
func (c *HTTPClient) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// del issues a DELETE with the path forwarded verbatim.
func (c *HTTPClient) del(ctx context.Context, path string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// decodeEnvelope reads and closes the response body, maps HTTP-level failures
// to sentinel errors, and returns the parsed envelope on success.
func decodeEnvelope(resp *http.Response) (*envelope, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var env envelope
	// The body may be empty or non-JSON on some error statuses.
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			if env.Message != "" {
				return nil, fmt.Errorf("%w: %s", common.ErrUnauthorized, env.Message)
			}
			return nil, common.ErrUnauthorized
		case http.StatusNotFound:
			return nil, common.ErrNotFound
		default:
			if env.Message != "" {
				return nil, fmt.Errorf("server error: %s", env.Message)
			}
			return nil, fmt.Errorf("server error: %s", resp.Status)
		}
	}

	return &env, nil
}

// readBinary reads and closes a binary response, returning the content and
// the content-type header.
func readBinary(resp *http.Response) ([]byte, string, error) {
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, "", common.ErrUnauthorized
		case http.StatusNotFound:
			return nil, "", common.ErrNotFound
		default:
			return nil, "", fmt.Errorf("server error: %s", resp.Status)
		}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading binary body: %w", err)
	}
	return content, resp.Header.Get("Content-Type"), nil
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) error {
	resp, err := c.post(ctx, "users", req)
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(resp)
	return err
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	resp, err := c.post(ctx, "users/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{Code: env.Code}
	if env.Code == MFARequiredCode {
		// No trustworthy profile fields accompany the challenge.
		return result, nil
	}

	var profile models.Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return nil, fmt.Errorf("decoding login profile: %w", err)
	}
	result.Profile = &profile
	return result, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	resp, err := c.del(ctx, "users/logout")
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(resp)
	return err
}

func (c *HTTPClient) EnableMFA(ctx context.Context) error {
	resp, err := c.post(ctx, "users/mfa/enable", struct{}{})
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(resp)
	return err
}

func (c *HTTPClient) MFAQRCode(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, "users/mfa/qr-code")
	if err != nil {
		return nil, err
	}
	content, _, err := readBinary(resp)
	return content, err
}

func (c *HTTPClient) VerifyMFA(ctx context.Context, token, username string) (*models.Profile, error) {
	resp, err := c.post(ctx, "users/mfa/verify", map[string]string{
		"token":    token,
		"username": username,
	})
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return nil, fmt.Errorf("decoding verification profile: %w", err)
	}
	// Verification succeeding implies MFA is on for the account.
	profile.IsMFAEnabled = true
	return &profile, nil
}

func (c *HTTPClient) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	resp, err := c.get(ctx, "files")
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var files []models.FileRecord
	if err := json.Unmarshal(env.Data, &files); err != nil {
		return nil, fmt.Errorf("decoding file list: %w", err)
	}
	return files, nil
}

func (c *HTTPClient) GetFile(ctx context.Context, id int64) ([]byte, string, error) {
	resp, err := c.get(ctx, fmt.Sprintf("files?id=%d", id))
	if err != nil {
		return nil, "", err
	}
	return readBinary(resp)
}

func (c *HTTPClient) UploadFile(ctx context.Context, filename string, content io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("creating multipart field: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copying upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "files/", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(resp)
	return err
}

func (c *HTTPClient) DeleteFile(ctx context.Context, id int64) error {
	resp, err := c.del(ctx, fmt.Sprintf("files/?id=%d", id))
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(resp)
	return err
}

func (c *HTTPClient) ShareFile(ctx context.Context, id int64) (string, error) {
	resp, err := c.get(ctx, fmt.Sprintf("files/share?id=%d", id))
	if err != nil {
		return "", err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return "", err
	}

	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("decoding share id: %w", err)
	}
	return data.ID, nil
}

func (c *HTTPClient) GetSharedFile(ctx context.Context, shareID string) ([]byte, string, error) {
	resp, err := c.get(ctx, "files/shared/"+url.PathEscape(shareID))
	if err != nil {
		return nil, "", err
	}
	return readBinary(resp)
}

// ListUsers fetches the admin roster. Unlike the other endpoints, the
// response body is a bare array, not an envelope.
func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	resp, err := c.get(ctx, "users")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("server error: %s", resp.Status)
	}

	var users []models.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decoding user roster: %w", err)
	}
	return users, nil
}

// SessionExpiresAt parses the expiry claim out of the held session cookie
// without verifying the signature. The server remains the authority; this is
// only used to warn the user before a call that is going to be rejected.
func (c *HTTPClient) SessionExpiresAt() (time.Time, bool) {
	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name != sessionCookieName {
			continue
		}
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(cookie.Value, claims); err != nil {
			return time.Time{}, false
		}
		exp, err := claims.GetExpirationTime()
		if err != nil || exp == nil {
			return time.Time{}, false
		}
		return exp.Time, true
	}
	return time.Time{}, false
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
