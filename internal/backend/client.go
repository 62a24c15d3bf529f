package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/statboard/internal/metrics"
	"github.com/foxzi/statboard/internal/models"
)

// maxBodySize caps how much of a reply is read
const maxBodySize = 32 << 20

// ErrEmptyID is returned when a user action is requested without an ID
var ErrEmptyID = errors.New("user id is required")

// TokenSource yields the bearer token attached to outgoing requests
type TokenSource interface {
	Load() (token string, ok bool, err error)
}

// Client is the reporting backend API client
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new backend client. A zero timeout leaves the
// transport default in place.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// request performs an HTTP request against the backend. endpoint is a stable
// label used for metrics and logs.
func (c *Client) request(ctx context.Context, endpoint, method, path string, body any, result any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		outcome := "ok"
		switch {
		case err == nil:
		case status >= 200 && status < 300:
			outcome = "malformed"
		default:
			outcome = metrics.CategorizeStatus(status)
		}
		metrics.ObserveBackendRequest(endpoint, outcome, time.Since(start))
	}()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend unreachable", "endpoint", endpoint, "request_id", requestID, "error", err)
		return transportError(0)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return transportError(status)
	}

	c.logger.Debug("backend request",
		"endpoint", endpoint,
		"method", method,
		"status", status,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if status < 200 || status > 299 {
		return parseError(status, data)
	}

	if result == nil || status == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		if result != nil {
			return malformedError(status, "empty body")
		}
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return malformedError(status, err.Error())
	}
	return nil
}

// token returns the stored credential, or "" when none is available
func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	token, ok, err := c.tokens.Load()
	if err != nil {
		c.logger.Warn("failed to read credential", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// SignIn exchanges credentials for an access token
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.SignInResponse, error) {
	var resp models.SignInResponse
	req := &models.SignInRequest{Email: email, Password: password}
	if err := c.request(ctx, "signin", http.MethodPost, "/auth/signin", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, malformedError(http.StatusOK, "missing access_token")
	}
	return &resp, nil
}

// SignUp registers a new account; it starts in pending status
func (c *Client) SignUp(ctx context.Context, email, password string) (*models.SignUpResponse, error) {
	var resp models.SignUpResponse
	req := &models.SignUpRequest{Email: email, Password: password}
	if err := c.request(ctx, "signup", http.MethodPost, "/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the backend to start a password reset
func (c *Client) ForgotPassword(ctx context.Context, email string) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	req := &models.ForgotPasswordRequest{Email: email}
	if err := c.request(ctx, "forgot_password", http.MethodPost, "/auth/forgot-password", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the identity behind the stored token
func (c *Client) Profile(ctx context.Context) (*models.Identity, error) {
	var resp models.Identity
	if err := c.request(ctx, "profile", http.MethodGet, "/users/profile", nil, &resp); err != nil {
		return nil, err
	}
	if err := validateIdentity(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingUsers lists accounts awaiting approval
func (c *Client) PendingUsers(ctx context.Context) ([]models.Identity, error) {
	var resp []models.Identity
	if err := c.request(ctx, "pending_users", http.MethodGet, "/users/pending", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp {
		if err := validateIdentity(&resp[i]); err != nil {
			return nil, err
		}
	}
	if resp == nil {
		resp = []models.Identity{}
	}
	return resp, nil
}

// ApproveUser approves a pending account
func (c *Client) ApproveUser(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return c.request(ctx, "approve_user", http.MethodPatch, "/users/"+url.PathEscape(id)+"/approve", nil, nil)
}

// RejectUser rejects a pending account
func (c *Client) RejectUser(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return c.request(ctx, "reject_user", http.MethodPatch, "/users/"+url.PathEscape(id)+"/reject", nil, nil)
}

// Statistics returns every reporting row visible to the caller
func (c *Client) Statistics(ctx context.Context) ([]models.StatisticsRow, error) {
	var resp []models.StatisticsRow
	if err := c.request(ctx, "statistics", http.MethodGet, "/statistics", nil, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []models.StatisticsRow{}
	}
	return resp, nil
}

func validateIdentity(id *models.Identity) error {
	switch {
	case id.ID == "":
		return malformedError(http.StatusOK, "user without id")
	case !id.Role.Valid():
		return malformedError(http.StatusOK, fmt.Sprintf("unknown role %q", id.Role))
	case !id.Status.Valid():
		return malformedError(http.StatusOK, fmt.Sprintf("unknown status %q", id.Status))
	}
	return nil
}
