package snowsight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/domain"
	ferrors "github.com/tdambrin/sf-push/errors"
)

const (
	// DefaultBaseURL is the service root used when none is configured.
	DefaultBaseURL = "https://app.snowflake.com"

	// DefaultTimeout bounds every HTTP request made by a Client.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is kept in messages.
	maxErrorBody = 512
)

// Client authenticates and uploads over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the service root. Defaults to DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ Authenticator = (*Client)(nil)
	_ Uploader      = (*Client)(nil)
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Mode     string `json:"auth_mode"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate logs into account and returns a bearer token session.
// Only AuthModePassword is supported.
func (c *Client) Authenticate(
	ctx context.Context,
	account domain.SyncAccount,
	mode domain.AuthMode,
) (*Session, error) {
	if mode != domain.AuthModePassword {
		return nil, authError(fmt.Errorf("unsupported auth mode %q", mode),
			ferrors.CodeInvalidConfig, "cannot authenticate", account)
	}

	c.logger.Debug("authenticating", zap.Stringer("account", account))

	body := loginRequest{Username: account.Username, Password: account.Password, Mode: mode.String()}
	var resp loginResponse
	status, err := c.do(ctx, http.MethodPost, c.accountURL(account.Account, "login"), "", body, &resp)
	if err != nil {
		if status == 0 {
			return nil, authError(err, ferrors.CodeNetwork, "login request failed", account)
		}
		return nil, authError(err, ferrors.CodeUnauthorized, "login rejected", account)
	}
	if resp.Token == "" {
		return nil, authError(errors.New("empty token"), ferrors.CodeUnauthorized, "login rejected", account)
	}

	return &Session{
		Account:  account.Account,
		Username: account.Username,
		Mode:     mode,
		Token:    resp.Token,
	}, nil
}

type worksheetResponse struct {
	ID string `json:"_id"`
}

// Upload creates worksheets without an ID and updates the others, one
// request per worksheet. Rejected worksheets are listed in the summary's
// Failed map; only a missing session or a cancelled context make Upload
// return an error.
func (c *Client) Upload(
	ctx context.Context,
	session *Session,
	worksheets []domain.Worksheet,
) (*domain.UploadSummary, error) {
	if session == nil || session.Token == "" {
		return nil, ferrors.New(ferrors.CodeUnauthorized, "upload requires an authenticated session")
	}

	summary := &domain.UploadSummary{}
	for _, ws := range worksheets {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("upload cancelled: %w", err)
		}

		method := http.MethodPost
		target := c.accountURL(session.Account, "worksheets")
		if ws.ID != "" {
			method = http.MethodPut
			target = c.accountURL(session.Account, "worksheets", ws.ID)
		}

		var resp worksheetResponse
		if _, err := c.do(ctx, method, target, session.Token, ws, &resp); err != nil {
			c.logger.Warn("worksheet upload failed",
				zap.String("account", session.Account),
				zap.String("worksheet", ws.Name),
				zap.Error(err),
			)
			if summary.Failed == nil {
				summary.Failed = map[string]string{}
			}
			summary.Failed[ws.Name] = err.Error()
			continue
		}

		summary.Uploaded++
		if method == http.MethodPost {
			summary.Created = append(summary.Created, ws.Name)
		} else {
			summary.Updated = append(summary.Updated, ws.Name)
		}
	}

	c.logger.Info("upload finished",
		zap.String("account", session.Account),
		zap.Int("uploaded", summary.Uploaded),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func (c *Client) accountURL(account string, parts ...string) string {
	segs := make([]string, 0, len(parts)+3)
	segs = append(segs, c.baseURL, "v1", "accounts", url.PathEscape(account))
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return strings.Join(segs, "/")
}

// do sends a JSON request and decodes a JSON response into out. The returned
// status is 0 when no response was received.
func (c *Client) do(ctx context.Context, method, target, token string, in, out interface{}) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, fmt.Errorf("%s %s: %s: %s",
			method, req.URL.Path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
