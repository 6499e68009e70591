// Package client is a typed wrapper around the tuition matching HTTP API.
// It injects the bearer token, bounds every call with a timeout and turns
// the response envelope into Go values and classified errors.
package client

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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/config"
	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// DefaultTimeout bounds a call when Config.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// TokenProvider supplies the bearer token. ok is false when signed out.
type TokenProvider interface {
	Token() (token string, ok bool)
}

// StaticToken is a fixed token; the empty string means signed out.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token() (string, bool) { return string(s), s != "" }

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func() (string, bool)

// Token implements TokenProvider.
func (f TokenFunc) Token() (string, bool) { return f() }

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenProvider
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues API calls. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenProvider
	logger    *zap.Logger
	validator *validator.Validate

	TutorRequests *TutorRequests
	TuitionJobs   *TuitionJobs
	DemoClasses   *DemoClasses
}

// New builds a Client and its domain services.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 || httpClient.Timeout > cfg.Timeout {
		copied := *httpClient
		copied.Timeout = cfg.Timeout
		httpClient = &copied
	}
	if cfg.Tokens == nil {
		cfg.Tokens = StaticToken("")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpClient,
		tokens:    cfg.Tokens,
		logger:    cfg.Logger.With(zap.String("component", "api_client")),
		validator: dto.NewValidator(),
	}
	c.TutorRequests = &TutorRequests{c: c, cache: NewAssignmentCache(time.Minute)}
	c.TuitionJobs = &TuitionJobs{c: c}
	c.DemoClasses = &DemoClasses{c: c}
	return c
}

// NewFromConfig builds a Client from the CLIENT_* settings.
func NewFromConfig(cfg config.ClientConfig, tokens TokenProvider, logger *zap.Logger) *Client {
	return New(Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout, Tokens: tokens, Logger: logger})
}

// envelope mirrors the server's response shape.
type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Result is the decoded success envelope of a call.
type Result struct {
	Message    string
	Pagination *models.Pagination
}

type call struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	out    interface{}
	public bool
}

func (c *Client) do(ctx context.Context, rc call) (*Result, error) {
	var token string
	if !rc.public {
		t, ok := c.tokens.Token()
		if !ok || t == "" {
			return nil, ErrAuthentication
		}
		token = t
	}

	target := c.baseURL + rc.path
	if len(rc.query) > 0 {
		target += "?" + rc.query.Encode()
	}

	var reader io.Reader
	if rc.body != nil {
		payload, err := json.Marshal(rc.body)
		if err != nil {
			return nil, validationError(fmt.Sprintf("encode request: %v", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, target, reader)
	if err != nil {
		return nil, newError(KindNetwork, 0, "", "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api call failed", zap.String("method", rc.method), zap.String("path", rc.path), zap.Error(err))
		msg := "request failed"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			msg = "request timed out"
		}
		return nil, newError(KindNetwork, 0, "", msg, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("method", rc.method),
		zap.String("path", rc.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, newError(KindNetwork, resp.StatusCode, "", "unreadable response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return nil, classify(resp.StatusCode, env)
	}

	if rc.out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, rc.out); err != nil {
			return nil, newError(KindNetwork, resp.StatusCode, "", "unexpected response data", err)
		}
	}
	return &Result{Message: env.Message, Pagination: env.Pagination}, nil
}

func classify(status int, env envelope) *Error {
	code, msg := "", env.Message
	if env.Error != nil {
		code = env.Error.Code
		if env.Error.Message != "" {
			msg = env.Error.Message
		}
	}

	var kind Kind
	switch {
	case code == "DUPLICATE_APPLICATION":
		kind = KindDuplicate
	case code == "INVALID_STATE_TRANSITION":
		kind = KindInvalidState
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuthorization
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status == http.StatusBadRequest || code == "VALIDATION_ERROR":
		kind = KindValidation
	default:
		kind = KindServer
	}
	return newError(kind, status, code, msg, nil)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
