package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/emojiblog/emojiblog/pkg/config"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// Client talks to the identity provider's backend API
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewClient creates a backend API client
func NewClient(cfg *config.IdentityConfig) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("identity_api_url is required")
	}
	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("invalid identity_api_url: %w", err)
	}

	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	logger := logging.WithComponent("identity-client")
	c := &Client{
		baseURL:   strings.TrimRight(cfg.APIURL, "/"),
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		logger:    logger,
	}

	logger.Info("Identity client initialized", zap.String("url", c.baseURL))
	return c, nil
}

// GetUserList returns the accounts among ids that exist
func (c *Client) GetUserList(ctx context.Context, ids []string, limit int) ([]User, error) {
	ctx, span := telemetry.StartSpan(ctx, "identity.get_user_list")
	defer span.End()
	span.SetAttributes(attribute.Int("identity.ids", len(ids)))

	if len(ids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	for _, id := range ids {
		q.Add("user_id", id)
	}
	q.Set("limit", strconv.Itoa(limit))

	var users []User
	if _, err := c.get(ctx, "/users", q, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser fetches one account; nil, nil when it does not exist
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	ctx, span := telemetry.StartSpan(ctx, "identity.get_user")
	defer span.End()

	var user User
	found, err := c.get(ctx, "/users/"+url.PathEscape(id), nil, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

// GetUsersByUsername returns accounts with an exact username match
func (c *Client) GetUsersByUsername(ctx context.Context, username string) ([]User, error) {
	ctx, span := telemetry.StartSpan(ctx, "identity.get_users_by_username")
	defer span.End()

	q := url.Values{}
	q.Set("username", username)

	var users []User
	if _, err := c.get(ctx, "/users", q, &users); err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", username, err)
	}
	return users, nil
}

// get performs a throttled GET and decodes a 2xx JSON body into out.
// A 404 reports found=false without error.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Identity provider request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}
