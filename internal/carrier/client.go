package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// tokenValidity is how long an issued bearer token is reused before the
// client re-authenticates. ShipRocket tokens last 24h; 23h leaves a margin.
const tokenValidity = 23 * time.Hour

// Config holds ShipRocket credentials and endpoint configuration.
type Config struct {
	Email    string
	Password string
	BaseURL  string
	Timeout  time.Duration
}

// tokenCache holds the current bearer token and its expiry.
type tokenCache struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
}

// Client performs authenticated calls against the ShipRocket REST API.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      tokenCache
	logger     *logrus.Entry
}

// NewClient creates a ShipRocket API client.
func NewClient(config Config, logger *logrus.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://apiv2.shiprocket.in/v1/external"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.WithField("component", "carrier.client"),
	}
}

// TestConnection forces a fresh credential exchange to verify the
// configured email/password.
func (c *Client) TestConnection(ctx context.Context) error {
	c.cache.mu.Lock()
	c.cache.token = ""
	c.cache.expiry = time.Time{}
	c.cache.mu.Unlock()
	_, err := c.authToken(ctx)
	return err
}

// authToken returns the cached bearer token, re-authenticating when the
// validity window has elapsed.
func (c *Client) authToken(ctx context.Context) (string, error) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	if c.cache.token != "" && time.Now().Before(c.cache.expiry) {
		return c.cache.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"email":    c.config.Email,
		"password": c.config.Password,
	})
	if err != nil {
		return "", &AuthError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Op: "auth/login", Err: err}
		}
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &AuthError{Err: fmt.Errorf("login returned status %d: %s", resp.StatusCode, string(body))}
	}

	var authResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to decode login response: %w", err)}
	}
	if authResp.Token == "" {
		return "", &AuthError{Err: errors.New("login response carried no token")}
	}

	c.cache.token = authResp.Token
	c.cache.expiry = time.Now().Add(tokenValidity)
	c.logger.Info("Obtained new ShipRocket auth token")

	return c.cache.token, nil
}

// Request makes an authenticated call to the ShipRocket API. body is
// JSON-marshaled for POST requests; params become the query string for GET.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}, params url.Values) (json.RawMessage, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.config.BaseURL + "/" + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("ShipRocket API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Op: path, Err: err}
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("ShipRocket API error response")
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	return json.RawMessage(raw), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
