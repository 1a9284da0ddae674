// Package device is the HTTP client for the controller's wire API. The same
// API is served by the firmware itself and by the relay, so the dashboard and
// the relay both talk through this client.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smokemate/internal/models"
)

// Wire API paths.
const (
	PathStatus  = "/status"
	PathConfig  = "/config"
	PathHistory = "/run-status-history"
	PathStart   = "/start"
	PathStop    = "/stop"
)

// maxBodyBytes fits a full run history (1800 samples of roughly 600 bytes)
// several times over.
const (
	maxBodyBytes  = 8 << 20 // 8 MB
	maxErrorBytes = 256
)

// ErrBodyTooLarge is wrapped in the TransportError of a response that does
// not fit in maxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Client talks to one controller (or relay) base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client. A zero timeout leaves requests bounded only by
// the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchStatus reads and parses the current status.
func (c *Client) FetchStatus(ctx context.Context) (models.DeviceStatus, error) {
	body, err := c.get(ctx, PathStatus)
	if err != nil {
		return models.DeviceStatus{}, err
	}
	return models.ParseStatus(body)
}

// FetchConfig reads and parses the current configuration.
func (c *Client) FetchConfig(ctx context.Context) (models.DeviceConfig, error) {
	body, err := c.get(ctx, PathConfig)
	if err != nil {
		return models.DeviceConfig{}, err
	}
	return models.ParseConfig(body)
}

// FetchHistory reads and parses the run history.
func (c *Client) FetchHistory(ctx context.Context) (models.History, error) {
	body, err := c.get(ctx, PathHistory)
	if err != nil {
		return nil, err
	}
	return models.ParseHistory(body)
}

// Start asks the controller to start. Starting a running controller is not
// an error.
func (c *Client) Start(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, PathStart, nil)
	return err
}

// Stop asks the controller to stop. Stopping a stopped controller is not an
// error.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, PathStop, nil)
	return err
}

// SetConfig sends a full-replacement configuration.
func (c *Client) SetConfig(ctx context.Context, payload models.WireConfig) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, PathConfig, b)
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.baseURL + path
	op := method + " " + path

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(data) > maxBodyBytes {
		return nil, &TransportError{Op: op, URL: url, Err: fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, maxBodyBytes)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{Op: op, URL: url, StatusCode: resp.StatusCode, Body: truncate(string(data))}
	}
	return data, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBytes {
		return s[:maxErrorBytes] + "…"
	}
	return s
}
