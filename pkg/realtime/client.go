package realtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultBaseURL is the default HTTP endpoint for SDP negotiation.
	DefaultBaseURL = "https://api.openai.com/v1/realtime"

	// DefaultWebSocketURL is the default WebSocket endpoint.
	DefaultWebSocketURL = "wss://api.openai.com/v1/realtime"
)

// Client dials realtime sessions. It holds endpoint configuration only;
// per-call credentials are passed to the dial methods, used exactly once,
// and never retained.
type Client struct {
	config *clientConfig
}

// clientConfig holds the client configuration.
type clientConfig struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	iceServers []string
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a new realtime client.
func NewClient(opts ...Option) *Client {
	cfg := &clientConfig{
		baseURL:    DefaultBaseURL,
		wsURL:      DefaultWebSocketURL,
		httpClient: http.DefaultClient,
		iceServers: []string{"stun:stun.l.google.com:19302"},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{config: cfg}
}

// WithBaseURL sets the HTTP URL used for SDP negotiation.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithWebSocketURL sets the WebSocket URL.
func WithWebSocketURL(url string) Option {
	return func(c *clientConfig) {
		c.wsURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithICEServers sets the STUN/TURN server URLs for WebRTC dials.
func WithICEServers(urls ...string) Option {
	return func(c *clientConfig) {
		c.iceServers = urls
	}
}

// negotiate posts the SDP offer to the endpoint authenticated by the
// single-use secret and returns the answer SDP. A non-2xx response yields a
// NegotiationError carrying the endpoint's status and body.
func (c *Client) negotiate(ctx context.Context, secret, model, sdp string) (string, error) {
	url := fmt.Sprintf("%s?model=%s", c.config.baseURL, model)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader([]byte(sdp)))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("realtime: negotiation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &NegotiationError{
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("realtime: read answer: %w", err)
	}

	return string(answer), nil
}
