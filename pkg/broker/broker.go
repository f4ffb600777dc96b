// Package broker issues the short-lived, single-use credentials that
// authenticate one realtime negotiation. The gallery backend binds the
// artwork's session instructions server-side when it mints the credential.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Credential is a single-use, time-boxed secret. It is owned by exactly
// one session attempt and discarded on session end regardless of outcome.
type Credential struct {
	// Secret is the bearer value for the negotiation call. Opaque.
	Secret string

	// SessionID is the broker-side session this credential is scoped to.
	SessionID string

	// ExpiresAt is when the credential stops being accepted.
	ExpiresAt time.Time
}

// Broker issues credentials scoped to an artwork.
type Broker interface {
	Issue(ctx context.Context, artworkID string) (*Credential, error)
}

// CredentialError indicates the broker was unreachable, refused the
// request, or returned a payload without the expected secret.
type CredentialError struct {
	Status int
	Body   string
	Err    error
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker: issue credential: %v", e.Err)
	}
	return fmt.Sprintf("broker: issue credential: status %d: %s", e.Status, e.Body)
}

// Unwrap returns the underlying transport error, if any.
func (e *CredentialError) Unwrap() error {
	return e.Err
}

// HTTPBroker issues credentials from the gallery's realtime session API.
type HTTPBroker struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPBroker creates a broker client for the gallery at baseURL.
func NewHTTPBroker(baseURL string, httpClient *http.Client) *HTTPBroker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPBroker{baseURL: baseURL, httpClient: httpClient}
}

// credentialResponse is the broker's wire shape.
type credentialResponse struct {
	ID           string `json:"id"`
	ExpiresAt    int64  `json:"expires_at"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// Issue requests a fresh credential bound to artworkID. Any failure —
// unreachable broker, non-2xx status, or a payload missing the secret —
// yields a CredentialError; callers must not attempt negotiation in that
// case.
func (b *HTTPBroker) Issue(ctx context.Context, artworkID string) (*Credential, error) {
	reqBody, err := json.Marshal(map[string]string{"artwork_id": artworkID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/api/realtime/sessions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &CredentialError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &CredentialError{Status: resp.StatusCode, Body: string(body)}
	}

	var payload credentialResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &CredentialError{Status: resp.StatusCode, Body: "malformed credential payload"}
	}
	if payload.ClientSecret.Value == "" {
		return nil, &CredentialError{Status: resp.StatusCode, Body: "credential payload missing secret"}
	}

	expiresAt := payload.ClientSecret.ExpiresAt
	if expiresAt == 0 {
		expiresAt = payload.ExpiresAt
	}

	return &Credential{
		Secret:    payload.ClientSecret.Value,
		SessionID: payload.ID,
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}

// MaskSecret returns a log-safe rendering of a secret: the first four
// characters followed by an ellipsis. Secrets are never logged in full.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "..."
}

// Ensure HTTPBroker implements Broker.
var _ Broker = (*HTTPBroker)(nil)
