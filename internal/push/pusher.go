// Package push uploads a validated connector descriptor to a remote
// registry using a bearer credential.
package push

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ErrMissingCredential is returned before any network call when no
// bearer token was supplied.
var ErrMissingCredential = errors.New("missing credential")

// TransportError wraps a network-level failure reaching the registry.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pushing to %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteRejected carries the registry's diagnostic for a non-success
// status.
type RemoteRejected struct {
	Status  int
	Message string
}

func (e *RemoteRejected) Error() string {
	return fmt.Sprintf("registry rejected push (status %d): %s", e.Status, e.Message)
}

// Result reports an accepted push.
type Result struct {
	Status    int    `json:"status"`
	RequestID string `json:"request_id"`
	Message   string `json:"message,omitempty"`
}

// Pusher uploads descriptor snapshots.
type Pusher struct {
	Client *http.Client
}

// New creates a pusher; a nil client uses http.DefaultClient.
func New(client *http.Client) *Pusher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Pusher{Client: client}
}

// Push uploads the descriptor bytes as a point-in-time snapshot. The
// token check happens before any request is built, so a missing
// credential never touches the network.
func (p *Pusher) Push(ctx context.Context, descriptorBytes []byte, endpoint, token string) (*Result, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no bearer token supplied", ErrMissingCredential)
	}

	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(descriptorBytes))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-yaml")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteRejected{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return &Result{
		Status:    resp.StatusCode,
		RequestID: requestID,
		Message:   strings.TrimSpace(string(body)),
	}, nil
}
