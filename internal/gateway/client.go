// Package gateway implements the public API tier: request validation,
// forwarding to the agent tier, and mapping upstream failures to distinct
// HTTP error classes.
package gateway

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
	"time"

	"github.com/routelab/optiroute/internal/route"
)

// Sentinel errors for the two upstream failure classes the gateway
// distinguishes. Everything else is a generic upstream failure.
var (
	ErrAgentTimeout     = errors.New("agent request timed out")
	ErrAgentUnavailable = errors.New("agent unreachable")
)

// AgentClient forwards optimization requests to the agent tier.
type AgentClient struct {
	baseURL string
	client  *http.Client
}

// NewAgentClient creates a client for the agent at baseURL. Timeouts are
// per-call; the underlying client carries none of its own.
func NewAgentClient(baseURL string, httpClient *http.Client) *AgentClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AgentClient{baseURL: baseURL, client: httpClient}
}

// Optimize posts req to the given agent path and returns the agent's
// response body verbatim. The RouteResult passes through unchanged; the
// gateway never reshapes a successful reply.
func (c *AgentClient) Optimize(ctx context.Context, path string, req route.DeliveryRequest, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent error (status %d): %s", resp.StatusCode, body)
	}
	return body, nil
}

// classify maps transport errors onto the gateway's two upstream failure
// classes: timeout and connection failure.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAgentTimeout, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrAgentTimeout, err)
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	return err
}
