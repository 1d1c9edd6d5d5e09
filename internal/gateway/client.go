package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// TokenSource yields the bearer credential the client attaches to authenticated calls. An empty
// token means no credential is stored; the gateway sends the request anyway and lets the service
// answer 401.
type TokenSource interface {
	Token() (string, error)
}

// Client is the sole component permitted to perform network I/O against the remote service. Every
// operation is a thin typed wrapper over one endpoint; failures are normalized into *Error. The
// client never retries and sets no timeouts of its own; cancellation is the caller's business via
// the context.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource

	logger *slog.Logger
}

// NewClient creates a gateway client for the service at baseURL. The trailing slash, if any, is
// trimmed so paths can be joined verbatim.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		tokens:  tokens,
		logger:  logger.With(slog.String("module", "gateway")),
	}
}

// newRequest builds a request for path and attaches the bearer header when a credential is
// stored. A failing token read is treated as an absent credential.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		c.logger.Warn("Failed to read stored credential", slog.String("err", err.Error()))
		token = ""
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs req and decodes a JSON success body into out (when out is non-nil). Non-success
// statuses and transport failures come back as *Error.
func (c *Client) send(op string, req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: op, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		body, _ := io.ReadAll(resp.Body)
		return &Error{Kind: KindUnauthorized, Op: op, Status: resp.StatusCode, Body: string(body)}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return &Error{Kind: KindRejected, Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: error decoding response: %w", op, err)
	}
	return nil
}

// getJSON is the common GET-and-decode path.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.send(op, req, out)
}

// sendJSON marshals in as the request body and decodes the response into out.
func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out any) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: error marshaling request: %w", op, err)
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(op, req, out)
}
