package beckn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/logging"
)

// Client talks to a Beckn-enabled BPP sandbox. It is safe for concurrent
// use; journey state lives on the Transaction a call of Begin returns.
type Client struct {
	baseURL  string
	http     *http.Client
	bapID    string
	bapURI   string
	fallback bool
	logger   logging.Logger
	now      func() time.Time
}

// ClientOptions holds overrides passed to NewClient.
type ClientOptions struct {
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
	// Timeout bounds each protocol call. Defaults to 30 seconds.
	Timeout time.Duration
	// BapID and BapURI identify this platform in every context block.
	BapID  string
	BapURI string
	// SandboxFallback answers failed calls with canned sandbox replies.
	// Enabled by default so demo journeys complete offline.
	SandboxFallback bool
	// Logger receives per-call outcome logs.
	Logger logging.Logger
	// Now supplies context timestamps; tests inject a fixed clock.
	Now func() time.Time
}

// NewClient constructs a Client for the sandbox at baseURL.
func NewClient(baseURL string, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		Timeout:         30 * time.Second,
		BapID:           "voltmesh-agent",
		BapURI:          "http://voltmesh.example.com",
		SandboxFallback: true,
		Logger:          logging.NoOpLogger{},
		Now:             time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		bapID:    opts.BapID,
		bapURI:   opts.BapURI,
		fallback: opts.SandboxFallback,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Transaction is one Beckn journey: every call shares the transaction
// identifier minted by Begin. Not safe for concurrent use; a journey is a
// strict call sequence.
type Transaction struct {
	ID     string
	client *Client
}

// Begin mints a journey with a fresh transaction identifier.
func (c *Client) Begin() *Transaction {
	return &Transaction{ID: core.NewID(), client: c}
}

func (t *Transaction) newContext(action string) Context {
	return Context{
		Domain:        Domain,
		Action:        action,
		Version:       Version,
		BapID:         t.client.bapID,
		BapURI:        t.client.bapURI,
		TransactionID: t.ID,
		MessageID:     core.NewID(),
		Timestamp:     t.client.now().Format(time.RFC3339),
		TTL:           TTL,
	}
}

// Search runs the DISCOVER phase: it asks for energy windows matching the
// schedule decisions.
func (t *Transaction) Search(ctx context.Context, decisions []core.Decision) (Response, error) {
	return t.call(ctx, ActionSearch, map[string]any{"intent": searchIntent(decisions)})
}

// Select runs the first ORDER step: it picks a catalog item from the
// configured grid provider.
func (t *Transaction) Select(ctx context.Context, item map[string]any) (Response, error) {
	return t.call(ctx, ActionSelect, map[string]any{
		"order": map[string]any{
			"items":    []any{item},
			"provider": map[string]any{"id": DefaultProviderID},
		},
	})
}

// Init initializes the order.
func (t *Transaction) Init(ctx context.Context, order map[string]any) (Response, error) {
	return t.call(ctx, ActionInit, map[string]any{"order": order})
}

// Confirm commits the order.
func (t *Transaction) Confirm(ctx context.Context, order map[string]any) (Response, error) {
	return t.call(ctx, ActionConfirm, map[string]any{"order": order})
}

// Status runs the FULFILLMENT phase status check.
func (t *Transaction) Status(ctx context.Context, orderID string) (Response, error) {
	return t.call(ctx, ActionStatus, map[string]any{"order_id": orderID})
}

// Update reports fulfillment progress for an in-flight order.
func (t *Transaction) Update(ctx context.Context, orderID string, fulfillment map[string]any) (Response, error) {
	return t.call(ctx, ActionUpdate, map[string]any{
		"order_id":      orderID,
		"update_target": "fulfillment",
		"order":         map[string]any{"fulfillment": fulfillment},
	})
}

// Rate runs the POST-FULFILLMENT phase: it submits the rating and feedback.
func (t *Transaction) Rate(ctx context.Context, orderID string, rating Rating) (Response, error) {
	return t.call(ctx, ActionRating, map[string]any{
		"ratings": []any{map[string]any{
			"id":       orderID,
			"value":    rating.Value,
			"feedback": rating.Feedback,
		}},
	})
}

// call posts {context, message} to <base>/<action> and decodes the reply.
// On failure it either substitutes the sandbox fallback reply or propagates
// the error, depending on configuration.
func (t *Transaction) call(ctx context.Context, action string, message map[string]any) (Response, error) {
	env := Envelope{Context: t.newContext(action), Message: message}

	started := time.Now()
	resp, err := t.client.post(ctx, action, env)
	if err != nil {
		t.client.logger.Error("Beckn call failed", "action", action, "transaction_id", t.ID, "duration", time.Since(started), "error", err)
	} else {
		t.client.logger.Info("Beckn call completed", "action", action, "transaction_id", t.ID, "duration", time.Since(started))
	}
	if err == nil {
		return resp, nil
	}

	if t.client.fallback {
		t.client.logger.Warn("substituting sandbox fallback reply", "action", action, "error", err)
		return fallbackResponse(env)
	}
	return Response{}, fmt.Errorf("beckn %s: %w", action, err)
}

func (c *Client) post(ctx context.Context, action string, env Envelope) (Response, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+action, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Response{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
