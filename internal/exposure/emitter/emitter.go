// Package emitter posts viewed events to the external progress service.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/louisbranch/cardstream/internal/platform/timeouts"
)

// EventKindViewed is the progress event kind for a card exposure.
const EventKindViewed = "viewed"

// HTTPEmitter posts viewed events to a progress API endpoint. Delivery is
// best effort: callers treat a returned error as log-and-drop, never retry.
type HTTPEmitter struct {
	endpoint string
	client   *http.Client
}

type eventEnvelope struct {
	Kind string    `json:"kind"`
	Body eventBody `json:"body"`
}

type eventBody struct {
	ItemID string `json:"item_id"`
}

// NewHTTPEmitter builds an emitter posting to the given progress API URL.
func NewHTTPEmitter(endpoint string, client *http.Client) (*HTTPEmitter, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("progress api endpoint is required")
	}
	if client == nil {
		client = &http.Client{Timeout: timeouts.EmitRequest}
	}
	return &HTTPEmitter{endpoint: endpoint, client: client}, nil
}

// Emit posts one viewed event for the item.
func (e *HTTPEmitter) Emit(ctx context.Context, itemID string) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("emitter is not configured")
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return fmt.Errorf("item id is required")
	}

	payload, err := json.Marshal(eventEnvelope{
		Kind: EventKindViewed,
		Body: eventBody{ItemID: itemID},
	})
	if err != nil {
		return fmt.Errorf("encode viewed event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build viewed event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post viewed event: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post viewed event: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Func adapts a function to the domain emitter contract. It exists for tests
// and in-process wiring.
type Func func(ctx context.Context, itemID string) error

// Emit invokes the wrapped function.
func (f Func) Emit(ctx context.Context, itemID string) error {
	if f == nil {
		return nil
	}
	return f(ctx, itemID)
}
