package emitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestNewHTTPEmitterRequiresEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPEmitter("   ", nil); err == nil {
		t.Fatal("expected endpoint error")
	}
}

func TestEmitPostsViewedEvent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	e, err := NewHTTPEmitter(server.URL, server.Client())
	if err != nil {
		t.Fatalf("new emitter: %v", err)
	}
	if err := e.Emit(context.Background(), "a3"); err != nil {
		t.Fatalf("emit: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("expected one request, got %d", len(bodies))
	}
	if kind := bodies[0]["kind"]; kind != "viewed" {
		t.Fatalf("expected kind viewed, got %v", kind)
	}
	body, ok := bodies[0]["body"].(map[string]any)
	if !ok || body["item_id"] != "a3" {
		t.Fatalf("unexpected event body %v", bodies[0]["body"])
	}
}

func TestEmitRejectsBlankItemID(t *testing.T) {
	t.Parallel()

	e, err := NewHTTPEmitter("http://progress.invalid/events", nil)
	if err != nil {
		t.Fatalf("new emitter: %v", err)
	}
	if err := e.Emit(context.Background(), "  "); err == nil {
		t.Fatal("expected blank item id error")
	}
}

func TestEmitReportsNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer server.Close()

	e, err := NewHTTPEmitter(server.URL, server.Client())
	if err != nil {
		t.Fatalf("new emitter: %v", err)
	}
	if err := e.Emit(context.Background(), "a1"); err == nil {
		t.Fatal("expected status error")
	}
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()

	var got string
	f := Func(func(_ context.Context, itemID string) error {
		got = itemID
		return nil
	})
	if err := f.Emit(context.Background(), "a1"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got != "a1" {
		t.Fatalf("expected a1, got %q", got)
	}
}
