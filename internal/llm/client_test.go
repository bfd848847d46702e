package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPClientGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hola"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "key", "test-model", nil)
	out, err := c.Generate(context.Background(), "que es go?")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != "hola" {
		t.Fatalf("unexpected answer: %q", out)
	}
	if got.Model != "test-model" {
		t.Fatalf("unexpected model: %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "que es go?" || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", nil)
	_, err := c.Generate(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "status=429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestHTTPClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", nil)
	if _, err := c.Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestMockClientRecordsPrompts(t *testing.T) {
	m := &MockClient{Response: "ok"}
	_, _ = m.Generate(context.Background(), "a")
	_, _ = m.Generate(context.Background(), "b")
	p := m.Prompts()
	if len(p) != 2 || p[0] != "a" || p[1] != "b" {
		t.Fatalf("unexpected prompts: %v", p)
	}
}
