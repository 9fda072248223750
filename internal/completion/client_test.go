package completion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"helpdesk-platform/internal/config"
)

func TestHTTPClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"{\"sector\":\"TECHNICAL\"}","model":"m-1"}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(config.CompletionConfig{BaseURL: srv.URL, APIKey: "key-1"}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	resp, err := c.Complete(context.Background(), Request{Prompt: "classify this"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.Text == "" || resp.Model != "m-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHTTPClient_Non2xxIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(config.CompletionConfig{BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, err = c.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestHTTPClient_TimeoutIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(config.CompletionConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, err = c.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream on timeout, got %v", err)
	}
}

func TestHTTPClient_EmptyPromptRejected(t *testing.T) {
	c, err := NewHTTPClient(config.CompletionConfig{BaseURL: "http://llm.local"}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := c.Complete(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}
