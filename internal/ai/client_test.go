package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "  "}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled got %v", err)
	}
	c, err := NewClient(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Model() != "gpt-4o" || !c.Enabled() {
		t.Fatalf("unexpected defaults model=%q enabled=%v", c.Model(), c.Enabled())
	}
}

func TestClientGenerate(t *testing.T) {
	var got struct {
		Model    string              `json:"model"`
		Messages []map[string]string `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Proceed, but cap leverage.  "}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	text, err := c.Generate(context.Background(), "You are a deal partner.", "Review this.")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Proceed, but cap leverage." {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Model != "gpt-4o" || len(got.Messages) != 2 {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.Messages[0]["role"] != "system" || got.Messages[0]["content"] != "You are a deal partner." {
		t.Fatalf("unexpected system message %+v", got.Messages[0])
	}
	if got.Messages[1]["role"] != "user" || got.Messages[1]["content"] != "Review this." {
		t.Fatalf("unexpected user message %+v", got.Messages[1])
	}
}

func TestClientGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		substr string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrUnauthorized, "401"},
		{"forbidden", http.StatusForbidden, `{}`, ErrUnauthorized, "403"},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRateLimited, "429"},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, nil, "boom"},
		{"empty choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse, ""},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`, ErrEmptyResponse, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			_, err = c.Generate(context.Background(), "sys", "prompt")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
			if tc.substr != "" && !strings.Contains(err.Error(), tc.substr) {
				t.Fatalf("expected %q in %v", tc.substr, err)
			}
		})
	}
}

func TestNilClientDisabled(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
	if _, err := c.Generate(context.Background(), "", ""); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled got %v", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), GeminiConfig{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled got %v", err)
	}
}
