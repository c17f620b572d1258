package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Complete(t *testing.T) {
	var gotReq completionRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(completionResponse{
			Choices: []completionChoice{
				{Message: Message{Role: "assistant", Content: "Hello!"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	got, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}, CompletionParams{Temperature: 0.3})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Hello!" {
		t.Errorf("Complete() = %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" || len(gotReq.Messages) != 2 {
		t.Errorf("request = %+v", gotReq)
	}
	if gotReq.Temperature != 0.3 {
		t.Errorf("Temperature = %v", gotReq.Temperature)
	}
}

func TestClient_Complete_ModelOverride(t *testing.T) {
	var gotReq completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(completionResponse{
			Choices: []completionChoice{{Message: Message{Content: "ok"}}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "default-model")
	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, CompletionParams{Model: "override"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if gotReq.Model != "override" {
		t.Errorf("Model = %q, want override", gotReq.Model)
	}
}

func TestClient_Complete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(completionResponse{})
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, "k", "m")
			if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, CompletionParams{}); err == nil {
				t.Error("Complete() expected error")
			}
		})
	}
}
