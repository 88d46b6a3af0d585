package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaChatSendsHistory(t *testing.T) {
	var got struct {
		Model    string          `json:"model"`
		Messages []ollamaMessage `json:"messages"`
		Stream   bool            `json:"stream"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, expected /api/chat", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "hang in there"},
			"done":    true,
		})
	}))
	defer srv.Close()

	o := NewOllamaService(srv.URL, "mistral")
	reply, err := o.Chat(context.Background(), "be kind", []ChatTurn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleModel, Text: "hey"},
	}, "help")
	if err != nil {
		t.Fatalf("Chat() = %v", err)
	}
	if reply != "hang in there" {
		t.Fatalf("Chat() = %q", reply)
	}
	if got.Model != "mistral" || got.Stream {
		t.Fatalf("request model=%q stream=%v", got.Model, got.Stream)
	}
	roles := []string{}
	for _, m := range got.Messages {
		roles = append(roles, m.Role)
	}
	if strings.Join(roles, ",") != "system,user,assistant,user" {
		t.Fatalf("roles = %v", roles)
	}
}

func TestOllamaGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewOllamaService(srv.URL, "")
	if _, err := o.GenerateJSON(context.Background(), "p"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("GenerateJSON() = %v, expected a 404 error", err)
	}
}

func TestOllamaDynamicSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			json.NewEncoder(w).Encode(map[string]interface{}{"response": "tip", "done": true})
		}
	}))
	defer srv.Close()

	url := "http://127.0.0.1:1"
	o := NewOllamaServiceWithGetters(func() string { return url }, nil)
	if o.model() != defaultOllamaModel {
		t.Fatalf("model() = %q, expected default", o.model())
	}

	url = srv.URL
	text, err := o.GenerateText(context.Background(), "p")
	if err != nil || text != "tip" {
		t.Fatalf("GenerateText() = %q, %v", text, err)
	}
	if err := o.Ping(context.Background(), ""); err != nil {
		t.Fatalf("Ping() = %v", err)
	}
}
