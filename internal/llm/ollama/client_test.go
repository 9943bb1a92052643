package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/llm"
)

func TestChatSendsImagesAndFormat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"date\":null}"},"done":true}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL + "/"}, nil)
	reply, err := c.Chat(context.Background(), llm.VisionRequest{
		Model:  "qwen2.5vl:7b",
		Prompt: "read it",
		Images: [][]byte{[]byte("png-bytes")},
		Format: map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != `{"date":null}` {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "qwen2.5vl:7b" || got.Stream {
		t.Errorf("model/stream = %q/%v", got.Model, got.Stream)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "read it" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if want := base64.StdEncoding.EncodeToString([]byte("png-bytes")); got.Messages[0].Images[0] != want {
		t.Errorf("image = %q, want %q", got.Messages[0].Images[0], want)
	}
	if got.Format == nil {
		t.Error("format should be forwarded")
	}
	if got.Options["temperature"] != 0.0 {
		t.Errorf("temperature = %v", got.Options["temperature"])
	}
}

func TestChatSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{Host: srv.URL}, nil).Chat(context.Background(), llm.VisionRequest{Model: "nope"})
	if err == nil || !strings.Contains(err.Error(), "try pulling it first") {
		t.Fatalf("expected server message in error, got %v", err)
	}
}

func TestCheckAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5vl:7b"},{"name":"llava:13b"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL}, nil)
	if err := c.CheckAvailable(context.Background(), "qwen2.5vl"); err != nil {
		t.Fatalf("substring match should succeed: %v", err)
	}

	err := c.CheckAvailable(context.Background(), "minicpm-v")
	if !errors.Is(err, common.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "ollama pull minicpm-v") {
		t.Errorf("error should suggest pulling the model: %v", err)
	}
}

func TestCheckAvailableUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	err := NewClient(Config{Host: host}, nil).CheckAvailable(context.Background(), "qwen2.5vl")
	if !errors.Is(err, common.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "ollama serve") {
		t.Errorf("error should suggest starting ollama: %v", err)
	}
}
