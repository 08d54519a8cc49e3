package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestPublishDigestSplitsLongMessages(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		texts []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("chat_id") != "42" || r.PostForm.Get("parse_mode") != "Markdown" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		mu.Lock()
		texts = append(texts, r.PostForm.Get("text"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42").WithBaseURL(server.URL, server.Client())
	digest := strings.Repeat("line of digest text\n", 500)

	if err := n.PublishDigest(context.Background(), digest); err != nil {
		t.Fatalf("PublishDigest error: %v", err)
	}
	if len(texts) < 3 {
		t.Fatalf("expected digest to be split, got %d messages", len(texts))
	}
	if strings.Join(texts, "") != digest {
		t.Fatalf("parts do not reassemble into the digest")
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "42").PublishDigest(context.Background(), "x"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42").WithBaseURL(server.URL, server.Client())
	err := n.PublishDigest(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	if got := SplitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected split: %q", got)
	}

	got := SplitMessage("aaaa\nbbbb\ncccc", 7)
	want := []string{"aaaa\n", "bbbb\n", "cccc"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}

	runes := strings.Repeat("é", 25)
	parts := SplitMessage(runes, 10)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	for _, p := range parts {
		if !utf8.ValidString(p) || utf8.RuneCountInString(p) > 10 {
			t.Fatalf("invalid part %q", p)
		}
	}
}
