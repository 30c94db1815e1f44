package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// readLine reads one line from the stream or fails after a second
func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("failed to read stream: %v", res.err)
		}
		return strings.TrimRight(res.line, "\n")
	case <-time.After(time.Second):
		t.Fatal("timed out reading stream")
		return ""
	}
}

func connect(t *testing.T, url string) (*http.Response, *bufio.Reader) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	r := bufio.NewReader(resp.Body)
	if line := readLine(t, r); !strings.HasPrefix(line, ": connected ") {
		t.Errorf("expected connected comment, got %q", line)
	}
	readLine(t, r)
	return resp, r
}

func TestHubBroadcast(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	_, r := connect(t, srv.URL)
	if n := h.ClientCount(); n != 1 {
		t.Errorf("expected 1 client, got %d", n)
	}

	h.Broadcast(Message{Event: "todo_created", Data: map[string]int{"index": 0}})

	if line := readLine(t, r); line != "event: todo_created" {
		t.Errorf("unexpected event line %q", line)
	}
	if line := readLine(t, r); line != `data: {"index":0}` {
		t.Errorf("unexpected data line %q", line)
	}
}

func TestHubShutdownDisconnectsClients(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(h)
	defer srv.Close()

	_, r := connect(t, srv.URL)
	cancel()
	<-stopped

	done := make(chan error, 1)
	go func() {
		_, err := r.ReadString('\n')
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected stream to end after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("stream still open after shutdown")
	}

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after shutdown, got %d", resp.StatusCode)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"named", Message{Event: "todo_deleted", Data: "x"}, "event: todo_deleted\ndata: \"x\"\n\n"},
		{"unnamed", Message{Data: 1}, "data: 1\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encode(tt.msg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("encode() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := encode(Message{Data: make(chan int)}); err == nil {
		t.Error("expected error for unencodable data")
	}
}
