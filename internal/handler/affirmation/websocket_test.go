package affirmation

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T, generator Generator) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(setupRouter(generator))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/affirmations/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func TestWebSocketGenerate(t *testing.T) {
	conn := dial(t, newService(t, reply(`{"affirmation": "My friendships are full of joy."}`)))

	if err := conn.WriteJSON(map[string]string{"id": "req-1", "topic": "friendship", "mood": "joyful"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.ID != "req-1" || frame.Status != StatusOK {
		t.Fatalf("unexpected frame: %#v", frame)
	}
	if frame.Affirmation != "My friendships are full of joy." {
		t.Fatalf("unexpected affirmation: %q", frame.Affirmation)
	}

	// 完成后可以继续提交
	if err := conn.WriteJSON(map[string]string{"topic": "friendship", "mood": "grateful"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	frame = readFrame(t, conn)
	if frame.Status != StatusOK || frame.ID == "" {
		t.Fatalf("expected ok frame with generated id, got %#v", frame)
	}
}

func TestWebSocketInvalidInput(t *testing.T) {
	conn := dial(t, newService(t, reply(`{"affirmation": "unused"}`)))

	if err := conn.WriteJSON(map[string]string{"id": "bad", "topic": "", "mood": "calm"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Status != StatusError || frame.Code != "invalid_input" {
		t.Fatalf("expected invalid_input error frame, got %#v", frame)
	}
	if frame.Error != "topic is required" {
		t.Fatalf("unexpected error message: %q", frame.Error)
	}
}

func TestWebSocketBusyWhileGenerating(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := func(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
		close(started)
		select {
		case <-release:
			return schema.AssistantMessage(`{"affirmation": "Worth the wait."}`, nil), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	conn := dial(t, newService(t, blocking))

	if err := conn.WriteJSON(map[string]string{"id": "first", "topic": "patience", "mood": "hopeful"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	<-started

	if err := conn.WriteJSON(map[string]string{"id": "second", "topic": "patience", "mood": "hopeful"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	busy := readFrame(t, conn)
	if busy.ID != "second" || busy.Status != StatusBusy {
		t.Fatalf("expected busy frame for second request, got %#v", busy)
	}

	close(release)
	done := readFrame(t, conn)
	if done.ID != "first" || done.Status != StatusOK || done.Affirmation != "Worth the wait." {
		t.Fatalf("unexpected result frame: %#v", done)
	}
}
