package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"therapy-chat/internal/domain"
	"therapy-chat/internal/service"
)

func TestStreamHandler_DeliversReplyEvents(t *testing.T) {
	env := setupChatRouter(t)
	sess := createSession(t, env)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session/ws?token=" + sess.Token.Token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	if err := conn.WriteJSON(map[string]string{"type": "message", "content": "I feel so hopeless"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var assistant *domain.Message
	var sawState bool
	for assistant == nil {
		var evt service.Event
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("read: %v", err)
		}
		if evt.Type == service.EventState && evt.State == domain.StateDistressed {
			sawState = true
		}
		if evt.Type == service.EventMessage && evt.Message != nil && evt.Message.Sender == domain.SenderAssistant {
			assistant = evt.Message
		}
	}
	if !sawState {
		t.Fatalf("expected distressed state event before reply")
	}
	if assistant.TherapyMode == nil || *assistant.TherapyMode != domain.ModeCBT {
		t.Fatalf("expected cbt reply, got %+v", assistant)
	}
}

func TestStreamHandler_EmptyMessageError(t *testing.T) {
	env := setupChatRouter(t)
	sess := createSession(t, env)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session/ws?token=" + sess.Token.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "message", "content": "  "}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var frame errorFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "error" || frame.Error != "message is empty" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestStreamHandler_RejectsMissingToken(t *testing.T) {
	env := setupChatRouter(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response")
	}
}
