package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opengovchat/decision-bot-go/internal/config"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/intent"
)

type fakeRouter struct {
	reply *domain.ChatReply
	err   error
	last  *domain.ChatRequest
}

func (f *fakeRouter) Route(_ context.Context, req *domain.ChatRequest) (*domain.ChatReply, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	reply := *f.reply
	reply.ConvID = req.ConvID
	return &reply, nil
}

func testServer(router *fakeRouter) *Server {
	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, &Dependencies{
		Router:     router,
		Classifier: intent.New(37),
	})
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestClassifyEndpoint(t *testing.T) {
	s := testServer(&fakeRouter{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/classify", map[string]string{"text": "כמה החלטות בנושא חינוך"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result domain.ClassificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Intent != domain.IntentQuery {
		t.Errorf("intent = %s, want QUERY", result.Intent)
	}
	if !result.RouteFlags.IsStatistical {
		t.Error("count question should be statistical")
	}
}

func TestClassifyEndpointRejectsBadRequests(t *testing.T) {
	s := testServer(&fakeRouter{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/classify", map[string]string{"text": "   "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", resp.StatusCode)
	}

	getResp, err := http.Get(ts.URL + "/api/classify")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", getResp.StatusCode)
	}
}

func TestChatEndpointAssignsConversationID(t *testing.T) {
	router := &fakeRouter{reply: &domain.ChatReply{Reply: "נמצאו החלטות", Intent: domain.IntentQuery}}
	s := testServer(router)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/chat", map[string]string{"text": "החלטות בנושא חינוך"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var reply domain.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.ConvID == "" {
		t.Error("server should assign a conversation id")
	}
	if router.last == nil || router.last.ConvID != reply.ConvID {
		t.Error("assigned id should be passed to the router")
	}
	if reply.Reply != "נמצאו החלטות" {
		t.Errorf("reply = %q", reply.Reply)
	}
}

func TestChatEndpointKeepsClientConversationID(t *testing.T) {
	router := &fakeRouter{reply: &domain.ChatReply{Reply: "ok"}}
	s := testServer(router)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/chat", map[string]string{"text": "שאלה", "conv_id": "conv-42"})
	resp.Body.Close()

	if router.last == nil || router.last.ConvID != "conv-42" {
		t.Errorf("router conv_id = %+v, want conv-42", router.last)
	}
}

func TestChatEndpointInternalError(t *testing.T) {
	router := &fakeRouter{err: fmt.Errorf("downstream broke")}
	s := testServer(router)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/chat", map[string]string{"text": "שאלה"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestHealthEndpointDegradedWithoutBackends(t *testing.T) {
	s := testServer(&fakeRouter{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 with no backends wired", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", payload["status"])
	}
	if payload["redis"] != false || payload["postgres"] != false {
		t.Errorf("backend flags = %v/%v, want false/false", payload["redis"], payload["postgres"])
	}
}

// sizedRouter reports memo cache occupancy the way the production router does.
type sizedRouter struct {
	fakeRouter
}

func (s *sizedRouter) CacheSize() int { return 3 }

func TestHealthEndpointReportsClassifyCache(t *testing.T) {
	s := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, &Dependencies{
		Router:     &sizedRouter{},
		Classifier: intent.New(37),
	})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["classify_cache"] != float64(3) {
		t.Errorf("classify_cache = %v, want 3", payload["classify_cache"])
	}
}

func TestWebSocketChatRoundTrip(t *testing.T) {
	router := &fakeRouter{reply: &domain.ChatReply{Reply: "תשובה", Intent: domain.IntentQuery}}
	s := testServer(router)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsFrame{Text: "החלטות בנושא חינוך"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply domain.ChatReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}

	if reply.Reply != "תשובה" {
		t.Errorf("reply = %q", reply.Reply)
	}
	if reply.ConvID == "" {
		t.Error("connection should carry a conversation id")
	}

	// a second frame on the same connection keeps the same conversation
	first := reply.ConvID
	if err := conn.WriteJSON(wsFrame{Text: "ומה עוד"}); err != nil {
		t.Fatalf("write second: %v", err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if reply.ConvID != first {
		t.Errorf("conv id changed between frames: %q vs %q", first, reply.ConvID)
	}
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	s := New(config.ServerConfig{AllowedOrigins: []string{"https://app.example"}}, &Dependencies{
		Router:     &fakeRouter{reply: &domain.ChatReply{Reply: "ok"}},
		Classifier: intent.New(37),
	})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("dial should fail for a disallowed origin")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	allowed := http.Header{"Origin": []string{"https://app.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, allowed)
	if err != nil {
		t.Fatalf("allowed origin should connect: %v", err)
	}
	conn.Close()
}
