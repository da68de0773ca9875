// Package integration contains end-to-end tests that run the fully wired chat
// relay behind an httptest server and talk to it over real WebSocket and HTTP
// connections.
package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/Tyrowin/livechat/internal/room"
	"github.com/Tyrowin/livechat/internal/server"
	"github.com/Tyrowin/livechat/test/testhelpers"
)

// TestHealthEndpoint verifies the health endpoint on a running server.
func TestHealthEndpoint(t *testing.T) {
	_, ts := testhelpers.StartApp(t, testhelpers.TestConfig())

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/health")
	defer resp.Body.Close()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "application/json")
}

// TestTestPageEndpoint verifies the built-in browser client is served.
func TestTestPageEndpoint(t *testing.T) {
	_, ts := testhelpers.StartApp(t, testhelpers.TestConfig())

	for _, path := range []string{"/test", "/"} {
		resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+path)
		testhelpers.AssertStatusCode(t, resp, http.StatusOK)
		testhelpers.AssertContentType(t, resp, "text/html; charset=utf-8")
		_ = resp.Body.Close()
	}
}

// TestQueryEndpointsReflectRoomState verifies /health, /api/users and
// /api/messages follow joins, messages and departures.
func TestQueryEndpointsReflectRoomState(t *testing.T) {
	_, ts := testhelpers.StartApp(t, testhelpers.TestConfig())

	ann := testhelpers.Dial(t, ts.URL)
	ann.Join("Ann")
	bo := testhelpers.Dial(t, ts.URL)
	bo.Join("Bo")
	ann.Expect(room.EventUserJoined)
	ann.Expect(room.EventSystemMessage)

	bo.Send(room.EventMessageSend, room.SendRequest{Text: "hello"})
	ann.Expect(room.EventMessageReceive)
	bo.Expect(room.EventMessageReceive)

	var users server.UsersResponse
	testhelpers.GetJSON(t, ts.URL+"/api/users", &users)
	if users.Total != 2 || users.Online != 2 {
		t.Errorf("Expected total=2 online=2, got total=%d online=%d", users.Total, users.Online)
	}
	if len(users.Users) != 2 || users.Users[0].Name != "Ann" || users.Users[1].Name != "Bo" {
		t.Errorf("Expected [Ann Bo] in join order, got %+v", users.Users)
	}

	var msgs []room.Message
	testhelpers.GetJSON(t, ts.URL+"/api/messages", &msgs)
	if len(msgs) != 1 || msgs[0].Text != "hello" || msgs[0].SenderName != "Bo" {
		t.Errorf("Unexpected messages: %+v", msgs)
	}

	var health server.HealthResponse
	testhelpers.GetJSON(t, ts.URL+"/health", &health)
	if health.Connections != 2 || health.Participants != 2 || health.Messages != 1 {
		t.Errorf("Unexpected health: %+v", health)
	}

	_ = bo.Conn.Close()
	ann.Expect(room.EventUserLeft)
	ann.Expect(room.EventSystemMessage)

	testhelpers.GetJSON(t, ts.URL+"/api/users", &users)
	if users.Total != 1 || users.Users[0].Name != "Ann" {
		t.Errorf("Expected only Ann after Bo left, got %+v", users.Users)
	}
}

// TestQueryEndpointsRejectWrites verifies the read-only endpoints refuse other methods.
func TestQueryEndpointsRejectWrites(t *testing.T) {
	_, ts := testhelpers.StartApp(t, testhelpers.TestConfig())

	for _, path := range []string{"/health", "/api/users", "/api/messages"} {
		resp := testhelpers.MakeRequest(t, http.MethodPost, ts.URL+path)
		testhelpers.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
		_ = resp.Body.Close()
	}
}

// TestRequestIDHeader verifies every response carries a request id and that a
// caller-supplied id is echoed.
func TestRequestIDHeader(t *testing.T) {
	_, ts := testhelpers.StartApp(t, testhelpers.TestConfig())

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("X-Request-ID", "abc-123")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected echoed request id abc-123, got %q", got)
	}

	resp2 := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/api/users")
	defer resp2.Body.Close()
	if strings.TrimSpace(resp2.Header.Get("X-Request-ID")) == "" {
		t.Error("Expected a generated request id")
	}
}
