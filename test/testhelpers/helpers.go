// Package testhelpers provides common utilities for testing the chat relay.
//
// It starts fully wired test servers, dials WebSocket clients that speak the
// event envelope protocol, and asserts on HTTP responses.
package testhelpers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/livechat/internal/config"
	"github.com/Tyrowin/livechat/internal/logging"
	"github.com/Tyrowin/livechat/internal/room"
	"github.com/Tyrowin/livechat/internal/server"
)

// TestOrigin is the origin test clients present during the handshake.
const TestOrigin = "http://localhost:8080"

// TestConfig returns defaults suitable for tests: a generous rate limit and no
// static directory.
func TestConfig() config.Config {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{TestOrigin}
	cfg.RateLimit.Burst = 1000
	cfg.StaticDir = ""
	return cfg
}

// StartApp wires an App from cfg, runs its hub and serves it. Everything is
// torn down when the test ends.
func StartApp(t *testing.T, cfg config.Config) (*server.App, *httptest.Server) {
	t.Helper()

	app := server.NewApp(cfg, logging.Nop())
	go app.Hub.Run()
	ts := httptest.NewServer(app.Handler)

	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = app.Hub.Shutdown(ctx)
	})
	return app, ts
}

// WebSocketURL converts an http:// test server URL into the /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket dials url with the test origin.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	return ConnectWebSocketWithOrigin(url, TestOrigin)
}

// ConnectWebSocketWithOrigin dials url presenting origin; an empty origin sends
// no Origin header.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// Client is a test WebSocket client that understands coalesced frames.
type Client struct {
	t       *testing.T
	Conn    *websocket.Conn
	pending []room.Envelope
}

// Dial connects a Client and closes it at the end of the test.
func Dial(t *testing.T, serverURL string) *Client {
	t.Helper()
	conn, err := ConnectWebSocket(WebSocketURL(serverURL))
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	c := &Client{t: t, Conn: conn}
	t.Cleanup(func() { _ = conn.Close() })
	return c
}

// Send writes one event envelope.
func (c *Client) Send(event string, data any) {
	c.t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		c.t.Fatalf("Failed to marshal %s payload: %v", event, err)
	}
	if err := c.Conn.WriteJSON(room.Envelope{Event: event, Data: raw}); err != nil {
		c.t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// Join sends user:join and consumes the three replies addressed to the joiner.
func (c *Client) Join(name string) {
	c.t.Helper()
	c.Send(room.EventUserJoin, room.Profile{Name: name})
	c.Expect(room.EventUsersList)
	c.Expect(room.EventSystemMessage)
	c.Expect(room.EventMessagesHistory)
}

// Next returns the next envelope or an error once timeout passes.
func (c *Client) Next(timeout time.Duration) (room.Envelope, error) {
	if len(c.pending) > 0 {
		env := c.pending[0]
		c.pending = c.pending[1:]
		return env, nil
	}

	if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return room.Envelope{}, err
	}
	_, data, err := c.Conn.ReadMessage()
	if err != nil {
		return room.Envelope{}, err
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var env room.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return room.Envelope{}, err
		}
		c.pending = append(c.pending, env)
	}
	return c.Next(timeout)
}

// Expect reads the next envelope and fails unless it carries event.
func (c *Client) Expect(event string) room.Envelope {
	c.t.Helper()
	env, err := c.Next(2 * time.Second)
	if err != nil {
		c.t.Fatalf("Waiting for %s: %v", event, err)
	}
	if env.Event != event {
		c.t.Fatalf("Expected event %s, got %s (%s)", event, env.Event, string(env.Data))
	}
	return env
}

// ExpectData reads the next envelope for event and decodes its payload into v.
func (c *Client) ExpectData(event string, v any) {
	c.t.Helper()
	env := c.Expect(event)
	if err := json.Unmarshal(env.Data, v); err != nil {
		c.t.Fatalf("Failed to decode %s payload: %v", event, err)
	}
}

// ExpectSilence fails if any envelope arrives within timeout. A read timeout
// leaves the connection unusable for further reads, so call it last.
func (c *Client) ExpectSilence(timeout time.Duration) {
	c.t.Helper()
	env, err := c.Next(timeout)
	if err == nil {
		c.t.Fatalf("Expected no message, got %s (%s)", env.Event, string(env.Data))
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		c.t.Fatalf("Expected read timeout, got %v", err)
	}
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	if contentType := resp.Header.Get("Content-Type"); contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest executes an HTTP request with a 5-second timeout.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

// GetJSON fetches url and decodes the JSON body into v.
func GetJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp := MakeRequest(t, http.MethodGet, url)
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode %s: %v", url, err)
	}
}
