package integration

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Tyrowin/livechat/internal/server"
	"github.com/Tyrowin/livechat/test/testhelpers"
)

// TestGracefulShutdownWithClients verifies that stopping the HTTP server and
// then the hub closes every live connection.
func TestGracefulShutdownWithClients(t *testing.T) {
	app, ts := testhelpers.StartApp(t, testhelpers.TestConfig())

	const numClients = 5
	clients := make([]*testhelpers.Client, numClients)
	for i := range clients {
		clients[i] = testhelpers.Dial(t, ts.URL)
	}

	deadline := time.Now().Add(2 * time.Second)
	for app.Hub.ClientCount() != numClients && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if app.Hub.ClientCount() != numClients {
		t.Fatalf("Expected %d registered clients, got %d", numClients, app.Hub.ClientCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.ShutdownServer(ctx, ts.Config); err != nil {
		t.Errorf("HTTP server shutdown failed: %v", err)
	}
	if err := app.Hub.Shutdown(ctx); err != nil {
		t.Errorf("Hub shutdown failed: %v", err)
	}

	for i, c := range clients {
		_, err := c.Next(2 * time.Second)
		if err == nil {
			t.Errorf("Client %d: expected connection to be closed", i)
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			t.Errorf("Client %d: connection still open after shutdown", i)
		}
	}

	if app.Hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients after shutdown, got %d", app.Hub.ClientCount())
	}
}

// TestShutdownRejectsNewConnections verifies the hub refuses registrations once
// it is stopped.
func TestShutdownRejectsNewConnections(t *testing.T) {
	app, ts := testhelpers.StartApp(t, testhelpers.TestConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Hub.Shutdown(ctx); err != nil {
		t.Fatalf("Hub shutdown failed: %v", err)
	}

	// The handshake still completes, but the hub closes the socket at once.
	c := testhelpers.Dial(t, ts.URL)
	if _, err := c.Next(2 * time.Second); err == nil {
		t.Error("Expected the connection to be closed by a stopped hub")
	}
}

// TestShutdownTimesOut verifies Shutdown honours its context when Run was
// never started.
func TestShutdownTimesOut(t *testing.T) {
	hub := server.NewHub(nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := hub.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
