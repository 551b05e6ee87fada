package sse

import (
	"testing"
	"time"

	"github.com/hideseekgame/hideseekgame-go/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "player_joined",
			data:      `{"connection_id":2}`,
			expected:  "event: player_joined\ndata: {\"connection_id\":2}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "game_started",
			data:      "line1\nline2",
			expected:  "event: game_started\ndata: line1\ndata: line2\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single line",
			input:    "hello",
			expected: []string{"hello"},
		},
		{
			name:     "two lines",
			input:    "line1\nline2",
			expected: []string{"line1", "line2"},
		},
		{
			name:     "trailing newline",
			input:    "line1\n",
			expected: []string{"line1"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{""},
		},
		{
			name:     "crlf line endings",
			input:    "line1\r\nline2\r\n",
			expected: []string{"line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d",
					tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q",
						tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub("ABC123", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client1 := NewClient(hub, 1)
	client2 := NewClient(hub, 2)
	hub.Register(client1)
	hub.Register(client2)
	waitForClients(t, hub, 2)

	hub.BroadcastEvent("player_joined", "{}")

	for _, c := range []*Client{client1, client2} {
		select {
		case msg := <-c.send:
			if string(msg) != "event: player_joined\ndata: {}\n\n" {
				t.Errorf("unexpected message: %q", string(msg))
			}
		case <-time.After(time.Second):
			t.Fatalf("client %d did not receive broadcast", c.connectionID)
		}
	}
}

func TestHubSendToTargetsSingleConnection(t *testing.T) {
	hub := NewHub("ABC123", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client1 := NewClient(hub, 1)
	client2 := NewClient(hub, 2)
	hub.Register(client1)
	hub.Register(client2)
	waitForClients(t, hub, 2)

	hub.SendTo(2, "key_collected", "{}")

	select {
	case <-client2.send:
	case <-time.After(time.Second):
		t.Fatal("target client did not receive direct message")
	}

	select {
	case msg := <-client1.send:
		t.Errorf("non-target client received message: %q", string(msg))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub("ABC123", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, 1)
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}
}

func TestHubManagerLifecycle(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	hub := manager.GetOrCreateHub("ABC123")
	if hub == nil {
		t.Fatal("expected hub")
	}
	if manager.GetOrCreateHub("ABC123") != hub {
		t.Error("expected same hub for same session")
	}
	if manager.GetHub("XYZ789") != nil {
		t.Error("expected nil for unknown session")
	}

	manager.RemoveHub("ABC123")
	if manager.GetHub("ABC123") != nil {
		t.Error("expected hub removed")
	}
}

func TestHubManagerCleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	emptyHub := manager.GetOrCreateHub("EMPTY1")
	_ = emptyHub

	busyHub := manager.GetOrCreateHub("BUSY01")
	client := NewClient(busyHub, 1)
	busyHub.Register(client)
	waitForClients(t, busyHub, 1)

	manager.CleanupEmptyHubs()

	if manager.GetHub("EMPTY1") != nil {
		t.Error("expected empty hub removed")
	}
	if manager.GetHub("BUSY01") == nil {
		t.Error("expected busy hub kept")
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}
