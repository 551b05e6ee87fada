package sse

import (
	"strings"
	"testing"
	"time"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/testutil"
)

func TestBroadcasterPublish(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("ABC123")
	client := NewClient(hub, 2)
	hub.Register(client)
	waitForClients(t, hub, 1)

	broadcaster.Publish(model.Event{
		Type:         model.EventKeyCollected,
		SessionCode:  "ABC123",
		ConnectionID: 2,
		Payload: model.KeyCollectedPayload{
			ConnectionID: 2,
			KeyID:        1,
			KeyName:      "BrassKey",
		},
	})

	select {
	case msg := <-client.send:
		text := string(msg)
		if !strings.HasPrefix(text, "event: key_collected\n") {
			t.Errorf("unexpected event name in %q", text)
		}
		if !strings.Contains(text, `"key_name":"BrassKey"`) {
			t.Errorf("payload missing from %q", text)
		}
		if !strings.Contains(text, `"seq":1`) {
			t.Errorf("stream sequence number missing from %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive published event")
	}
}

func TestBroadcasterSequencesPerSession(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("ABC123")
	client := NewClient(hub, 1)
	hub.Register(client)
	waitForClients(t, hub, 1)

	// A publish to another session must not advance this session's stream
	broadcaster.Publish(model.Event{Type: model.EventGameStarted, SessionCode: "OTHER1"})

	broadcaster.Publish(model.Event{Type: model.EventPlayerJoined, SessionCode: "ABC123"})
	broadcaster.Publish(model.Event{Type: model.EventPlayerLeft, SessionCode: "ABC123"})

	for i, want := range []string{`"seq":1`, `"seq":2`} {
		select {
		case msg := <-client.send:
			if !strings.Contains(string(msg), want) {
				t.Errorf("event %d: want %s in %q", i, want, string(msg))
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d not received", i)
		}
	}

	// After dropping the stream, numbering restarts
	broadcaster.DropStream("ABC123")
	broadcaster.Publish(model.Event{Type: model.EventGameEnded, SessionCode: "ABC123"})

	select {
	case msg := <-client.send:
		if !strings.Contains(string(msg), `"seq":1`) {
			t.Errorf("want restarted seq in %q", string(msg))
		}
	case <-time.After(time.Second):
		t.Fatal("event after stream drop not received")
	}
}

func TestBroadcasterPublishToUnknownSessionIsNoOp(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	// No hub exists for this session; must not panic
	broadcaster.Publish(model.Event{
		Type:        model.EventGameStarted,
		SessionCode: "NOSUCH",
	})
}

func TestBroadcasterPublishTo(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("ABC123")
	requester := NewClient(hub, 2)
	bystander := NewClient(hub, 3)
	hub.Register(requester)
	hub.Register(bystander)
	waitForClients(t, hub, 2)

	broadcaster.PublishTo(2, model.Event{
		Type:        model.EventPlayerWon,
		SessionCode: "ABC123",
	})

	select {
	case <-requester.send:
	case <-time.After(time.Second):
		t.Fatal("requester did not receive private event")
	}

	select {
	case msg := <-bystander.send:
		t.Errorf("bystander received private event: %q", string(msg))
	case <-time.After(50 * time.Millisecond):
	}
}
