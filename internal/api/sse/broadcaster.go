package sse

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/replicate"
)

// Broadcaster serializes game events and fans them out to the session's
// SSE clients. It implements the session controller's Notifier.
//
// Each session's event stream is a server-authoritative replicated value:
// the broadcaster is the sole writer, and the sequence number stamped on
// every broadcast event lets clients apply the stream strictly in order.
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger

	mu      sync.Mutex
	streams map[model.SessionCode]*replicate.Value[model.Event]
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
		streams:    make(map[model.SessionCode]*replicate.Value[model.Event]),
	}
}

func (b *Broadcaster) stream(code model.SessionCode) *replicate.Value[model.Event] {
	b.mu.Lock()
	defer b.mu.Unlock()
	stream, ok := b.streams[code]
	if !ok {
		stream = replicate.NewAuthority(model.Event{})
		b.streams[code] = stream
	}
	return stream
}

// Publish broadcasts a game event to every client in its session, stamped
// with the next sequence number in the session's stream
func (b *Broadcaster) Publish(event model.Event) {
	update, err := b.stream(event.SessionCode).Set(event)
	if err != nil {
		// Unreachable: the broadcaster owns its streams as authority
		b.logger.Error("sse rejected stream write", slog.Any("error", err))
		return
	}
	event.Seq = update.Seq

	hub := b.hubManager.GetHub(event.SessionCode)
	if hub == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("session", string(event.SessionCode)),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(string(event.Type), string(data))
}

// PublishTo sends a game event only to the named connection. Used for
// outcomes that are the requester's business alone; these are not part of
// the session's replicated stream and carry no sequence number.
func (b *Broadcaster) PublishTo(connectionID model.ConnectionID, event model.Event) {
	hub := b.hubManager.GetHub(event.SessionCode)
	if hub == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("session", string(event.SessionCode)),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	hub.SendTo(connectionID, string(event.Type), string(data))
}

// DropStream discards a session's event stream after the session ends
func (b *Broadcaster) DropStream(code model.SessionCode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.streams, code)
}
