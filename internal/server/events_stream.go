package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/rmaragno/crivo/internal/events"
)

const (
	// streamBuffer is the per-client event buffer. The bus publishes
	// synchronously, so a slow client must never block the pipeline:
	// when the buffer is full the event is dropped for that client.
	streamBuffer = 128

	writeTimeout = 5 * time.Second
)

// streamEnvelope is the wire format for one pushed event.
type streamEnvelope struct {
	Type      string           `json:"type"`
	Data      events.EventData `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

// EventsStreamHandler upgrades clients to WebSocket and forwards bus
// events to them. Clients may narrow the firehose with a comma-separated
// `types` query parameter, e.g. ?types=score.alert,state.error.
type EventsStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsStreamHandler creates a stream handler on the given bus.
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus: bus,
		log: log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles one WebSocket client for the lifetime of its connection.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browser dashboards connect from a different origin in dev;
		// the API carries no cookies so CSWSH is not a concern here.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	wanted := parseTypeFilter(r.URL.Query().Get("types"))

	ch := make(chan events.EventData, streamBuffer)
	cancel := h.bus.SubscribeAll(func(data events.EventData) {
		if wanted != nil && !wanted[data.EventType()] {
			return
		}
		select {
		case ch <- data:
		default:
			h.log.Warn().
				Str("event_type", string(data.EventType())).
				Msg("Event channel full, dropping event")
		}
	})
	defer cancel()

	ctx := r.Context()
	h.log.Info().Str("remote", r.RemoteAddr).Msg("Event stream client connected")

	// Reads are only expected for close frames; CloseRead gives us a
	// context that ends when the client goes away.
	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("remote", r.RemoteAddr).Msg("Event stream client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case data := <-ch:
			if err := h.write(ctx, conn, data); err != nil {
				h.log.Debug().Err(err).Msg("Event stream write failed")
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, data events.EventData) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return wsjson.Write(writeCtx, conn, streamEnvelope{
		Type:      string(data.EventType()),
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// parseTypeFilter turns "a,b,c" into a set; an empty parameter means no
// filter (nil set), which forwards everything.
func parseTypeFilter(raw string) map[events.EventType]bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	wanted := make(map[events.EventType]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			wanted[events.EventType(part)] = true
		}
	}
	return wanted
}
