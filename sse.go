package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	sseChannelBuffer = 16
	sseHeartbeat     = 30 * time.Second
)

// Event is one message pushed to the players of a game.
type Event struct {
	Type string
	Data any
}

// sseClient represents a single SSE connection.
type sseClient struct {
	ch     chan []byte
	gameID string
}

// Broadcaster manages SSE clients grouped by game session.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*sseClient]struct{}),
	}
}

// Register adds a client for a game session and returns it. Messages in
// initial are queued before the client can receive any published event.
func (b *Broadcaster) Register(gameID string, initial ...[]byte) *sseClient {
	c := &sseClient{
		ch:     make(chan []byte, sseChannelBuffer),
		gameID: gameID,
	}
	for _, msg := range initial {
		select {
		case c.ch <- msg:
		default:
		}
	}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	return c
}

// Unregister removes a client and closes its channel.
func (b *Broadcaster) Unregister(c *sseClient) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.ch)
	}
	b.mu.Unlock()
}

// Publish sends an event to all clients of a game session. Slow clients whose
// buffer is full miss the event.
func (b *Broadcaster) Publish(gameID string, evt Event) {
	msg, err := encodeEvent(evt)
	if err != nil {
		log.Printf("SSE encode %s: %v", evt.Type, err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for c := range b.clients {
		if c.gameID == gameID {
			select {
			case c.ch <- msg:
			default:
			}
		}
	}
}

// CloseGame disconnects every client of a game session.
func (b *Broadcaster) CloseGame(gameID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		if c.gameID == gameID {
			delete(b.clients, c)
			close(c.ch)
		}
	}
}

// ClientCount returns the number of connected clients for a game.
func (b *Broadcaster) ClientCount(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for c := range b.clients {
		if c.gameID == gameID {
			n++
		}
	}
	return n
}

// ServeSSE handles an SSE connection for a game session. The first event is
// the one returned by initial. Once initial has run, onDisconnect always runs
// when the stream ends.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, gameID string, initial func() Event, onDisconnect func()) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming non supporté", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var first [][]byte
	if initial != nil {
		if msg, err := encodeEvent(initial()); err == nil {
			first = append(first, msg)
		}
	}

	c := b.Register(gameID, first...)
	defer func() {
		b.Unregister(c)
		if onDisconnect != nil {
			onDisconnect()
		}
	}()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			w.Write(msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

// encodeEvent formats evt as a named SSE event with a JSON payload.
func encodeEvent(evt Event) ([]byte, error) {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", evt.Type, data)), nil
}
