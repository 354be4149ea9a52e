package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/providers"
)

// SSEHandler handles Server-Sent Events for real-time recommendation updates
type SSEHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.RecommendationEvent]bool // channel -> clients
	mu       sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.RecommendationEvent]bool),
	}
}

// StreamRecommendations handles SSE connections for completed recommendations.
// GET /api/stream/recommendations?location=ER
func (h *SSEHandler) StreamRecommendations(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	h.stream(w, r, providers.EventChannelCompleted, location)
}

// StreamFlagged handles SSE connections for sentinel-flagged recommendations.
// GET /api/stream/recommendations/flagged
func (h *SSEHandler) StreamFlagged(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelFlagged, "")
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel, location string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Create client channel
	clientChan := make(chan *entities.RecommendationEvent, 10)

	// Register client
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	// Subscribe to events
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Printf("Failed to subscribe to channel %s: %v", channel, err)
		return
	}

	// Send initial connection event
	connected := map[string]interface{}{
		"channel":   channel,
		"timestamp": time.Now(),
	}
	if location != "" {
		connected["location"] = location
	}
	h.sendEvent(w, "connected", connected)

	// Flush to send the initial event
	flusher.Flush()

	// Start forwarding events
	go h.forwardEvents(r.Context(), eventChan, clientChan, location)

	// Keep connection alive and send events
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected from stream: %s", channel)
			return
		case <-ticker.C:
			// Send heartbeat
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel,
// optionally filtering by patient location.
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.RecommendationEvent, clientChan chan<- *entities.RecommendationEvent, location string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if location != "" && event.Location != location {
				continue
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

// registerClient registers a client for a channel
func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.RecommendationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.RecommendationEvent]bool)
	}
	h.clients[channel][clientChan] = true
	log.Printf("Client registered for channel: %s (total: %d)", channel, len(h.clients[channel]))
}

// unregisterClient unregisters a client from a channel
func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.RecommendationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		log.Printf("Client unregistered from channel: %s (remaining: %d)", channel, len(clients))

		// Clean up empty channel
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal event data: %v", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetStats returns connection counts per channel for debugging.
// GET /api/stream/stats
func (h *SSEHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	stats := make(map[string]int, len(h.clients))
	total := 0
	for channel, clients := range h.clients {
		stats[channel] = len(clients)
		total += len(clients)
	}
	h.mu.RUnlock()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"channels": stats,
		"total":    total,
	})
}

// GetClientCount returns the number of connected clients for debugging
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
