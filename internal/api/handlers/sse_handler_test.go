package handlers_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/api/handlers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/providers"
)

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.RecommendationEvent
	published   []*entities.RecommendationEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.RecommendationEvent),
		published:   make([]*entities.RecommendationEvent, 0),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.RecommendationEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.RecommendationEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.RecommendationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.RecommendationEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.RecommendationEvent)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

func (m *MockEventBus) PublishedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.published)
}

func completedEvent(recordID, location string) *entities.RecommendationEvent {
	return &entities.RecommendationEvent{
		ID:        "evt-" + recordID,
		EventType: entities.EventRecommendationCompleted,
		RecordID:  recordID,
		StudyID:   "S-" + recordID,
		Location:  location,
		Priority:  3,
		Protocol:  "Appendicitis",
		Timestamp: time.Now(),
	}
}

func TestSSEHandler_StreamRecommendations(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := handlers.NewSSEHandler(eventBus)

	t.Run("should establish SSE connection", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/recommendations", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamRecommendations(w, req)
			close(done)
		}()

		// Wait a bit for connection to establish
		time.Sleep(100 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		if result.Header.Get("Content-Type") != "text/event-stream" {
			t.Errorf("Expected Content-Type text/event-stream, got %s", result.Header.Get("Content-Type"))
		}
		if result.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Expected Cache-Control no-cache, got %s", result.Header.Get("Cache-Control"))
		}
	})

	t.Run("should receive recommendation events", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/recommendations", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamRecommendations(w, req)
			close(done)
		}()

		// Wait for connection
		time.Sleep(100 * time.Millisecond)

		eventBus.Publish(context.Background(), providers.EventChannelCompleted, completedEvent("rec-1", "OP"))

		// Wait for event to be forwarded
		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		body := w.Body.String()
		if !containsSSEEvent(body, string(entities.EventRecommendationCompleted)) {
			t.Errorf("Expected completed event in stream, got:\n%s", body)
		}
	})

	t.Run("should filter events by location", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/recommendations?location=ER", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamRecommendations(w, req)
			close(done)
		}()
		time.Sleep(100 * time.Millisecond)

		eventBus.Publish(context.Background(), providers.EventChannelCompleted, completedEvent("rec-er", "ER"))
		eventBus.Publish(context.Background(), providers.EventChannelCompleted, completedEvent("rec-op", "OP"))

		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		body := w.Body.String()
		if !containsSSEEvent(body, "rec-er") {
			t.Errorf("Expected ER event in stream, got:\n%s", body)
		}
		if containsSSEEvent(body, "rec-op") {
			t.Errorf("Did not expect OP event in ER-filtered stream, got:\n%s", body)
		}
	})
}

func TestSSEHandler_StreamFlagged(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := handlers.NewSSEHandler(eventBus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/api/stream/recommendations/flagged", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.StreamFlagged(w, req)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	flagged := completedEvent("rec-9", "ER")
	flagged.EventType = entities.EventRecommendationFlagged
	flagged.Sentinel = true
	eventBus.Publish(context.Background(), providers.EventChannelFlagged, flagged)

	time.Sleep(200 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after cancel")
	}

	body := w.Body.String()
	if !containsSSEEvent(body, string(entities.EventRecommendationFlagged)) {
		t.Errorf("Expected flagged event in stream, got:\n%s", body)
	}
}

func TestSSEHandler_ClientCount(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := handlers.NewSSEHandler(eventBus)

	// Initial count should be 0
	if count := handler.GetClientCount(); count != 0 {
		t.Errorf("Expected 0 clients, got %d", count)
	}

	// Start a connection
	req := httptest.NewRequest("GET", "/api/stream/recommendations", nil)
	w := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	go handler.StreamRecommendations(w, req)
	time.Sleep(100 * time.Millisecond)

	// Count should be 1
	if count := handler.GetClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	// Cancel connection
	cancel()
	time.Sleep(100 * time.Millisecond)

	// Count should be 0 again
	if count := handler.GetClientCount(); count != 0 {
		t.Errorf("Expected 0 clients after disconnect, got %d", count)
	}
}

func containsSSEEvent(body, marker string) bool {
	return len(body) > 0 && marker != "" && strings.Contains(body, marker)
}
