package controllers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/queless/trinity-canteen-api/config"
	"github.com/queless/trinity-canteen-api/models"
	"github.com/queless/trinity-canteen-api/services"
	"github.com/stretchr/testify/assert"
)

// sseReader pulls named events off a live SSE stream
type sseReader struct {
	scanner *bufio.Scanner
}

// next blocks until the next event and returns its name and data line
func (r *sseReader) next(t *testing.T) (string, string) {
	t.Helper()

	var event, data string
	for r.scanner.Scan() {
		line := r.scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && event != "":
			return event, data
		}
	}
	t.Fatalf("Stream ended before an event arrived: %v", r.scanner.Err())
	return "", ""
}

func waitForSubscriber(t *testing.T, hub *services.EventHub) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Stream handler never subscribed to the event hub")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamEvents_StudentReceivesQueueAndNotifications(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	hub := services.NewEventHub()
	services.SetEventHub(hub)
	defer services.SetEventHub(services.NewEventHub())

	student := createTestStudent(t, db, "1")

	pending := models.Order{StudentID: student.ID, TokenNumber: 2, SessionID: "default", Status: "pending",
		Items: []models.OrderItem{{Name: "Tea", Qty: 2, Price: 10}}}
	db.Create(&pending)
	db.Create(&models.Order{StudentID: student.ID, TokenNumber: 1, SessionID: "default", Status: "served",
		Items: []models.OrderItem{{Name: "Samosa", Qty: 1, Price: 15}}})

	router := setupTestRouter()
	router.GET("/events",
		mockAuthMiddleware(student.Auth0ID, "student", "mock-token"),
		StreamEvents,
	)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to open stream: %v", err)
	}
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := &sseReader{scanner: bufio.NewScanner(resp.Body)}

	// The stream opens with the student's current queue snapshot
	event, data := reader.next(t)
	assert.Equal(t, "queue", event)
	assert.Contains(t, data, `"pending"`)
	assert.Contains(t, data, `"served"`)

	waitForSubscriber(t, hub)

	// Marking the pending order served should push a ready notification
	// followed by the raw event
	servedCopy := pending
	servedCopy.Status = models.OrderStatusServed
	hub.Publish(services.Event{
		Type:      services.EventOrderServed,
		StudentID: student.ID,
		Data:      servedCopy,
	})

	event, data = reader.next(t)
	assert.Equal(t, "notification", event)
	assert.Contains(t, data, "token #2")

	event, _ = reader.next(t)
	assert.Equal(t, services.EventOrderServed, event)
}

func TestStreamEvents_OtherStudentsEventsAreFiltered(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	hub := services.NewEventHub()
	services.SetEventHub(hub)
	defer services.SetEventHub(services.NewEventHub())

	student := createTestStudent(t, db, "1")
	other := createTestStudent(t, db, "2")

	router := setupTestRouter()
	router.GET("/events",
		mockAuthMiddleware(student.Auth0ID, "student", "mock-token"),
		StreamEvents,
	)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to open stream: %v", err)
	}
	defer resp.Body.Close()

	reader := &sseReader{scanner: bufio.NewScanner(resp.Body)}

	// Skip the opening snapshot
	event, _ := reader.next(t)
	assert.Equal(t, "queue", event)

	waitForSubscriber(t, hub)

	// Another student's order must not reach this stream; a broadcast
	// status change right after must
	hub.Publish(services.Event{
		Type:      services.EventOrderCreated,
		StudentID: other.ID,
		Data: models.Order{StudentID: other.ID, TokenNumber: 1, SessionID: "default",
			Status: "pending", Items: []models.OrderItem{{Name: "Tea", Qty: 1, Price: 10}}},
	})
	hub.Publish(services.Event{
		Type: services.EventStatusChanged,
		Data: map[string]bool{"is_open": true},
	})

	event, data := reader.next(t)
	assert.Equal(t, services.EventStatusChanged, event, "The foreign order event should have been skipped")
	assert.Contains(t, data, `"is_open":true`)
}
