package websocket

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return NewClient(hub, nil, "")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	msg := NewMessage(EntityAppointment, ActionCreated, "appt-42", map[string]any{"series_size": float64(6)})
	hub.Broadcast(msg)

	// Check both clients received the message
	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "appointment_created" {
				t.Errorf("expected type appointment_created, got %s", got.Type)
			}
			if got.Entity != EntityAppointment {
				t.Errorf("expected entity appointment, got %s", got.Entity)
			}
			if got.ID != "appt-42" {
				t.Errorf("expected id appt-42, got %s", got.ID)
			}
			if got.Extra["series_size"] != float64(6) {
				t.Errorf("expected series_size 6, got %v", got.Extra["series_size"])
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(testLogger())
	// Should not panic
	msg := NewMessage(EntityLocation, ActionUpdated, "loc-1", nil)
	hub.Broadcast(msg)
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())

	c := mockClient(hub)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("test", "fill", fmt.Sprint(i), nil))
	}

	// This should drop the message, not panic or block
	hub.Broadcast(NewMessage("test", "dropped", "999", nil))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(EntityAppointment, ActionCancelled, "appt-5", nil)
	if msg.Type != "appointment_cancelled" {
		t.Errorf("expected type appointment_cancelled, got %s", msg.Type)
	}
	if msg.Entity != EntityAppointment {
		t.Errorf("expected entity appointment, got %s", msg.Entity)
	}
	if msg.Action != ActionCancelled {
		t.Errorf("expected action cancelled, got %s", msg.Action)
	}
	if msg.ID != "appt-5" {
		t.Errorf("expected id appt-5, got %s", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(NewMessage("test", "concurrent", "", nil))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestBroadcastClinicianFilter(t *testing.T) {
	hub := NewHub(testLogger())

	all := mockClient(hub)
	dana := NewClient(hub, nil, "clin-dana")
	lee := NewClient(hub, nil, "clin-lee")
	for _, c := range []*Client{all, dana, lee} {
		hub.Register(c)
		defer hub.Unregister(c)
	}

	hub.Broadcast(NewMessage(EntityAppointment, ActionCreated, "appt-1", nil).ForClinician("clin-dana"))
	hub.Broadcast(NewMessage(EntityLocation, ActionUpdated, "loc-1", nil))

	tests := []struct {
		name   string
		client *Client
		want   []string
	}{
		{"unfiltered", all, []string{"appointment_created", "location_updated"}},
		{"matching clinician", dana, []string{"appointment_created", "location_updated"}},
		{"other clinician", lee, []string{"location_updated"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for len(tt.client.send) > 0 {
				var msg Message
				if err := json.Unmarshal(<-tt.client.send, &msg); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				got = append(got, msg.Type)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleFrameChangesFilter(t *testing.T) {
	hub := NewHub(testLogger())
	c := NewClient(hub, nil, "clin-dana")
	msg := NewMessage(EntityAppointment, ActionUpdated, "appt-1", nil).ForClinician("clin-lee")

	if c.wants(msg) {
		t.Fatal("dana's view should not want lee's appointment")
	}

	c.handleFrame([]byte(`{"clinician_id":"clin-lee"}`))
	if !c.wants(msg) {
		t.Error("filter should follow the subscription frame")
	}

	c.handleFrame([]byte(`not json`))
	if !c.wants(msg) {
		t.Error("malformed frames should leave the filter alone")
	}

	c.handleFrame([]byte(`{"clinician_id":""}`))
	if !c.wants(NewMessage(EntityAppointment, ActionUpdated, "appt-2", nil).ForClinician("clin-x")) {
		t.Error("empty subscription should watch everyone")
	}
}
