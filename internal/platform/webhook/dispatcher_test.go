package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestSignAndVerify(t *testing.T) {
	payload := []byte(`{"a":1}`)
	sig := SignPayload(payload, "secret")
	if !VerifySignature(payload, "secret", sig) {
		t.Error("expected signature to verify")
	}
	if VerifySignature(payload, "other", sig) {
		t.Error("expected signature with wrong secret to fail")
	}
	if VerifySignature([]byte(`{"a":2}`), "secret", sig) {
		t.Error("expected tampered payload to fail")
	}
}

func TestNewDispatcher_InvalidURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "not a url\x7f", "http://"} {
		if _, err := NewDispatcher(raw, "s", zerolog.Nop()); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestDeliver_SignedRequest(t *testing.T) {
	var got Event
	var gotSig, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotType = r.Header.Get(EventHeader)
		if !VerifySignature(body, "s3cret", gotSig[len("sha256="):]) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewDispatcher(srv.URL, "s3cret", zerolog.Nop(), WithRetryDelays())
	if err != nil {
		t.Fatal(err)
	}
	id := uuid.New()
	ev := Event{ID: "e1", Type: "appointment.created", ResourceID: id.String(), Payload: json.RawMessage(`{"x":1}`)}
	if err := d.Deliver(context.Background(), ev); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if gotType != "appointment.created" {
		t.Errorf("event header = %q", gotType)
	}
	if got.ResourceID != id.String() || got.ID != "e1" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestDeliver_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := NewDispatcher(srv.URL, "s", zerolog.Nop(), WithRetryDelays(time.Millisecond, time.Millisecond, time.Millisecond))
	if err := d.Deliver(context.Background(), Event{ID: "e", Type: "t"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestDeliver_GivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, _ := NewDispatcher(srv.URL, "s", zerolog.Nop(), WithRetryDelays(time.Millisecond))
	if err := d.Deliver(context.Background(), Event{ID: "e", Type: "t"}); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestRun_DeliversPublishedEvents(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		received <- ev
	}))
	defer srv.Close()

	d, _ := NewDispatcher(srv.URL, "s", zerolog.Nop(), WithRetryDelays())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)
	defer d.Close()

	id := uuid.New()
	d.Publish("appointment.status_changed", id, map[string]string{"status": "CANCELLED"})

	select {
	case ev := <-received:
		if ev.Type != "appointment.status_changed" || ev.ResourceID != id.String() {
			t.Errorf("unexpected event %+v", ev)
		}
		if string(ev.Payload) != `{"status":"CANCELLED"}` {
			t.Errorf("payload = %s", ev.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublish_DropsWhenFull(t *testing.T) {
	d, _ := NewDispatcher("http://example.invalid", "s", zerolog.Nop(), WithQueueSize(1))
	d.Publish("a", uuid.New(), nil)
	d.Publish("b", uuid.New(), nil)
	if len(d.queue) != 1 {
		t.Errorf("queue length = %d, want 1", len(d.queue))
	}
}
