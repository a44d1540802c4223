// Package webhook delivers booking events to an external HTTP endpoint,
// signed with HMAC-SHA256 and retried with backoff.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	SignatureHeader = "X-Turno-Signature"
	EventHeader     = "X-Turno-Event"
	defaultQueue    = 256
)

// Event is the JSON envelope POSTed to the endpoint.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ResourceID string          `json:"resource_id"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

// SignPayload returns the hex HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(SignPayload(payload, secret)), []byte(signature))
}

type Option func(*Dispatcher)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithRetryDelays sets the waits between attempts; len(delays)+1 attempts are made.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(d *Dispatcher) { d.retryDelays = delays }
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) { d.queue = make(chan Event, n) }
}

// Dispatcher queues events and delivers them from a single worker so that
// request handlers never wait on the endpoint.
type Dispatcher struct {
	url         string
	secret      string
	client      *http.Client
	retryDelays []time.Duration
	queue       chan Event
	logger      zerolog.Logger
	now         func() time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("webhook url has no host")
	}
	return nil
}

func NewDispatcher(endpoint, secret string, logger zerolog.Logger, opts ...Option) (*Dispatcher, error) {
	if err := ValidateURL(endpoint); err != nil {
		return nil, err
	}
	d := &Dispatcher{
		url:         endpoint,
		secret:      secret,
		client:      &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{time.Second, 30 * time.Second, 5 * time.Minute},
		queue:       make(chan Event, defaultQueue),
		logger:      logger,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Publish enqueues an event. When the queue is full the event is dropped
// and logged.
func (d *Dispatcher) Publish(eventType string, resourceID uuid.UUID, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error().Err(err).Str("event", eventType).Msg("webhook payload not serializable")
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ResourceID: resourceID.String(),
		Payload:    body,
		Timestamp:  d.now().UTC(),
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn().Str("event", eventType).Str("resource_id", ev.ResourceID).Msg("webhook queue full, event dropped")
	}
}

// Run delivers queued events until ctx is done or Close is called.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case ev := <-d.queue:
			if err := d.Deliver(ctx, ev); err != nil {
				d.logger.Error().Err(err).Str("event", ev.Type).Str("event_id", ev.ID).Msg("webhook delivery failed")
			}
		}
	}
}

func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// Deliver POSTs ev, retrying on transport errors and non-2xx responses.
func (d *Dispatcher) Deliver(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	sig := "sha256=" + SignPayload(payload, d.secret)

	var lastErr error
	for attempt := 0; ; attempt++ {
		if lastErr = d.post(ctx, ev.Type, payload, sig); lastErr == nil {
			d.logger.Debug().Str("event", ev.Type).Str("event_id", ev.ID).Int("attempt", attempt+1).Msg("webhook delivered")
			return nil
		}
		if attempt >= len(d.retryDelays) {
			return fmt.Errorf("after %d attempts: %w", attempt+1, lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.retryDelays[attempt]):
		}
	}
}

func (d *Dispatcher) post(ctx context.Context, eventType string, payload []byte, sig string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, sig)
	req.Header.Set(EventHeader, eventType)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}
	return nil
}
