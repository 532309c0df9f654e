package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/rs/zerolog"
)

const (
	EventOrderPlaced   = "order.placed"
	EventCouponApplied = "coupon.applied"
)

// Event is a best-effort notification. Key correlates related events (order id,
// coupon code) and doubles as the Kafka partition key.
type Event struct {
	Type    string
	Key     string
	Payload any
}

type CouponUsage struct {
	Code     string `json:"kode"`
	Subtotal int64  `json:"subtotal"`
}

func OrderPlaced(order domain.Order) Event {
	return Event{Type: EventOrderPlaced, Key: order.ID, Payload: order}
}

func CouponApplied(code string, subtotal int64) Event {
	return Event{Type: EventCouponApplied, Key: code, Payload: CouponUsage{Code: code, Subtotal: subtotal}}
}

// Notifier accepts events without reporting their outcome.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Deliver(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Dispatcher fans events out to its sinks in the background. Delivery failures
// are logged and dropped.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(log zerolog.Logger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sinks: sinks, timeout: timeout, log: log}
}

// Notify returns immediately. Delivery outlives the caller's cancellation but
// keeps its values (trace ids).
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	base := context.WithoutCancel(ctx)
	for _, s := range d.sinks {
		d.wg.Add(1)
		go func(s Sink) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			if err := s.Deliver(ctx, ev); err != nil {
				d.log.Warn().Err(err).
					Str("event_type", ev.Type).
					Str("key", ev.Key).
					Str("sink", fmt.Sprintf("%T", s)).
					Msg("notification dropped")
			}
		}(s)
	}
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}
