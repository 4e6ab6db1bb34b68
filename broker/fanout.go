package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-video/contract"
	"chat-video/domain"
	"chat-video/observability"
)

// Delivery is one routed frame waiting for fan-out. Exactly one of Topic or
// User is set.
type Delivery struct {
	Topic string
	User  string
	Frame domain.Outbound
}

// Fanout delivers routed frames to live connections.
//
// It provides best-effort, at-most-once delivery with no guarantees regarding
// ordering across connections, durability, or retries. Fanout is not a
// message broker: an offline user simply receives nothing.
//
// Senders never wait for recipients. Each delivery attempt is bounded by a
// short timeout so one slow or broken subscriber cannot stall the others.
type Fanout struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitor    *observability.Monitor
	deliveries chan Delivery
	timeout    time.Duration
}

func NewFanout(log *slog.Logger, registry contract.IRegistry,
	monitor *observability.Monitor, bufferSize int, timeout time.Duration) *Fanout {
	return &Fanout{
		log:        log,
		registry:   registry,
		monitor:    monitor,
		deliveries: make(chan Delivery, bufferSize),
		timeout:    timeout,
	}
}

// PublishTopic enqueues a broadcast to every current subscriber of a topic.
// Fire-and-forget: when the queue is full the frame is dropped, not queued.
func (f *Fanout) PublishTopic(topic string, body any) {
	f.enqueue(Delivery{Topic: topic, Frame: domain.Outbound{Destination: topic, Body: body}})
}

// PublishUser enqueues a frame for every connection currently bound to one
// user. Zero live connections means zero deliveries and no error.
func (f *Fanout) PublishUser(user, queue string, body any) {
	f.enqueue(Delivery{User: user, Frame: domain.Outbound{Destination: queue, Body: body}})
}

func (f *Fanout) enqueue(d Delivery) {
	select {
	case f.deliveries <- d:
	default:
		f.monitor.IncrDropped()
		f.log.Warn(fmt.Sprintf("Delivery channel full, dropping frame for %s", d.Frame.Destination))
	}
}

// Run drains the delivery queue until the context is canceled.
func (f *Fanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			f.log.Debug("Context done, stopping fan-out")
			return nil
		case d := <-f.deliveries:
			f.fanout(ctx, d)
		}
	}
}

func (f *Fanout) fanout(ctx context.Context, d Delivery) {
	var sinks []contract.EventSink
	if d.Topic != "" {
		sinks = f.registry.SinksForTopic(d.Topic)
	} else {
		sinks = f.registry.SinksForUser(d.User)
	}

	for _, sink := range sinks {
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		err := sink.Consume(attemptCtx, d.Frame)
		cancel()

		if err != nil {
			// Recovered locally: a dead recipient must not affect the
			// others or the sender.
			f.monitor.IncrDropped()
			f.log.Error("Delivery failed", "destination", d.Frame.Destination, "error", err)
			continue
		}
		f.monitor.IncrDelivered()
	}
}
