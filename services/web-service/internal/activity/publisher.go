// Package activity publishes user actions to Kafka for downstream consumers.
package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/groombook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/groombook/libs/otel"
	"github.com/segmentio/kafka-go"
)

type Type string

// Event types double as topic names.
const (
	AppointmentBooked    Type = "web.appointment.booked.v1"
	AppointmentUpdated   Type = "web.appointment.updated.v1"
	AppointmentCancelled Type = "web.appointment.cancelled.v1"
	CustomerRegistered   Type = "web.customer.registered.v1"
)

type Publisher interface {
	Publish(ctx context.Context, typ Type, key string, payload any)
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Type, string, any) {}

type event struct {
	id          string
	typ         Type
	key         string
	payload     []byte
	traceparent string
	tracestate  string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues events and writes them from Run, so Publish never waits on Kafka.
type KafkaPublisher struct {
	w       messageWriter
	queue   chan event
	logger  *slog.Logger
	dropped atomic.Int64
}

func NewKafkaPublisher(brokers []string, logger *slog.Logger, queueSize int) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaPublisher(w, logger, queueSize)
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger, queueSize int) *KafkaPublisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &KafkaPublisher{w: w, queue: make(chan event, queueSize), logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, typ Type, key string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("encode activity event failed", "type", typ, "err", err)
		return
	}
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	ev := event{
		id:          uuid.NewString(),
		typ:         typ,
		key:         key,
		payload:     raw,
		traceparent: traceparent,
		tracestate:  tracestate,
	}
	select {
	case p.queue <- ev:
	default:
		p.dropped.Add(1)
		p.logger.Warn("activity queue full, dropping event", "type", typ, "key", key)
	}
}

// Dropped counts events lost to a full queue.
func (p *KafkaPublisher) Dropped() int64 { return p.dropped.Load() }

// Run writes queued events until ctx is done, then flushes what is left.
func (p *KafkaPublisher) Run(ctx context.Context) error {
	defer func() {
		if err := p.w.Close(); err != nil {
			p.logger.Warn("close kafka writer failed", "err", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return nil
		case ev := <-p.queue:
			p.write(ctx, ev)
		}
	}
}

func (p *KafkaPublisher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-p.queue:
			p.write(ctx, ev)
		default:
			return
		}
	}
}

func (p *KafkaPublisher) write(ctx context.Context, ev event) {
	msgCtx := otelx.ContextWithTraceContext(ctx, ev.traceparent, ev.tracestate)
	msg := kafka.Message{
		Topic: string(ev.typ),
		Key:   []byte(ev.key),
		Value: ev.payload,
		Headers: []kafka.Header{
			{Key: kafkax.HeaderEventID, Value: []byte(ev.id)},
			{Key: kafkax.HeaderEventType, Value: []byte(ev.typ)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish activity event failed", "type", ev.typ, "event_id", ev.id, "err", err)
	}
}
