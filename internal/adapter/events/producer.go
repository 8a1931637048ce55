package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// OutcomeEventType tags every checkout outcome envelope.
const OutcomeEventType = "checkout.outcome"

// Envelope is the message published when a checkout attempt changes state.
type Envelope struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	CourseID    string    `json:"courseId,omitempty"`
	BuyerID     string    `json:"buyerId,omitempty"`
	State       string    `json:"state"`
	Trigger     string    `json:"trigger,omitempty"`
	AmountMinor int64     `json:"amountMinor"`
	Currency    string    `json:"currency,omitempty"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers outcome envelopes and writes them to kafka from one goroutine.
// Publish never blocks the caller: when the buffer is full the event is dropped.
type Producer struct {
	writer messageWriter
	inbox  chan kafka.Message
	logger *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewProducer builds a kafka backed producer.
func NewProducer(brokers []string, topic string, buf int, logger *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newProducer(w, buf, logger)
}

func newProducer(w messageWriter, buf int, logger *slog.Logger) *Producer {
	if buf <= 0 {
		buf = 1
	}
	return &Producer{writer: w, inbox: make(chan kafka.Message, buf), logger: logger}
}

// Start launches the write loop.
func (p *Producer) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.loop(runCtx)
}

// Stop flushes buffered events and closes the writer.
func (p *Producer) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Publish enqueues an envelope keyed by order id.
func (p *Producer) Publish(env Envelope) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Type == "" {
		env.Type = OutcomeEventType
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("encode outcome event failed", slog.String("order", env.OrderID), slog.String("error", err.Error()))
		return
	}
	msg := kafka.Message{
		Key:   []byte(env.OrderID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(env.ID)},
			{Key: "event-type", Value: []byte(env.Type)},
		},
	}
	select {
	case p.inbox <- msg:
	default:
		p.logger.Warn("outcome event dropped, buffer full", slog.String("order", env.OrderID), slog.String("state", env.State))
	}
}

func (p *Producer) loop(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.flush()
			if err := p.writer.Close(); err != nil {
				p.logger.Warn("close kafka writer failed", slog.String("error", err.Error()))
			}
			return
		case msg := <-p.inbox:
			p.write(ctx, msg)
		}
	}
}

func (p *Producer) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case msg := <-p.inbox:
			p.write(ctx, msg)
		default:
			return
		}
	}
}

func (p *Producer) write(ctx context.Context, msg kafka.Message) {
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish outcome event failed", slog.String("order", string(msg.Key)), slog.String("error", err.Error()))
	}
}
