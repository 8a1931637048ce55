package events

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/config"
)

// Module provides outcome event producer.
var Module = fx.Provide(newKafkaProducer)

type producerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newKafkaProducer(p producerParams) *Producer {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Warn("kafka brokers not configured, outcome events are discarded")
		return newProducer(discardWriter{}, p.Config.EventBufferSize, p.Logger)
	}
	return NewProducer(p.Config.KafkaBrokers, p.Config.KafkaTopic, p.Config.EventBufferSize, p.Logger)
}

type discardWriter struct{}

func (discardWriter) WriteMessages(context.Context, ...kafka.Message) error { return nil }

func (discardWriter) Close() error { return nil }
