package marketdata

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher delivers serialized delta payloads into the fan-out channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber attaches a handler to the fan-out channel. Delivery preserves
// per-subscriber ordering of deltas.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func([]byte)) error
}

// Bus is a fan-out transport usable from both ends.
type Bus interface {
	Publisher
	Subscriber
}

// InprocBus delivers payloads synchronously inside the process. It is the
// default transport between the poller and the hub.
type InprocBus struct {
	mu       sync.RWMutex
	handlers map[string][]func([]byte)
}

// NewInprocBus creates an empty in-process bus.
func NewInprocBus() *InprocBus {
	return &InprocBus{handlers: make(map[string][]func([]byte))}
}

// Publish invokes every handler registered for channel, in subscribe order.
func (b *InprocBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	handlers := b.handlers[channel]
	b.mu.RUnlock()
	for _, handler := range handlers {
		handler(payload)
	}
	return nil
}

// Subscribe registers handler for channel.
func (b *InprocBus) Subscribe(ctx context.Context, channel string, handler func([]byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = append(b.handlers[channel], handler)
	return nil
}

// RedisBus carries the fan-out channel over Redis pub/sub for multi-process
// deployments.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBus connects a Redis-backed bus.
func NewRedisBus(addr, password string, db int, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		logger: logger,
	}
}

// Publish sends the payload on the named Redis channel.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe consumes the named Redis channel until ctx is cancelled.
func (b *RedisBus) Subscribe(ctx context.Context, channel string, handler func([]byte)) error {
	pubsub := b.client.Subscribe(ctx, channel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
	return nil
}

// KafkaBus carries the fan-out channel over a Kafka topic.
type KafkaBus struct {
	brokers []string
	logger  *zap.Logger

	mu     sync.Mutex
	writer *kafka.Writer
}

// NewKafkaBus creates a Kafka-backed bus for the given brokers.
func NewKafkaBus(brokers []string, logger *zap.Logger) *KafkaBus {
	return &KafkaBus{brokers: brokers, logger: logger}
}

func (b *KafkaBus) writerFor(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writer == nil {
		b.writer = &kafka.Writer{
			Addr:     kafka.TCP(b.brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return b.writer
}

// Publish writes the payload to the topic named by channel.
func (b *KafkaBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.writerFor(channel).WriteMessages(ctx, kafka.Message{Value: payload})
}

// Subscribe consumes the topic until ctx is cancelled.
func (b *KafkaBus) Subscribe(ctx context.Context, channel string, handler func([]byte)) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.brokers,
		Topic:   channel,
		GroupID: "bookfeed",
	})
	go func() {
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					b.logger.Error("kafka read failed", zap.Error(err))
				}
				return
			}
			handler(msg.Value)
		}
	}()
	return nil
}
