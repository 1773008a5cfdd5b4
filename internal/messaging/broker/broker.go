// Package broker carries order events over watermill, in process by default
// and over Kafka when brokers are configured.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/chandruydv805026/my-web/internal/messaging"
)

const keyMetadata = "partition_key"

type Config struct {
	// Brokers lists Kafka bootstrap servers. Empty selects the in-process channel.
	Brokers       []string
	ConsumerGroup string
	ClientID      string
}

type Broker struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router
	closers    []func() error
}

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

func New(cfg Config, logger *slog.Logger) (*Broker, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	b := &Broker{router: router}
	if len(cfg.Brokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		b.publisher, b.subscriber = ch, ch
		b.closers = append(b.closers, ch.Close)
		slog.Info("Broker using in-process channel")
		return b, nil
	}

	if err := b.connectKafka(cfg, wmLogger); err != nil {
		return nil, err
	}
	slog.Info("Broker connected to Kafka", "brokers", cfg.Brokers, "group", cfg.ConsumerGroup)
	return b, nil
}

func (b *Broker) connectKafka(cfg Config, logger watermill.LoggerAdapter) error {
	marshaler := kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(keyMetadata), nil
	})

	pubConfig := kafka.DefaultSaramaSyncPublisherConfig()
	pubConfig.ClientID = cfg.ClientID
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               cfg.Brokers,
		Marshaler:             marshaler,
		OverwriteSaramaConfig: pubConfig,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	subConfig := kafka.DefaultSaramaSubscriberConfig()
	subConfig.ClientID = cfg.ClientID
	subConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           marshaler,
		OverwriteSaramaConfig: subConfig,
		ConsumerGroup:         cfg.ConsumerGroup,
	}, logger)
	if err != nil {
		publisher.Close()
		return fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	b.publisher, b.subscriber = publisher, subscriber
	b.closers = append(b.closers, publisher.Close, subscriber.Close)
	return nil
}

// PublishEvent encodes event as JSON. Messages with the same key keep their order on Kafka.
func (b *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(keyMetadata, key)
	msg.SetContext(ctx)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler. Handler errors are logged and the message is
// acknowledged; nothing is redelivered. Must be called before Run.
func (b *Broker) Subscribe(name, topic string, handler messaging.Handler) {
	b.router.AddNoPublisherHandler(name, topic, b.subscriber, func(msg *message.Message) error {
		if err := handler(msg.Context(), msg.Payload); err != nil {
			slog.Error("Error handling message", "handler", name, "topic", topic, "message_id", msg.UUID, "err", err)
		}
		return nil
	})
}

// Run blocks until ctx is cancelled or the router is closed.
func (b *Broker) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (b *Broker) Running() chan struct{} {
	return b.router.Running()
}

func (b *Broker) Close() error {
	err := b.router.Close()
	for _, closeFn := range b.closers {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
