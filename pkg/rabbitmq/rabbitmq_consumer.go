package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
)

type ConsumerAlias string

var (
	ConsumerRegistry    map[ConsumerAlias]IRabbitmqConsumer
	onceConsumer        sync.Once
	initializedConsumer bool
)

func GetConsumer(alias ConsumerAlias) IRabbitmqConsumer {
	if !initializedConsumer {
		panic("Consumer registry not initialized: call InitializeConsumerRegistry() first")
	}
	return ConsumerRegistry[alias]
}

func InitializeConsumerRegistry(conn *amqp.Connection, consumerConfig []RabbitmqConsumerConfig) {
	onceConsumer.Do(func() {
		ConsumerRegistry = make(map[ConsumerAlias]IRabbitmqConsumer)

		for _, consumer := range consumerConfig {
			channel, err := conn.Channel()
			if err != nil {
				logger.Default().Fatalf(err, "Could not obtain channel for consumer %s", consumer.ConsumerAlias)
			}
			if err := channel.Qos(consumer.Prefetch, 0, false); err != nil {
				logger.Default().Fatalf(err, "Could not set prefetch %d for consumer %s", consumer.Prefetch, consumer.ConsumerAlias)
			}

			ConsumerRegistry[consumer.ConsumerAlias] = NewConsumer(
				channel,
				consumer.QueueName,
				consumer.ConsumerTag,
			)
		}

		initializedConsumer = true
	})
}

// MessageHandler processes one delivery. A nil error acks it, any other
// error rejects it without requeueing.
type MessageHandler func(context.Context, amqp.Delivery) error

type IRabbitmqConsumer interface {
	StartConsuming(ctx context.Context, handler MessageHandler) error
}

type RabbitmqConsumer struct {
	Channel     Channel
	QueueName   string
	ConsumerTag string
	log         *logger.Logger
}

func NewConsumer(ch Channel, queueName, consumerTag string) *RabbitmqConsumer {
	return &RabbitmqConsumer{
		Channel:     ch,
		QueueName:   queueName,
		ConsumerTag: consumerTag,
	}
}

func (rc *RabbitmqConsumer) WithLogger(l *logger.Logger) *RabbitmqConsumer {
	rc.log = l
	return rc
}

func (rc *RabbitmqConsumer) getLogger() *logger.Logger {
	if rc.log == nil {
		rc.log = logger.Default()
	}
	return rc.log
}

// StartConsuming blocks until ctx is done or the delivery channel closes.
func (rc *RabbitmqConsumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	msgs, err := rc.Channel.Consume(
		rc.QueueName,   // queue
		rc.ConsumerTag, // consumer
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer %s: %w", rc.ConsumerTag, err)
	}

	consumerLogger := rc.getLogger()
	consumerLogger.Infof("Waiting for messages in queue: %s", rc.QueueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			rc.handle(ctx, handler, d)
		}
	}
}

func (rc *RabbitmqConsumer) handle(ctx context.Context, handler MessageHandler, d amqp.Delivery) {
	consumerLogger := rc.getLogger()
	defer func() {
		if r := recover(); r != nil {
			consumerLogger.Errorf(nil, "[%s] Recovered from panic for consumer: %s, %v", rc.QueueName, rc.ConsumerTag, r)
			_ = d.Nack(false, false)
		}
	}()

	consumerLogger.Debugf("[%s] delivery %d (%s)", rc.QueueName, d.DeliveryTag, d.Type)
	if err := handler(ctx, d); err != nil {
		consumerLogger.Errorf(err, "[%s] rejecting delivery %d", rc.QueueName, d.DeliveryTag)
		if nackErr := d.Nack(false, false); nackErr != nil {
			consumerLogger.Error(nackErr, "nack failed")
		}
		return
	}
	if err := d.Ack(false); err != nil {
		consumerLogger.Error(err, "ack failed")
	}
}
