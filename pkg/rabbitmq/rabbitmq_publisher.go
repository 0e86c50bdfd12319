package rabbitmq

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

type PublisherAlias string

var (
	PublisherRegistry map[PublisherAlias]IRabbitmqPublisher
	oncePublisher     sync.Once
)

func GetPublisher(alias PublisherAlias) IRabbitmqPublisher {
	return PublisherRegistry[alias]
}

func InitializePublisherRegistry(conn *amqp.Connection, publisherConfig []RabbitmqPublishersConfig) {
	oncePublisher.Do(func() {
		PublisherRegistry = make(map[PublisherAlias]IRabbitmqPublisher)

		for _, publisher := range publisherConfig {
			channel, err := conn.Channel()
			if err != nil {
				logger.Default().Fatalf(err, "Could not obtain channel for publisher %s", publisher.PublisherAlias)
			}

			PublisherRegistry[publisher.PublisherAlias] = NewPublisher(
				channel,
				publisher.Exchange,
				publisher.RoutingKey,
			)
		}
	})
}

type RabbitmqPublisher struct {
	Channel    Channel
	Exchange   string
	RoutingKey string

	mu sync.Mutex
}

func NewPublisher(ch Channel, exchange, routingKey string) *RabbitmqPublisher {
	return &RabbitmqPublisher{
		Channel:    ch,
		Exchange:   exchange,
		RoutingKey: routingKey,
	}
}

type IRabbitmqPublisher interface {
	Publish(ctx context.Context, body utilities.Serializable) error
}

// Typed is implemented by messages that name their own type; it is sent
// as the AMQP type property.
type Typed interface {
	MessageType() string
}

// Publish sends body as persistent JSON. Channels are not safe for
// concurrent publishing, so calls are serialized.
func (rp *RabbitmqPublisher) Publish(ctx context.Context, body utilities.Serializable) error {
	json, err := body.Serialize()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         json,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
	}
	if t, ok := body.(Typed); ok {
		msg.Type = t.MessageType()
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.Channel.PublishWithContext(ctx, rp.Exchange, rp.RoutingKey, false, false, msg)
}
