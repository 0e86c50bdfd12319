package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

const (
	DefaultHost     = "rabbitmq"
	DefaultPort     = 5672
	DefaultVHost    = "/"
	DefaultPrefetch = 1
)

type RabbimqConfigJson struct {
	Host             string                         `json:"host"`
	Port             int                            `json:"port,omitempty"`
	VHost            string                         `json:"vhost,omitempty"`
	User             string                         `json:"user"`
	Password         string                         `json:"password"`
	PublishersConfig []RabbitmqPublishersConfigJson `json:"publishers"`
	ConsumersConfig  []RabbitmqConsumerConfigJson   `json:"consumers"`
}

type RabbitmqConfig struct {
	Host             string
	Port             int
	VHost            string
	User             string
	Password         string
	PublishersConfig []RabbitmqPublishersConfig
	ConsumersConfig  []RabbitmqConsumerConfig
}

// ConvertToDomain lets RABBITMQ_HOST, RABBITMQ_USER and RABBITMQ_PASSWORD
// override the file, so credentials can stay out of it.
func (rcj RabbimqConfigJson) ConvertToDomain() RabbitmqConfig {
	return RabbitmqConfig{
		Host:     utilities.EnvOrDefault("RABBITMQ_HOST", utilities.Ternary(rcj.Host != "", rcj.Host, DefaultHost)),
		Port:     utilities.Ternary(rcj.Port > 0, rcj.Port, DefaultPort),
		VHost:    utilities.Ternary(rcj.VHost != "", rcj.VHost, DefaultVHost),
		User:     utilities.EnvOrDefault("RABBITMQ_USER", rcj.User),
		Password: utilities.EnvOrDefault("RABBITMQ_PASSWORD", rcj.Password),
		PublishersConfig: utilities.ConvertJsonArrayToDomain[
			RabbitmqPublishersConfigJson,
			RabbitmqPublishersConfig,
		](rcj.PublishersConfig),
		ConsumersConfig: utilities.ConvertJsonArrayToDomain[
			RabbitmqConsumerConfigJson,
			RabbitmqConsumerConfig,
		](rcj.ConsumersConfig),
	}
}

// URI is the broker address amqp.Dial expects.
func (c RabbitmqConfig) URI() string {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.User,
		Password: c.Password,
		Vhost:    c.VHost,
	}.String()
}

type RabbitmqPublishersConfigJson struct {
	PublisherAlias string `json:"publisher_alias"`
	Exchange       string `json:"exchange"`
	RoutingKey     string `json:"routing_key"`
}

type RabbitmqPublishersConfig struct {
	PublisherAlias PublisherAlias
	Exchange       string
	RoutingKey     string
}

func (rpcj RabbitmqPublishersConfigJson) ConvertToDomain() RabbitmqPublishersConfig {
	return RabbitmqPublishersConfig{
		PublisherAlias: PublisherAlias(rpcj.PublisherAlias),
		Exchange:       rpcj.Exchange,
		RoutingKey:     rpcj.RoutingKey,
	}
}

type RabbitmqConsumerConfigJson struct {
	ConsumerAlias string `json:"consumer_alias"`
	ConsumerTag   string `json:"consumer_tag"`
	QueueName     string `json:"queue_name"`
	Prefetch      int    `json:"prefetch,omitempty"`
}

// RabbitmqConsumerConfig.Prefetch bounds unacknowledged deliveries per
// consumer; share reveals are applied one at a time by default.
type RabbitmqConsumerConfig struct {
	ConsumerAlias ConsumerAlias
	ConsumerTag   string
	QueueName     string
	Prefetch      int
}

func (rccj RabbitmqConsumerConfigJson) ConvertToDomain() RabbitmqConsumerConfig {
	return RabbitmqConsumerConfig{
		ConsumerAlias: ConsumerAlias(rccj.ConsumerAlias),
		QueueName:     rccj.QueueName,
		ConsumerTag:   rccj.ConsumerTag,
		Prefetch:      utilities.Ternary(rccj.Prefetch > 0, rccj.Prefetch, DefaultPrefetch),
	}
}
