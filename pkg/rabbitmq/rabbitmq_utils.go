package rabbitmq

import (
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
)

const maxConnectRetries = 7

// ConnectToRabbitmq dials with exponential backoff, giving up after
// maxConnectRetries attempts.
func ConnectToRabbitmq(cfg RabbitmqConfig) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	waitTime := 1 * time.Second

	queueLogger := logger.Default()
	uri := cfg.URI()

	for i := 0; i < maxConnectRetries; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			return conn, nil
		}
		queueLogger.Warnf("Attempt %d to reach %s:%d failed: %v. Retrying in %v...", i+1, cfg.Host, cfg.Port, err, waitTime)
		time.Sleep(waitTime)
		waitTime = time.Duration(math.Pow(2, float64(i+1))) * time.Second
	}
	return nil, err
}
