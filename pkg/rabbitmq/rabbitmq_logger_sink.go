package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities/timeutil"
)

type LoggerMessage struct {
	Level     string           `json:"level"`
	Message   string           `json:"message"`
	Timestamp timeutil.TimeUTC `json:"timestamp"`
}

func (lm LoggerMessage) Serialize() ([]byte, error) {
	return utilities.Serialize(lm)
}

const sinkPublishTimeout = 2 * time.Second

func CreateRabbitmqLoggerSink(publisher IRabbitmqPublisher) logger.SinkFunc {
	return func(msg string, level zerolog.Level, timestamp timeutil.TimeUTC) {
		ctx, cancel := context.WithTimeout(context.Background(), sinkPublishTimeout)
		defer cancel()

		err := publisher.Publish(ctx, LoggerMessage{
			Level:     level.String(),
			Message:   msg,
			Timestamp: timestamp,
		})
		if err != nil {
			// the logger would recurse into this sink
			fmt.Printf("Failed to publish log message to RabbitMQ: %v\n", err)
		}
	}
}
