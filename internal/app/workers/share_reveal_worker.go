// Package workers holds the background services of the compliance node.
package workers

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bsc-digital-identity/zk-compliance/internal/app/reveal"
	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
)

const shareRevealWorkerName = "ShareRevealWorker"

// ShareRevealWorker applies share reveals trustees send over the bus and
// answers each with a result message.
type ShareRevealWorker struct {
	consumer       rabbitmq.IRabbitmqConsumer
	results        rabbitmq.IRabbitmqPublisher
	investigations reveal.Investigations
	bj             *babyjub.Context
	logger         *logger.Logger
}

func NewShareRevealWorker(
	consumer rabbitmq.IRabbitmqConsumer,
	results rabbitmq.IRabbitmqPublisher,
	investigations reveal.Investigations,
	bj *babyjub.Context,
	log *logger.Logger,
) *ShareRevealWorker {
	return &ShareRevealWorker{
		consumer:       consumer,
		results:        results,
		investigations: investigations,
		bj:             bj,
		logger:         log,
	}
}

func (w *ShareRevealWorker) GetServiceName() string {
	return shareRevealWorkerName
}

func (w *ShareRevealWorker) StartService(ctx context.Context) error {
	w.logger.Info("Starting share reveal worker")
	return w.consumer.StartConsuming(ctx, w.HandleDelivery)
}

// HandleDelivery rejects undecodable messages. Reveal failures are
// reported on the result exchange and the delivery is acked.
func (w *ShareRevealWorker) HandleDelivery(ctx context.Context, d amqp.Delivery) error {
	var msg dtocommon.ShareRevealDto
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("malformed share reveal: %w", err)
	}

	res, err := reveal.Apply(ctx, w.investigations, w.bj, msg.Investigation, msg)
	if err != nil {
		w.logger.Warnf("share %d of investigation %s not revealed: %v", msg.ShareIndex, msg.Investigation, err)
		res = reveal.Failed(res, err)
	} else {
		w.logger.Infof("share %d of investigation %s applied (changed=%v)", msg.ShareIndex, msg.Investigation, res.Changed)
	}

	if w.results == nil {
		return nil
	}
	if err := w.results.Publish(ctx, res); err != nil {
		return fmt.Errorf("publishing reveal result for %s: %w", msg.Investigation, err)
	}
	return nil
}
