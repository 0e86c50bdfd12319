package workers

import (
	"context"
	"encoding/json"

	"github.com/robfig/cron"

	"github.com/bsc-digital-identity/zk-compliance/pkg/dtocommon"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
	"github.com/bsc-digital-identity/zk-compliance/pkg/store"
)

const outboxWorkerName = "OutboxCronWorker"

// OutboxWorker publishes stored investigation events on a cron schedule.
type OutboxWorker struct {
	publisher  rabbitmq.IRabbitmqPublisher
	repository store.OutboxRepository
	schedule   string
	batchSize  int
	cron       *cron.Cron
	logger     *logger.Logger
}

func NewOutboxWorker(publisher rabbitmq.IRabbitmqPublisher, repository store.OutboxRepository, schedule string, batchSize int, log *logger.Logger) *OutboxWorker {
	return &OutboxWorker{
		publisher:  publisher,
		repository: repository,
		schedule:   schedule,
		batchSize:  batchSize,
		cron:       cron.New(),
		logger:     log,
	}
}

func (ow *OutboxWorker) GetServiceName() string {
	return outboxWorkerName
}

// StartService runs the schedule until ctx is cancelled.
func (ow *OutboxWorker) StartService(ctx context.Context) error {
	err := ow.cron.AddFunc(ow.schedule, func() { ow.ProcessOutboxEvents(ctx) })
	if err != nil {
		ow.logger.Errorf(err, "Could not add function to %s", outboxWorkerName)
		return err
	}

	ow.cron.Start()
	<-ctx.Done()
	ow.cron.Stop()
	return ctx.Err()
}

// ProcessOutboxEvents publishes one batch. Published events are marked
// processed; failures count a retry.
func (ow *OutboxWorker) ProcessOutboxEvents(ctx context.Context) int {
	events, err := ow.repository.GetUnprocessedEvents(ctx, ow.batchSize)
	if err != nil {
		ow.logger.Error(err, "Could not read events from database")
		return 0
	}

	published := 0
	for _, e := range events {
		msg := dtocommon.OutboxMessageDto{
			EventId:   e.EventId,
			EventType: e.EventType,
			Payload:   json.RawMessage(e.Payload),
			CreatedAt: e.CreatedAt,
		}
		if err := ow.publisher.Publish(ctx, msg); err != nil {
			ow.logger.Errorf(err, "Can't publish event %s to queue", e.EventId)
			if err := ow.repository.UpdateRetryValue(ctx, e.EventId); err != nil {
				ow.logger.Errorf(err, "Could not update retry count of %s", e.EventId)
			}
			continue
		}
		if err := ow.repository.MarkEventAsProcessed(ctx, e.EventId); err != nil {
			ow.logger.Errorf(err, "Could not mark event %s as processed", e.EventId)
			continue
		}
		published++
	}
	if published > 0 {
		ow.logger.Debugf("Published %d outbox events", published)
	}
	return published
}
