package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

// MaxRetries is how often publishing an event is attempted before it is
// parked for manual inspection.
const MaxRetries = 5

type OutboxRepository interface {
	GetEvent(ctx context.Context, eventId string) (OutboxEvent, error)
	NewEvent(ctx context.Context, eventType string, payload utilities.Serializable) (string, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventId string) error
	UpdateRetryValue(ctx context.Context, eventId string) error
}

type outboxRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (or *outboxRepository) GetEvent(ctx context.Context, eventId string) (OutboxEvent, error) {
	var event OutboxEvent
	result := or.db.WithContext(ctx).Unscoped().First(&event, "event_id = ?", eventId)
	return event, result.Error
}

func (or *outboxRepository) NewEvent(ctx context.Context, eventType string, payload utilities.Serializable) (string, error) {
	body, err := payload.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize %s event: %w", eventType, err)
	}
	eventId := uuid.NewString()
	result := or.db.WithContext(ctx).Create(&OutboxEvent{
		EventId:   eventId,
		EventType: eventType,
		ToProcess: true,
		Payload:   string(body),
		CreatedAt: or.now(),
	})
	return eventId, result.Error
}

// GetUnprocessedEvents returns the oldest pending events first.
func (or *outboxRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	var events []OutboxEvent
	q := or.db.WithContext(ctx).
		Where("to_process = ?", true).
		Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	result := q.Find(&events)
	return events, result.Error
}

func (or *outboxRepository) MarkEventAsProcessed(ctx context.Context, eventId string) error {
	return or.db.WithContext(ctx).
		Where("event_id = ?", eventId).
		Delete(&OutboxEvent{}).Error
}

// UpdateRetryValue counts a failed publish. Past MaxRetries the event stops
// being picked up but stays in the table.
func (or *outboxRepository) UpdateRetryValue(ctx context.Context, eventId string) error {
	return or.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event OutboxEvent
		if err := tx.First(&event, "event_id = ?", eventId).Error; err != nil {
			return err
		}
		updates := map[string]any{"retry": event.Retry + 1}
		if event.Retry+1 >= MaxRetries {
			updates["to_process"] = false
		}
		return tx.Model(&OutboxEvent{}).
			Where("event_id = ?", eventId).
			Updates(updates).Error
	})
}
