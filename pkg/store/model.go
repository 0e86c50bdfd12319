package store

import (
	"time"

	"gorm.io/gorm"
)

// OutboxEvent is a pending message for the broker. Publishing it soft
// deletes the row through ProcessedAt.
type OutboxEvent struct {
	Id          int    `gorm:"primaryKey;autoIncrement"`
	EventId     string `gorm:"uniqueIndex"`
	EventType   string `gorm:"index"`
	Retry       int
	ToProcess   bool `gorm:"index"`
	Payload     string
	ProcessedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt   time.Time
}

// InvestigationSnapshot is the latest local copy of an investigation record.
type InvestigationSnapshot struct {
	InvestigationId string `gorm:"primaryKey"`
	ProofRequest    string `gorm:"index"`
	Status          string
	Revealed        int
	Record          string
	UpdatedAt       time.Time
}
