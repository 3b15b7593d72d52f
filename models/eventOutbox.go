package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventOutboxRecord is a pared-down transactional outbox: workflow writes the
// record inside its own DB transaction, an external notifier/exporter drains
// it after commit. This core never delivers anything itself.
type EventOutboxRecord struct {
	ID            int             `gorm:"primary_key" json:"id"`
	EventType     OutboxEventType `gorm:"size:40;index;not null" json:"event_type"`
	AssignmentNo  string          `gorm:"size:64;index;not null" json:"assignment_no"`
	NodeID        int             `gorm:"index" json:"node_id"`
	RecipientCode string          `gorm:"size:30;index" json:"recipient_code"`
	Payload       []byte          `gorm:"type:json" json:"payload"`
	IsProcessed   bool            `gorm:"not null;default:false;index" json:"is_processed"`
	CorrelationId string          `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// PublishEvent writes the outbox record in the caller's transaction so the
// event exists iff the business write commits.
func PublishEvent(ctx context.Context, tx *gorm.DB, eventType OutboxEventType, node *AssignmentNode, recipientCode string, payload interface{}) error {

	payloadInByte, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	record := EventOutboxRecord{
		EventType:     eventType,
		AssignmentNo:  node.AssignmentNo,
		NodeID:        node.ID,
		RecipientCode: recipientCode,
		Payload:       payloadInByte,
		IsProcessed:   false,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
