package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/orbitlabs/orbit-server/internal/db"
)

// MessageRepository provides data access for chat messages.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create inserts a message row into a conversation.
func (r *MessageRepository) Create(ctx context.Context, conversation, senderID, body string) (*db.Message, error) {
	msg := db.Message{
		Conversation: conversation,
		SenderID:     senderID,
		Body:         body,
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByConversation returns up to limit messages in send order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversation string, limit int) ([]db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("conversation = ?", conversation).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
