package postgres

import (
	"context"
	"time"

	"techshop/domain"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{
		DB: db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if err := r.DB.WithContext(ctx).Create(message).Error; err != nil {
		return err
	}

	return nil
}

// FindConversation returns messages between the two accounts in either
// direction, oldest first.
func (r *MessageRepository) FindConversation(ctx context.Context, accountID, peerID uint, page, pageSize int) ([]domain.Message, int64, error) {
	var (
		messages []domain.Message
		total    int64
	)

	query := r.DB.WithContext(ctx).Model(&domain.Message{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			accountID, peerID, peerID, accountID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("sent_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// FindPartners returns the distinct account ids this account has exchanged
// messages with.
func (r *MessageRepository) FindPartners(ctx context.Context, accountID uint) ([]uint, error) {
	var partners []uint

	err := r.DB.WithContext(ctx).Model(&domain.Message{}).
		Select("DISTINCT CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END", accountID).
		Where("sender_id = ? OR recipient_id = ?", accountID, accountID).
		Scan(&partners).Error
	if err != nil {
		return nil, err
	}

	return partners, nil
}

// FindNewSince backs client polling: messages addressed to the account after
// the given time.
func (r *MessageRepository) FindNewSince(ctx context.Context, accountID uint, since time.Time) ([]domain.Message, error) {
	var messages []domain.Message

	err := r.DB.WithContext(ctx).
		Where("recipient_id = ? AND sent_at > ?", accountID, since).
		Order("sent_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, accountID, peerID uint) error {
	return r.DB.WithContext(ctx).Model(&domain.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", accountID, peerID, false).
		Update("is_read", true).Error
}
