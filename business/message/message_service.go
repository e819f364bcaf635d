package message

import (
	"context"
	"strings"
	"time"

	"techshop/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	FindConversation(ctx context.Context, accountID, peerID uint, page, pageSize int) ([]domain.Message, int64, error)
	FindPartners(ctx context.Context, accountID uint) ([]uint, error)
	FindNewSince(ctx context.Context, accountID uint, since time.Time) ([]domain.Message, error)
	MarkRead(ctx context.Context, accountID, peerID uint) error
}

type AccountRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Account, error)
}

// MessageService routes customer messages to the configured support account;
// back-office staff can message any account directly.
type MessageService struct {
	messageRepo MessageRepository
	accountRepo AccountRepository
	supportID   uint
}

func NewMessageService(messageRepo MessageRepository, accountRepo AccountRepository, supportID uint) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		accountRepo: accountRepo,
		supportID:   supportID,
	}
}

// SendToSupport is the customer-facing path; the recipient is always the
// support account.
func (s *MessageService) SendToSupport(ctx context.Context, senderID uint, body string) (domain.Message, error) {
	return s.send(ctx, senderID, s.supportID, body)
}

// Send is the back-office path with an explicit recipient.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID uint, body string) (domain.Message, error) {
	return s.send(ctx, senderID, recipientID, body)
}

func (s *MessageService) send(ctx context.Context, senderID, recipientID uint, body string) (domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Message{}, domain.NewError(domain.KindInvalidInput, "message body is empty")
	}
	if senderID == recipientID {
		return domain.Message{}, domain.NewError(domain.KindInvalidInput, "cannot message yourself")
	}

	if _, err := s.accountRepo.FindByID(ctx, recipientID); err != nil {
		return domain.Message{}, err
	}

	message := domain.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		SentAt:      time.Now(),
	}

	if err := s.messageRepo.Create(ctx, &message); err != nil {
		return domain.Message{}, err
	}

	return message, nil
}

// GetConversation returns the thread with the peer and marks the peer's
// messages read; reading a thread is what clears its unread state.
func (s *MessageService) GetConversation(ctx context.Context, accountID, peerID uint, page, pageSize int) ([]domain.Message, int64, error) {
	messages, total, err := s.messageRepo.FindConversation(ctx, accountID, peerID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	if err := s.messageRepo.MarkRead(ctx, accountID, peerID); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// GetSupportConversation is the customer view of their support thread.
func (s *MessageService) GetSupportConversation(ctx context.Context, accountID uint, page, pageSize int) ([]domain.Message, int64, error) {
	return s.GetConversation(ctx, accountID, s.supportID, page, pageSize)
}

// ListPartners returns the accounts the user has a thread with, for the
// back-office inbox.
func (s *MessageService) ListPartners(ctx context.Context, accountID uint) ([]domain.Account, error) {
	ids, err := s.messageRepo.FindPartners(ctx, accountID)
	if err != nil {
		return nil, err
	}

	partners := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		account, err := s.accountRepo.FindByID(ctx, id)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				continue
			}
			return nil, err
		}
		account.Password = ""
		partners = append(partners, account)
	}

	return partners, nil
}

// Poll returns messages addressed to the account since the given time; the
// client long-polls this for near-real-time delivery.
func (s *MessageService) Poll(ctx context.Context, accountID uint, since time.Time) ([]domain.Message, error) {
	return s.messageRepo.FindNewSince(ctx, accountID, since)
}
