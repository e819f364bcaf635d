package domain

import "time"

type Message struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID    uint      `gorm:"column:sender_id;not null;index" json:"sender_id"`
	RecipientID uint      `gorm:"column:recipient_id;not null;index" json:"recipient_id"`
	Body        string    `gorm:"column:body;type:text;not null" json:"body"`
	IsRead      bool      `gorm:"column:is_read;default:false" json:"is_read"`
	SentAt      time.Time `gorm:"column:sent_at" json:"sent_at"`
}

func (Message) TableName() string {
	return "messages"
}
