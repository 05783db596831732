package domain

import "time"

// ConversationSender identifies who wrote a message.
type ConversationSender string

const (
	SenderAgent ConversationSender = "agent"
	SenderLead  ConversationSender = "lead"
)

// MessageType is the channel a message was sent over.
type MessageType string

const (
	MessageEmail    MessageType = "email"
	MessageWhatsApp MessageType = "whatsapp"
)

// DeliveryStatus tracks a sent message through the delivery pipeline.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
)

// Conversation is one sent or received message on a lead. Immutable once created.
type Conversation struct {
	ID          string             `json:"id"`
	LeadID      string             `json:"leadId"`
	Sender      ConversationSender `json:"sender"`
	MessageType MessageType        `json:"messageType"`
	Content     string             `json:"content"`
	Status      DeliveryStatus     `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}
