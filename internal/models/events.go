package models

import "time"

// Event types
const (
	EventTypeQuotaCreated         = "QUOTA_CREATED"
	EventTypeQuotaCancelled       = "QUOTA_CANCELLED"
	EventTypeParticipantRequested = "PARTICIPANT_REQUESTED"
	EventTypeParticipantDecided   = "PARTICIPANT_DECIDED"
	EventTypeBidSubmitted         = "BID_SUBMITTED"
	EventTypeBidAccepted          = "BID_ACCEPTED"
	EventTypeChatMessageSent      = "CHAT_MESSAGE_SENT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// QuotaCreatedEvent published when a producer opens a new quota
type QuotaCreatedEvent struct {
	BaseEvent
	QuotaID     string  `json:"quota_id"`
	ProducerID  string  `json:"producer_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	TargetPrice float64 `json:"target_price"`
}

// QuotaCancelledEvent published when the owner withdraws an open quota
type QuotaCancelledEvent struct {
	BaseEvent
	QuotaID        string   `json:"quota_id"`
	ProducerID     string   `json:"producer_id"`
	ProductName    string   `json:"product_name"`
	ParticipantIDs []string `json:"participant_ids"`
}

// ParticipantRequestedEvent published when a producer asks to join a quota
type ParticipantRequestedEvent struct {
	BaseEvent
	ParticipantID string  `json:"participant_id"`
	QuotaID       string  `json:"quota_id"`
	OwnerID       string  `json:"owner_id"`
	ProducerID    string  `json:"producer_id"`
	ProducerName  string  `json:"producer_name"`
	Quantity      float64 `json:"quantity"`
}

// ParticipantDecidedEvent published when the quota owner approves or rejects
type ParticipantDecidedEvent struct {
	BaseEvent
	ParticipantID string `json:"participant_id"`
	QuotaID       string `json:"quota_id"`
	ProducerID    string `json:"producer_id"`
	Decision      string `json:"decision"`
}

// BidSubmittedEvent published when a seller bids on a quota
type BidSubmittedEvent struct {
	BaseEvent
	BidID        string  `json:"bid_id"`
	QuotaID      string  `json:"quota_id"`
	OwnerID      string  `json:"owner_id"`
	SellerID     string  `json:"seller_id"`
	SellerName   string  `json:"seller_name"`
	PricePerUnit float64 `json:"price_per_unit"`
	TotalPrice   float64 `json:"total_price"`
}

// BidAcceptedEvent published when the owner accepts a bid and the quota closes
type BidAcceptedEvent struct {
	BaseEvent
	BidID          string   `json:"bid_id"`
	QuotaID        string   `json:"quota_id"`
	WinnerSellerID string   `json:"winner_seller_id"`
	LoserSellerIDs []string `json:"loser_seller_ids"`
	ParticipantIDs []string `json:"participant_ids"`
	TotalPrice     float64  `json:"total_price"`
}

// ChatMessageSentEvent published when a chat message is persisted
type ChatMessageSentEvent struct {
	BaseEvent
	MessageID  string `json:"message_id"`
	QuotaID    string `json:"quota_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
}
