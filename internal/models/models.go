package models

import "time"

// Profile represents an identity record created at signup
type Profile struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Type         string    `db:"type" json:"type"`
	TaxID        string    `db:"tax_id" json:"tax_id,omitempty"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Address      string    `db:"address" json:"address,omitempty"`
	City         string    `db:"city" json:"city,omitempty"`
	State        string    `db:"state" json:"state,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents an agricultural input in the catalog
type Product struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description,omitempty"`
	Unit        string    `db:"unit" json:"unit"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Quota represents a collective purchase request owned by a producer
type Quota struct {
	ID                string    `db:"id" json:"id"`
	ProducerID        string    `db:"producer_id" json:"producer_id"`
	ProductID         string    `db:"product_id" json:"product_id"`
	Quantity          float64   `db:"quantity" json:"quantity"`
	CurrentQuantity   float64   `db:"current_quantity" json:"current_quantity"`
	Unit              string    `db:"unit" json:"unit"`
	TargetPrice       float64   `db:"target_price" json:"target_price"`
	DeliveryDate      time.Time `db:"delivery_date" json:"delivery_date"`
	DeliveryLocation  string    `db:"delivery_location" json:"delivery_location"`
	Status            string    `db:"status" json:"status"`
	ParticipantsCount int       `db:"participants_count" json:"participants_count"`
	MaxParticipants   int       `db:"max_participants" json:"max_participants"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// SlotsRemaining is the number of open participant slots, clamped so a
// stale read of the aggregates never renders negative.
func (q *Quota) SlotsRemaining() int {
	if n := q.MaxParticipants - q.ParticipantsCount; n > 0 {
		return n
	}
	return 0
}

// QuantityRemaining is the uncommitted quantity, clamped like SlotsRemaining.
func (q *Quota) QuantityRemaining() float64 {
	if n := q.Quantity - q.CurrentQuantity; n > 0 {
		return n
	}
	return 0
}

// Participant represents a producer's committed share within a quota
type Participant struct {
	ID         string    `db:"id" json:"id"`
	QuotaID    string    `db:"quota_id" json:"quota_id"`
	ProducerID string    `db:"producer_id" json:"producer_id"`
	Quantity   float64   `db:"quantity" json:"quantity"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ParticipantDetail joins the requesting producer's name for the owner view
type ParticipantDetail struct {
	Participant
	ProducerName string `db:"producer_name" json:"producer_name"`
}

// Bid represents a seller's priced offer against an open quota
type Bid struct {
	ID            string    `db:"id" json:"id"`
	QuotaID       string    `db:"quota_id" json:"quota_id"`
	SellerID      string    `db:"seller_id" json:"seller_id"`
	PricePerUnit  float64   `db:"price_per_unit" json:"price_per_unit"`
	TotalPrice    float64   `db:"total_price" json:"total_price"`
	DeliveryTerms string    `db:"delivery_terms" json:"delivery_terms"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// BidDetail joins the bidding seller's name
type BidDetail struct {
	Bid
	SellerName string `db:"seller_name" json:"seller_name"`
}

// ChatMessage is an append-only message tied to a quota
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	QuotaID   string    `db:"quota_id" json:"quota_id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatMessageDetail joins the sender's name
type ChatMessageDetail struct {
	ChatMessage
	SenderName string `db:"sender_name" json:"sender_name"`
}

// Notification is delivered to a single user on a domain event
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Link      string    `db:"link" json:"link,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Profile types
const (
	ProfileTypeProducer = "producer"
	ProfileTypeSeller   = "seller"
	ProfileTypeAdmin    = "admin"
)

// Quota statuses
const (
	QuotaStatusOpen      = "open"
	QuotaStatusClosed    = "closed"
	QuotaStatusCompleted = "completed"
	QuotaStatusCancelled = "cancelled"
)

// Participant statuses
const (
	ParticipantStatusPending   = "pending"
	ParticipantStatusActive    = "active"
	ParticipantStatusCancelled = "cancelled"
)

// Bid statuses
const (
	BidStatusPending  = "pending"
	BidStatusAccepted = "accepted"
	BidStatusRejected = "rejected"
)

// ProcessedEvent for idempotent event consumption
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
