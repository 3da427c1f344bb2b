package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies state-change events fanned out to spectators
type EventType string

const (
	EventNewBid                EventType = "new_bid"
	EventLotOpened             EventType = "lot_opened"
	EventLotClosed             EventType = "lot_closed"
	EventAuctionRevenueChanged EventType = "auction_revenue_changed"
)

// AuctionTopic is the broadcast topic for auction-scoped subscriptions
func AuctionTopic(auctionID uuid.UUID) string {
	return "auction-" + auctionID.String()
}

// LotTopic is the finer-grained topic for a single lot
func LotTopic(lotID uuid.UUID) string {
	return "lot-" + lotID.String()
}

// NewBidEvent is published after a bid commit is durable, never before
type NewBidEvent struct {
	LotID             uuid.UUID       `json:"lot_id"`
	Amount            decimal.Decimal `json:"amount"`
	BidderDisplayName string          `json:"bidder_display_name"`
	Timestamp         time.Time       `json:"timestamp"`
}

type LotOpenedEvent struct {
	LotID uuid.UUID `json:"lot_id"`
}

type LotClosedEvent struct {
	LotID             uuid.UUID       `json:"lot_id"`
	Sold              bool            `json:"sold"`
	WinnerDisplayName string          `json:"winner_display_name,omitempty"`
	FinalAmount       decimal.Decimal `json:"final_amount"`
}

type AuctionRevenueChangedEvent struct {
	AuctionID uuid.UUID       `json:"auction_id"`
	Total     decimal.Decimal `json:"total"`
}

// EventPublisher fans an event out to every subscriber of a topic. Delivery
// is best-effort and at-most-once, a publish failure after a successful
// commit is logged by the implementation and never rolls back the commit,
// the persisted record stays the source of truth.
type EventPublisher interface {
	Publish(topic string, eventType EventType, payload any)
}
