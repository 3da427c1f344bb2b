package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AuctionStatus represents the lifecycle of the auction event itself
type AuctionStatus string

const (
	AuctionStatusScheduled AuctionStatus = "scheduled"
	AuctionStatusLive      AuctionStatus = "live"
	AuctionStatusClosed    AuctionStatus = "closed"
)

// Auction groups lots under one auctioneer. AccumulatedRevenue is a derived
// value recomputed from sold lot rows on demand, it is never trusted as
// authoritative between recomputations and never incrementally maintained.
type Auction struct {
	ID                 uuid.UUID
	AuctioneerID       uuid.UUID
	Title              string
	Description        string
	Status             AuctionStatus
	StartsAt           time.Time
	EndsAt             time.Time
	AccumulatedRevenue decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewAuction(id, auctioneerID uuid.UUID, title, description string, startsAt, endsAt time.Time) *Auction {
	return &Auction{
		ID:                 id,
		AuctioneerID:       auctioneerID,
		Title:              title,
		Description:        description,
		Status:             AuctionStatusScheduled,
		StartsAt:           startsAt,
		EndsAt:             endsAt,
		AccumulatedRevenue: decimal.Zero,
	}
}

// Live reports whether bids can be arbitrated for this auction's lots
func (a *Auction) Live() bool {
	return a.Status == AuctionStatusLive
}

// Start moves a Scheduled auction to Live
func (a *Auction) Start() error {
	if a.Status != AuctionStatusScheduled {
		log.Warn("Attempted to start auction that is not scheduled",
			zap.String("auctionID", a.ID.String()),
			zap.String("status", string(a.Status)),
		)
		return ErrInvalidAuctionStatus
	}
	a.Status = AuctionStatusLive
	a.StartsAt = time.Now().UTC()
	log.Info("Auction started", zap.String("auctionID", a.ID.String()))
	return nil
}

// Close moves a Live auction to Closed, the final revenue recompute happens
// in the application layer after this transition is persisted
func (a *Auction) Close() error {
	if a.Status != AuctionStatusLive {
		log.Warn("Attempted to close auction that is not live",
			zap.String("auctionID", a.ID.String()),
			zap.String("status", string(a.Status)),
		)
		return ErrInvalidAuctionStatus
	}
	a.Status = AuctionStatusClosed
	a.EndsAt = time.Now().UTC()
	log.Info("Auction closed", zap.String("auctionID", a.ID.String()))
	return nil
}
