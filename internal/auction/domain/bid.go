package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid represents an individual bid placed against an auction lot. A bid is
// immutable once created except for the Leading flag, wich the arbitrator
// flips off on the losing predecessor when a new leader is committed.
type Bid struct {
	ID        uuid.UUID
	LotID     uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	Timestamp time.Time
	// Sequence is the per-lot insertion order assigned at commit time. The
	// ledger orders by timestamp and breaks ties by sequence (never by
	// amount), so simultaneous-timestamp submissions still yield one
	// deterministic leader.
	Sequence int64
	Leading  bool
}

// NewBid creates a new Bid instance, leading by construction since the
// arbitrator only creates a bid for an accepted submission
func NewBid(id, lotID, bidderID uuid.UUID, amount decimal.Decimal, timestamp time.Time) *Bid {
	return &Bid{
		ID:        id,
		LotID:     lotID,
		BidderID:  bidderID,
		Amount:    amount,
		Timestamp: timestamp,
		Leading:   true,
	}
}
