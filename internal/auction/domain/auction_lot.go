package domain

import (
	"time"

	"github.com/cristianortiz/benefitauction/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// LotStatus represents the actual state of an auction lot
type LotStatus string

const (
	LotStatusOpen    LotStatus = "open"    // visible, not yet accepting bids
	LotStatusBidding LotStatus = "bidding" // accepting bids
	LotStatusSold    LotStatus = "sold"    // terminal
	LotStatusUnsold  LotStatus = "unsold"  // terminal
)

// Lot is the aggregate the arbitrator contends on. Mutations go through the
// state methods below and are persisted with a revision-guarded write, a lost
// update surfaces as ErrConcurrencyConflict instead of a silent overwrite.
type Lot struct {
	ID              uuid.UUID
	AuctionID       uuid.UUID
	Number          int
	Title           string
	DonorName       string
	Description     string
	InitialValue    decimal.Decimal
	FloorValue      decimal.Decimal // minimum acceptable opening bid
	CurrentAmount   decimal.Decimal // leading bid amount, zero when no leader
	NextMinimum     decimal.Decimal
	WinningBidderID *uuid.UUID
	Status          LotStatus
	Visible         bool
	// Revision increases on every committed mutation, it is the optimistic
	// concurrency guard for the single-writer-per-lot discipline
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLot creates a lot in the Open state, the setup workflow owns creation
func NewLot(id, auctionID uuid.UUID, number int, title, donorName, description string, initialValue, floorValue decimal.Decimal) *Lot {
	return &Lot{
		ID:            id,
		AuctionID:     auctionID,
		Number:        number,
		Title:         title,
		DonorName:     donorName,
		Description:   description,
		InitialValue:  initialValue,
		FloorValue:    floorValue,
		CurrentAmount: decimal.Zero,
		NextMinimum:   floorValue,
		Status:        LotStatusOpen,
		Visible:       true,
	}
}

// Biddable reports whether the lot can accept a submission at all
func (l *Lot) Biddable() bool {
	return l.Status == LotStatusOpen || l.Status == LotStatusBidding
}

// RequiredMinimum is the floor every accepted bid must reach, computed from
// the current leading amount or the lot floor when nobody leads yet
func (l *Lot) RequiredMinimum() decimal.Decimal {
	return MinIncrement(l.CurrentAmount, l.FloorValue)
}

// ApplyBid validates the amount against the increment rule and mutates the
// lot to reflect the new leader. The first accepted bid moves an Open lot
// into Bidding implicitly, the explicit auctioneer OpenForBidding action is
// the other valid entry path.
func (l *Lot) ApplyBid(bidderID uuid.UUID, amount decimal.Decimal) error {
	if !l.Biddable() {
		log.Warn("Bid rejected: lot not biddable",
			zap.String("lotID", l.ID.String()),
			zap.String("status", string(l.Status)),
		)
		return ErrLotNotBiddable
	}

	required := l.RequiredMinimum()
	// a new leader must strictly exceed the current one; an opening bid may
	// match the floor exactly
	if l.CurrentAmount.IsPositive() && amount.Cmp(l.CurrentAmount) <= 0 {
		log.Warn("Bid rejected: amount does not exceed current leader",
			zap.String("lotID", l.ID.String()),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("currentAmount", l.CurrentAmount.StringFixed(2)),
		)
		return &BidTooLowError{MinimumRequired: required}
	}
	if amount.Cmp(required) < 0 {
		log.Warn("Bid rejected: amount below minimum increment",
			zap.String("lotID", l.ID.String()),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("minimumRequired", required.StringFixed(2)),
		)
		return &BidTooLowError{MinimumRequired: required}
	}

	l.CurrentAmount = amount
	l.NextMinimum = MinIncrement(amount, l.FloorValue)
	l.WinningBidderID = &bidderID
	if l.Status == LotStatusOpen {
		l.Status = LotStatusBidding
	}
	return nil
}

// OpenForBidding is the explicit auctioneer action moving Open -> Bidding.
// The caller must already have checked the owning auction is live.
func (l *Lot) OpenForBidding() error {
	if l.Status == LotStatusSold || l.Status == LotStatusUnsold {
		return ErrLotAlreadyFinished
	}
	if l.Status != LotStatusOpen {
		log.Warn("Attempted to open lot that is not open",
			zap.String("lotID", l.ID.String()),
			zap.String("status", string(l.Status)),
		)
		return ErrLotNotBiddable
	}
	l.Status = LotStatusBidding
	log.Info("Lot opened for bidding", zap.String("lotID", l.ID.String()))
	return nil
}

// Close ends a Bidding lot. Closing as sold requires an existing leading bid
// and fixes the winner from it, closing as unsold is permitted with no bids
// and leaves the winner unset. Both states are terminal.
func (l *Lot) Close(sold bool, leading *Bid) error {
	if l.Status != LotStatusBidding {
		log.Warn("Attempted to close lot that is not bidding",
			zap.String("lotID", l.ID.String()),
			zap.String("status", string(l.Status)),
		)
		if l.Status == LotStatusSold || l.Status == LotStatusUnsold {
			return ErrLotAlreadyFinished
		}
		return ErrLotNotBiddable
	}
	if sold {
		if leading == nil {
			return ErrNoLeadingBid
		}
		l.Status = LotStatusSold
		l.WinningBidderID = &leading.BidderID
		log.Info("Lot closed as sold",
			zap.String("lotID", l.ID.String()),
			zap.String("finalAmount", l.CurrentAmount.StringFixed(2)),
			zap.String("winnerID", leading.BidderID.String()),
		)
		return nil
	}
	l.Status = LotStatusUnsold
	l.WinningBidderID = nil
	log.Info("Lot closed as unsold", zap.String("lotID", l.ID.String()))
	return nil
}

// Deletable guards lot removal: only while Open and before any bid exists.
// Cascading removal of dependent records is an explicit operation of the
// setup workflow, never an implicit storage trigger.
func (l *Lot) Deletable(bidCount int64) bool {
	return l.Status == LotStatusOpen && bidCount == 0
}
