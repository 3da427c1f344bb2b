package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrLotNotFound          = errors.New("auction lot not found")
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrAuctionNotLive       = errors.New("auction is not live")
	ErrLotNotBiddable       = errors.New("auction lot is not open for bidding")
	ErrBidderIneligible     = errors.New("bidder is not approved or not active")
	ErrInvalidAmount        = errors.New("bid amount cannot be zero or less than zero")
	ErrNoLeadingBid         = errors.New("lot has no leading bid")
	ErrLotNotDeletable      = errors.New("lot can only be deleted while open and without bids")
	ErrNotAuctioneer        = errors.New("caller does not hold the auctioneer role for this auction")
	ErrLotAlreadyFinished   = errors.New("auction lot is already sold or unsold")
	ErrInvalidAuctionStatus = errors.New("auction cannot transition from its current status")
	ErrInvalidSetupData     = errors.New("setup payload is missing required fields")
	// ErrConcurrencyConflict is retryable: the caller should refetch the
	// current leading amount and resubmit
	ErrConcurrencyConflict = errors.New("lot was modified concurrently, retry with fresh state")
)

// BidTooLowError carries the computed minimum so the client can correct
// and resubmit without an extra round trip
type BidTooLowError struct {
	MinimumRequired decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount is too low, minimum required is %s", e.MinimumRequired.StringFixed(2))
}

// CurrentlyOutbidError signals a submission that lost the per-lot race against
// a higher concurrent bid. It wraps ErrConcurrencyConflict so callers can
// detect the retryable case with errors.Is
type CurrentlyOutbidError struct {
	CurrentLeadingAmount decimal.Decimal
}

func (e *CurrentlyOutbidError) Error() string {
	return fmt.Sprintf("currently outbid, leading amount is %s", e.CurrentLeadingAmount.StringFixed(2))
}

func (e *CurrentlyOutbidError) Unwrap() error { return ErrConcurrencyConflict }
