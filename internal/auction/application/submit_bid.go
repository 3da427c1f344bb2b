package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/cristianortiz/benefitauction/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// SubmitBidDTO is the input for the bid arbitration use case. BidderID is
// passed explicitly, the use case never reads a caller from ambient context.
type SubmitBidDTO struct {
	LotID    uuid.UUID
	BidderID uuid.UUID
	Amount   decimal.Decimal
}

// LeadingBidDTO is the accepted-leader view returned to the caller and
// included in responses
type LeadingBidDTO struct {
	Amount            decimal.Decimal `json:"amount"`
	BidderDisplayName string          `json:"bidder_display_name"`
	Timestamp         time.Time       `json:"timestamp"`
}

// BidResult is returned on an accepted submission
type BidResult struct {
	Bid        *domain.Bid
	Lot        *domain.Lot
	LeadingBid LeadingBidDTO
}

// SubmitBidUseCase is the bid arbitrator: it validates a submission against
// the ledger and the current lot state, commits it atomically as the new
// leader and publishes the resulting event after the commit is durable.
//
// Validation order, first failure wins: amount well formed -> per-lot lock ->
// lot exists -> owning auction is live -> lot accepts bids -> bidder is
// approved and active -> amount beats the leader and the increment rule.
type SubmitBidUseCase struct {
	lotRepo     domain.LotRepository
	bidRepo     domain.BidRepository
	auctionRepo domain.AuctionRepository
	identity    domain.IdentityProvider
	txRunner    domain.TxRunner
	publisher   domain.EventPublisher
	locks       *LotLocker
}

func NewSubmitBidUseCase(
	lotRepo domain.LotRepository,
	bidRepo domain.BidRepository,
	auctionRepo domain.AuctionRepository,
	identity domain.IdentityProvider,
	txRunner domain.TxRunner,
	publisher domain.EventPublisher,
	locks *LotLocker,
) *SubmitBidUseCase {
	return &SubmitBidUseCase{
		lotRepo:     lotRepo,
		bidRepo:     bidRepo,
		auctionRepo: auctionRepo,
		identity:    identity,
		txRunner:    txRunner,
		publisher:   publisher,
		locks:       locks,
	}
}

func (uc *SubmitBidUseCase) Execute(ctx context.Context, cmd SubmitBidDTO) (*BidResult, error) {
	log.Info("Executing SubmitBidUseCase",
		zap.String("lotID", cmd.LotID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.String("amount", cmd.Amount.StringFixed(2)),
	)

	if !cmd.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	// single-writer-per-lot: serialize commits against this lot, bounded
	// wait surfaces as a retryable conflict
	release, err := uc.locks.Acquire(ctx, cmd.LotID)
	if err != nil {
		log.Warn("SubmitBidUseCase: could not acquire lot lock",
			zap.String("lotID", cmd.LotID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	defer release()

	lot, err := uc.lotRepo.GetByID(ctx, cmd.LotID)
	if err != nil {
		return nil, fmt.Errorf("submit bid: load lot %s: %w", cmd.LotID, err)
	}

	auction, err := uc.auctionRepo.GetByID(ctx, lot.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("submit bid: load auction %s: %w", lot.AuctionID, err)
	}
	if !auction.Live() {
		return nil, domain.ErrAuctionNotLive
	}
	if !lot.Biddable() {
		return nil, domain.ErrLotNotBiddable
	}

	if err := uc.checkEligibility(ctx, cmd.BidderID); err != nil {
		return nil, err
	}

	// domain validation and lot mutation, the increment rule lives here
	if err := lot.ApplyBid(cmd.BidderID, cmd.Amount); err != nil {
		return nil, err
	}

	newBid := domain.NewBid(uuid.New(), lot.ID, cmd.BidderID, cmd.Amount, time.Now().UTC())

	// commit is all-or-nothing: flip the old leader, append the ledger entry
	// and persist the mutated lot under its revision guard in one tx
	err = uc.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := uc.bidRepo.ClearLeading(ctx, tx, lot.ID); err != nil {
			return fmt.Errorf("clear prior leading bid: %w", err)
		}
		if err := uc.bidRepo.Save(ctx, tx, newBid); err != nil {
			return fmt.Errorf("append bid: %w", err)
		}
		if err := uc.lotRepo.Save(ctx, tx, lot); err != nil {
			return fmt.Errorf("save lot: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			// lost the versioned write, report the fresh leading amount so
			// the bidder can decide to rebid, never silently supersede
			return nil, uc.outbidError(ctx, cmd.LotID, err)
		}
		log.Error("SubmitBidUseCase: commit failed",
			zap.String("lotID", cmd.LotID.String()),
			zap.String("bidderID", cmd.BidderID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	displayName := uc.bidderDisplayName(ctx, cmd.BidderID)

	// publish only after the commit is durable, a broadcast failure is the
	// publisher's problem to log, the persisted record stays source of truth
	event := domain.NewBidEvent{
		LotID:             lot.ID,
		Amount:            newBid.Amount,
		BidderDisplayName: displayName,
		Timestamp:         newBid.Timestamp,
	}
	uc.publisher.Publish(domain.LotTopic(lot.ID), domain.EventNewBid, event)
	uc.publisher.Publish(domain.AuctionTopic(lot.AuctionID), domain.EventNewBid, event)

	log.Info("Bid accepted",
		zap.String("lotID", lot.ID.String()),
		zap.String("bidID", newBid.ID.String()),
		zap.String("amount", newBid.Amount.StringFixed(2)),
		zap.String("nextMinimum", lot.NextMinimum.StringFixed(2)),
		zap.Int64("revision", lot.Revision),
	)

	return &BidResult{
		Bid: newBid,
		Lot: lot,
		LeadingBid: LeadingBidDTO{
			Amount:            newBid.Amount,
			BidderDisplayName: displayName,
			Timestamp:         newBid.Timestamp,
		},
	}, nil
}

func (uc *SubmitBidUseCase) checkEligibility(ctx context.Context, bidderID uuid.UUID) error {
	approved, err := uc.identity.IsApproved(ctx, bidderID)
	if err != nil {
		return fmt.Errorf("submit bid: identity lookup for %s: %w", bidderID, err)
	}
	active, err := uc.identity.IsActive(ctx, bidderID)
	if err != nil {
		return fmt.Errorf("submit bid: identity lookup for %s: %w", bidderID, err)
	}
	if !approved || !active {
		log.Warn("Bid rejected: bidder ineligible",
			zap.String("bidderID", bidderID.String()),
			zap.Bool("approved", approved),
			zap.Bool("active", active),
		)
		return domain.ErrBidderIneligible
	}
	return nil
}

// outbidError refetches the lot to tell the loser of a versioned-write race
// what the leading amount is now
func (uc *SubmitBidUseCase) outbidError(ctx context.Context, lotID uuid.UUID, conflict error) error {
	fresh, loadErr := uc.lotRepo.GetByID(ctx, lotID)
	if loadErr != nil {
		return conflict
	}
	return &domain.CurrentlyOutbidError{CurrentLeadingAmount: fresh.CurrentAmount}
}

func (uc *SubmitBidUseCase) bidderDisplayName(ctx context.Context, bidderID uuid.UUID) string {
	name, err := uc.identity.DisplayName(ctx, bidderID)
	if err != nil {
		log.Warn("SubmitBidUseCase: display name lookup failed",
			zap.String("bidderID", bidderID.String()),
			zap.Error(err),
		)
		return ""
	}
	return name
}
