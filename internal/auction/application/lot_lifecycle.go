package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LotLifecycleUseCase drives the auctioneer side of the lot state machine:
// open for bidding, close as sold/unsold, delete while still untouched.
// Every action takes the caller explicitly and checks the auctioneer role
// against the owning auction.
type LotLifecycleUseCase struct {
	lotRepo     domain.LotRepository
	bidRepo     domain.BidRepository
	auctionRepo domain.AuctionRepository
	identity    domain.IdentityProvider
	txRunner    domain.TxRunner
	publisher   domain.EventPublisher
	revenue     *RecomputeRevenueUseCase
	locks       *LotLocker
}

func NewLotLifecycleUseCase(
	lotRepo domain.LotRepository,
	bidRepo domain.BidRepository,
	auctionRepo domain.AuctionRepository,
	identity domain.IdentityProvider,
	txRunner domain.TxRunner,
	publisher domain.EventPublisher,
	revenue *RecomputeRevenueUseCase,
	locks *LotLocker,
) *LotLifecycleUseCase {
	return &LotLifecycleUseCase{
		lotRepo:     lotRepo,
		bidRepo:     bidRepo,
		auctionRepo: auctionRepo,
		identity:    identity,
		txRunner:    txRunner,
		publisher:   publisher,
		revenue:     revenue,
		locks:       locks,
	}
}

// OpenLot moves an Open lot into Bidding via the explicit auctioneer action,
// the owning auction must already be live
func (uc *LotLifecycleUseCase) OpenLot(ctx context.Context, callerID, lotID uuid.UUID) error {
	release, err := uc.locks.Acquire(ctx, lotID)
	if err != nil {
		return err
	}
	defer release()

	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return fmt.Errorf("open lot: load lot %s: %w", lotID, err)
	}
	auction, err := uc.auctionRepo.GetByID(ctx, lot.AuctionID)
	if err != nil {
		return fmt.Errorf("open lot: load auction %s: %w", lot.AuctionID, err)
	}
	if err := uc.requireAuctioneer(ctx, callerID, auction.ID); err != nil {
		return err
	}
	if !auction.Live() {
		return domain.ErrAuctionNotLive
	}
	if err := lot.OpenForBidding(); err != nil {
		return err
	}

	err = uc.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		return uc.lotRepo.Save(ctx, tx, lot)
	})
	if err != nil {
		return fmt.Errorf("open lot: save lot %s: %w", lotID, err)
	}

	event := domain.LotOpenedEvent{LotID: lot.ID}
	uc.publisher.Publish(domain.LotTopic(lot.ID), domain.EventLotOpened, event)
	uc.publisher.Publish(domain.AuctionTopic(lot.AuctionID), domain.EventLotOpened, event)
	return nil
}

// CloseLot ends a Bidding lot. sold=true requires a leading bid and fixes the
// winner from it, then the owning auction revenue is recomputed. sold=false
// is allowed with no bids at all.
func (uc *LotLifecycleUseCase) CloseLot(ctx context.Context, callerID, lotID uuid.UUID, sold bool) error {
	release, err := uc.locks.Acquire(ctx, lotID)
	if err != nil {
		return err
	}
	defer release()

	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return fmt.Errorf("close lot: load lot %s: %w", lotID, err)
	}
	if err := uc.requireAuctioneer(ctx, callerID, lot.AuctionID); err != nil {
		return err
	}

	leading, err := uc.bidRepo.GetLeadingByLotID(ctx, lotID)
	if err != nil {
		return fmt.Errorf("close lot: load leading bid for %s: %w", lotID, err)
	}
	if err := lot.Close(sold, leading); err != nil {
		return err
	}

	err = uc.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		return uc.lotRepo.Save(ctx, tx, lot)
	})
	if err != nil {
		return fmt.Errorf("close lot: save lot %s: %w", lotID, err)
	}

	event := domain.LotClosedEvent{
		LotID:       lot.ID,
		Sold:        sold,
		FinalAmount: lot.CurrentAmount,
	}
	if sold && leading != nil {
		if name, nameErr := uc.identity.DisplayName(ctx, leading.BidderID); nameErr == nil {
			event.WinnerDisplayName = name
		} else {
			log.Warn("CloseLot: winner display name lookup failed",
				zap.String("bidderID", leading.BidderID.String()),
				zap.Error(nameErr),
			)
		}
	}
	uc.publisher.Publish(domain.LotTopic(lot.ID), domain.EventLotClosed, event)
	uc.publisher.Publish(domain.AuctionTopic(lot.AuctionID), domain.EventLotClosed, event)

	// a sold lot changes the derived total, unsold leaves it untouched
	if sold {
		if _, revErr := uc.revenue.Execute(ctx, lot.AuctionID); revErr != nil {
			// the lot close itself is committed, the recompute will run
			// again on the next trigger
			log.Error("CloseLot: revenue recompute failed",
				zap.String("auctionID", lot.AuctionID.String()),
				zap.Error(revErr),
			)
		}
	}
	return nil
}

// DeleteLot removes a lot from the setup, only permitted while the lot is
// still Open and has no bids. Removal changes what the revenue recompute can
// see, so the owning auction total is refreshed afterwards.
func (uc *LotLifecycleUseCase) DeleteLot(ctx context.Context, callerID, lotID uuid.UUID) error {
	release, err := uc.locks.Acquire(ctx, lotID)
	if err != nil {
		return err
	}
	defer release()

	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return fmt.Errorf("delete lot: load lot %s: %w", lotID, err)
	}
	if err := uc.requireAuctioneer(ctx, callerID, lot.AuctionID); err != nil {
		return err
	}

	bidCount, err := uc.bidRepo.CountByLotID(ctx, lotID)
	if err != nil {
		return fmt.Errorf("delete lot: count bids for %s: %w", lotID, err)
	}
	if !lot.Deletable(bidCount) {
		return domain.ErrLotNotDeletable
	}

	err = uc.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		return uc.lotRepo.Delete(ctx, tx, lotID)
	})
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}

	log.Info("Lot deleted",
		zap.String("lotID", lotID.String()),
		zap.String("auctionID", lot.AuctionID.String()),
	)

	if _, revErr := uc.revenue.Execute(ctx, lot.AuctionID); revErr != nil {
		log.Error("DeleteLot: revenue recompute failed",
			zap.String("auctionID", lot.AuctionID.String()),
			zap.Error(revErr),
		)
	}
	return nil
}

func (uc *LotLifecycleUseCase) requireAuctioneer(ctx context.Context, callerID, auctionID uuid.UUID) error {
	ok, err := uc.identity.HasAuctioneerRole(ctx, callerID, auctionID)
	if err != nil {
		return fmt.Errorf("auctioneer role check for %s: %w", callerID, err)
	}
	if !ok {
		log.Warn("Auctioneer action rejected: caller lacks role",
			zap.String("callerID", callerID.String()),
			zap.String("auctionID", auctionID.String()),
		)
		return domain.ErrNotAuctioneer
	}
	return nil
}
