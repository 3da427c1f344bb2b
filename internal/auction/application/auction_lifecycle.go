package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// AuctionLifecycleUseCase drives the auction status transitions the auctioneer
// workflow owns: Scheduled -> Live -> Closed
type AuctionLifecycleUseCase struct {
	auctionRepo domain.AuctionRepository
	identity    domain.IdentityProvider
	txRunner    domain.TxRunner
	revenue     *RecomputeRevenueUseCase
}

func NewAuctionLifecycleUseCase(
	auctionRepo domain.AuctionRepository,
	identity domain.IdentityProvider,
	txRunner domain.TxRunner,
	revenue *RecomputeRevenueUseCase,
) *AuctionLifecycleUseCase {
	return &AuctionLifecycleUseCase{
		auctionRepo: auctionRepo,
		identity:    identity,
		txRunner:    txRunner,
		revenue:     revenue,
	}
}

// StartAuction moves a Scheduled auction to Live so its lots can be opened
func (uc *AuctionLifecycleUseCase) StartAuction(ctx context.Context, callerID, auctionID uuid.UUID) error {
	auction, err := uc.load(ctx, callerID, auctionID)
	if err != nil {
		return err
	}
	if err := auction.Start(); err != nil {
		return err
	}
	return uc.save(ctx, auction)
}

// CloseAuction moves a Live auction to Closed and recomputes the final total
func (uc *AuctionLifecycleUseCase) CloseAuction(ctx context.Context, callerID, auctionID uuid.UUID) error {
	auction, err := uc.load(ctx, callerID, auctionID)
	if err != nil {
		return err
	}
	if err := auction.Close(); err != nil {
		return err
	}
	if err := uc.save(ctx, auction); err != nil {
		return err
	}
	if _, revErr := uc.revenue.Execute(ctx, auctionID); revErr != nil {
		log.Error("CloseAuction: final revenue recompute failed",
			zap.String("auctionID", auctionID.String()),
			zap.Error(revErr),
		)
	}
	return nil
}

func (uc *AuctionLifecycleUseCase) load(ctx context.Context, callerID, auctionID uuid.UUID) (*domain.Auction, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("auction lifecycle: load auction %s: %w", auctionID, err)
	}
	ok, err := uc.identity.HasAuctioneerRole(ctx, callerID, auctionID)
	if err != nil {
		return nil, fmt.Errorf("auction lifecycle: role check for %s: %w", callerID, err)
	}
	if !ok {
		return nil, domain.ErrNotAuctioneer
	}
	return auction, nil
}

func (uc *AuctionLifecycleUseCase) save(ctx context.Context, auction *domain.Auction) error {
	err := uc.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		return uc.auctionRepo.Save(ctx, tx, auction)
	})
	if err != nil {
		return fmt.Errorf("auction lifecycle: save auction %s: %w", auction.ID, err)
	}
	return nil
}
