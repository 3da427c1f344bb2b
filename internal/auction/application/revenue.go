package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecomputeRevenueUseCase derives an auction's accumulated revenue from its
// sold lot rows. Always a full recompute from source data, never an
// incremental adjustment of a cached counter: manual lot edits and deletions
// can desynchronize a cached total silently, a recompute cannot.
type RecomputeRevenueUseCase struct {
	lotRepo     domain.LotRepository
	auctionRepo domain.AuctionRepository
	txRunner    domain.TxRunner
	publisher   domain.EventPublisher
}

func NewRecomputeRevenueUseCase(
	lotRepo domain.LotRepository,
	auctionRepo domain.AuctionRepository,
	txRunner domain.TxRunner,
	publisher domain.EventPublisher,
) *RecomputeRevenueUseCase {
	return &RecomputeRevenueUseCase{
		lotRepo:     lotRepo,
		auctionRepo: auctionRepo,
		txRunner:    txRunner,
		publisher:   publisher,
	}
}

// Query returns the derived total without persisting anything, used by read
// paths like the auction detail fetch. Idempotent by construction.
func (uc *RecomputeRevenueUseCase) Query(ctx context.Context, auctionID uuid.UUID) (decimal.Decimal, error) {
	total, err := uc.lotRepo.SumSoldAmounts(ctx, auctionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("recompute revenue: sum sold lots of auction %s: %w", auctionID, err)
	}
	return total, nil
}

// Execute recomputes, persists the total onto the auction row and publishes
// AuctionRevenueChanged. Triggered after every lot-close-as-sold, lot
// deletion and auction close.
func (uc *RecomputeRevenueUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (decimal.Decimal, error) {
	total, err := uc.Query(ctx, auctionID)
	if err != nil {
		return decimal.Zero, err
	}

	err = uc.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		return uc.auctionRepo.UpdateRevenue(ctx, tx, auctionID, total)
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("recompute revenue: persist total for auction %s: %w", auctionID, err)
	}

	uc.publisher.Publish(domain.AuctionTopic(auctionID), domain.EventAuctionRevenueChanged, domain.AuctionRevenueChangedEvent{
		AuctionID: auctionID,
		Total:     total,
	})

	log.Info("Auction revenue recomputed",
		zap.String("auctionID", auctionID.String()),
		zap.String("total", total.StringFixed(2)),
	)
	return total, nil
}
