package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAuctionDTO is the input for auction creation, CallerID becomes the
// owning auctioneer
type CreateAuctionDTO struct {
	CallerID    uuid.UUID
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
}

type CreateLotDTO struct {
	CallerID     uuid.UUID
	AuctionID    uuid.UUID
	Number       int
	Title        string
	DonorName    string
	Description  string
	InitialValue decimal.Decimal
	FloorValue   decimal.Decimal
}

// AuctionSetupUseCase owns auction and lot creation, the workflow that runs
// before bidding starts. Creation needs no per-lot lock or revision guard:
// nothing contends on a row that does not exist yet.
type AuctionSetupUseCase struct {
	lotRepo     domain.LotRepository
	auctionRepo domain.AuctionRepository
	identity    domain.IdentityProvider
}

func NewAuctionSetupUseCase(
	lotRepo domain.LotRepository,
	auctionRepo domain.AuctionRepository,
	identity domain.IdentityProvider,
) *AuctionSetupUseCase {
	return &AuctionSetupUseCase{
		lotRepo:     lotRepo,
		auctionRepo: auctionRepo,
		identity:    identity,
	}
}

// CreateAuction registers a new Scheduled auction owned by the caller. The
// caller must hold the auctioneer or admin role.
func (uc *AuctionSetupUseCase) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	if cmd.Title == "" {
		return nil, domain.ErrInvalidSetupData
	}
	ok, err := uc.identity.IsAuctioneer(ctx, cmd.CallerID)
	if err != nil {
		return nil, fmt.Errorf("create auction: role check for %s: %w", cmd.CallerID, err)
	}
	if !ok {
		return nil, domain.ErrNotAuctioneer
	}

	auction := domain.NewAuction(uuid.New(), cmd.CallerID, cmd.Title, cmd.Description, cmd.StartsAt, cmd.EndsAt)
	if err := uc.auctionRepo.Create(ctx, auction); err != nil {
		return nil, fmt.Errorf("create auction: %w", err)
	}

	log.Info("Auction created",
		zap.String("auctionID", auction.ID.String()),
		zap.String("auctioneerID", cmd.CallerID.String()),
		zap.String("title", cmd.Title),
	)
	return auction, nil
}

// CreateLot adds an Open lot to an auction that is not yet closed. Guarded by
// the auctioneer role against the owning auction.
func (uc *AuctionSetupUseCase) CreateLot(ctx context.Context, cmd CreateLotDTO) (*domain.Lot, error) {
	if cmd.Title == "" || !cmd.FloorValue.IsPositive() {
		return nil, domain.ErrInvalidSetupData
	}

	auction, err := uc.auctionRepo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("create lot: load auction %s: %w", cmd.AuctionID, err)
	}
	ok, err := uc.identity.HasAuctioneerRole(ctx, cmd.CallerID, cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("create lot: role check for %s: %w", cmd.CallerID, err)
	}
	if !ok {
		return nil, domain.ErrNotAuctioneer
	}
	if auction.Status == domain.AuctionStatusClosed {
		return nil, domain.ErrInvalidAuctionStatus
	}

	lot := domain.NewLot(uuid.New(), cmd.AuctionID, cmd.Number, cmd.Title, cmd.DonorName, cmd.Description, cmd.InitialValue, cmd.FloorValue)
	if err := uc.lotRepo.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("create lot: %w", err)
	}

	log.Info("Lot created",
		zap.String("lotID", lot.ID.String()),
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.Int("number", cmd.Number),
	)
	return lot, nil
}
