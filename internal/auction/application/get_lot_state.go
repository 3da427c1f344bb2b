package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotStateDTO is the output DTO for exposing lot state to the UI/WS. A late
// spectator queries this instead of expecting event replay.
type LotStateDTO struct {
	LotID         uuid.UUID       `json:"lot_id"`
	AuctionID     uuid.UUID       `json:"auction_id"`
	Number        int             `json:"number"`
	Title         string          `json:"title"`
	DonorName     string          `json:"donor_name"`
	Description   string          `json:"description"`
	InitialValue  decimal.Decimal `json:"initial_value"`
	FloorValue    decimal.Decimal `json:"floor_value"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	NextMinimum   decimal.Decimal `json:"next_minimum"`
	Status        string          `json:"status"`
	Visible       bool            `json:"visible"`
	LeadingBid    *LeadingBidDTO  `json:"leading_bid,omitempty"`
}

// BidHistoryEntryDTO is one ledger entry, history is returned descending by
// time with the per-lot sequence as deterministic tiebreak
type BidHistoryEntryDTO struct {
	BidID     uuid.UUID       `json:"bid_id"`
	LotID     uuid.UUID       `json:"lot_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Leading   bool            `json:"leading"`
}

// AuctionDetailDTO exposes the auction with its derived revenue, recomputed
// on demand for this fetch rather than read from the persisted column
type AuctionDetailDTO struct {
	AuctionID          uuid.UUID       `json:"auction_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Status             string          `json:"status"`
	StartsAt           time.Time       `json:"starts_at"`
	EndsAt             time.Time       `json:"ends_at"`
	AccumulatedRevenue decimal.Decimal `json:"accumulated_revenue"`
	Lots               []*LotStateDTO  `json:"lots"`
}

// GetLotStateUseCase retrieves the current state of an auction lot and the
// surrounding read queries of the engine
type GetLotStateUseCase struct {
	lotRepo     domain.LotRepository
	bidRepo     domain.BidRepository
	auctionRepo domain.AuctionRepository
	identity    domain.IdentityProvider
	revenue     *RecomputeRevenueUseCase
}

// NewGetLotStateUseCase creates a new instance of GetLotStateUseCase.
func NewGetLotStateUseCase(
	lotRepo domain.LotRepository,
	bidRepo domain.BidRepository,
	auctionRepo domain.AuctionRepository,
	identity domain.IdentityProvider,
	revenue *RecomputeRevenueUseCase,
) *GetLotStateUseCase {
	return &GetLotStateUseCase{
		lotRepo:     lotRepo,
		bidRepo:     bidRepo,
		auctionRepo: auctionRepo,
		identity:    identity,
		revenue:     revenue,
	}
}

func (uc *GetLotStateUseCase) Execute(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error) {
	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	dto := uc.lotToDTO(lot)

	leading, err := uc.bidRepo.GetLeadingByLotID(ctx, lotID)
	if err == nil && leading != nil {
		name, _ := uc.identity.DisplayName(ctx, leading.BidderID)
		dto.LeadingBid = &LeadingBidDTO{
			Amount:            leading.Amount,
			BidderDisplayName: name,
			Timestamp:         leading.Timestamp,
		}
	}

	return dto, nil
}

// GetLotBids returns the full per-lot history, most recent first
func (uc *GetLotStateUseCase) GetLotBids(ctx context.Context, lotID uuid.UUID) ([]*BidHistoryEntryDTO, error) {
	bids, err := uc.bidRepo.GetBidsByLotID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("get lot bids for %s: %w", lotID, err)
	}
	return bidsToDTOs(bids), nil
}

// GetBidderBids returns one bidder's history across every lot
func (uc *GetLotStateUseCase) GetBidderBids(ctx context.Context, bidderID uuid.UUID) ([]*BidHistoryEntryDTO, error) {
	bids, err := uc.bidRepo.GetBidsByBidderID(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("get bidder bids for %s: %w", bidderID, err)
	}
	return bidsToDTOs(bids), nil
}

// GetAuctionDetail returns the auction with all its lots and the revenue
// evaluated on demand as a pure derived query
func (uc *GetLotStateUseCase) GetAuctionDetail(ctx context.Context, auctionID uuid.UUID) (*AuctionDetailDTO, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	lots, err := uc.lotRepo.GetByAuctionID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get auction detail: load lots of %s: %w", auctionID, err)
	}
	total, err := uc.revenue.Query(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	dto := &AuctionDetailDTO{
		AuctionID:          auction.ID,
		Title:              auction.Title,
		Description:        auction.Description,
		Status:             string(auction.Status),
		StartsAt:           auction.StartsAt,
		EndsAt:             auction.EndsAt,
		AccumulatedRevenue: total,
		Lots:               make([]*LotStateDTO, 0, len(lots)),
	}
	for _, lot := range lots {
		dto.Lots = append(dto.Lots, uc.lotToDTO(lot))
	}
	return dto, nil
}

func (uc *GetLotStateUseCase) lotToDTO(lot *domain.Lot) *LotStateDTO {
	return &LotStateDTO{
		LotID:         lot.ID,
		AuctionID:     lot.AuctionID,
		Number:        lot.Number,
		Title:         lot.Title,
		DonorName:     lot.DonorName,
		Description:   lot.Description,
		InitialValue:  lot.InitialValue,
		FloorValue:    lot.FloorValue,
		CurrentAmount: lot.CurrentAmount,
		NextMinimum:   lot.NextMinimum,
		Status:        string(lot.Status),
		Visible:       lot.Visible,
	}
}

func bidsToDTOs(bids []*domain.Bid) []*BidHistoryEntryDTO {
	dtos := make([]*BidHistoryEntryDTO, 0, len(bids))
	for _, bid := range bids {
		dtos = append(dtos, &BidHistoryEntryDTO{
			BidID:     bid.ID,
			LotID:     bid.LotID,
			BidderID:  bid.BidderID,
			Amount:    bid.Amount,
			Timestamp: bid.Timestamp,
			Leading:   bid.Leading,
		})
	}
	return dtos
}
