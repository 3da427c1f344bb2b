package application

import (
	"context"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionService defines application interface layer of auction module,
// exposes the uses cases to the external layers, aka infra
type AuctionService interface {
	// SubmitBid arbitrates a bid submission for a lot, the core operation
	SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*BidResult, error)

	// setup workflow, runs before bidding starts
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error)
	CreateLot(ctx context.Context, cmd CreateLotDTO) (*domain.Lot, error)

	// auctioneer lot actions, callerID is always explicit
	OpenLot(ctx context.Context, callerID, lotID uuid.UUID) error
	CloseLot(ctx context.Context, callerID, lotID uuid.UUID, sold bool) error
	DeleteLot(ctx context.Context, callerID, lotID uuid.UUID) error

	// auctioneer auction actions
	StartAuction(ctx context.Context, callerID, auctionID uuid.UUID) error
	CloseAuction(ctx context.Context, callerID, auctionID uuid.UUID) error

	// read queries
	GetLotState(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error)
	GetLotBids(ctx context.Context, lotID uuid.UUID) ([]*BidHistoryEntryDTO, error)
	GetBidderBids(ctx context.Context, bidderID uuid.UUID) ([]*BidHistoryEntryDTO, error)
	GetAuctionDetail(ctx context.Context, auctionID uuid.UUID) (*AuctionDetailDTO, error)
}

// concrete implementation of AuctionService (struct)
type auctionService struct {
	submitBidUC        *SubmitBidUseCase
	setupUC            *AuctionSetupUseCase
	lotLifecycleUC     *LotLifecycleUseCase
	auctionLifecycleUC *AuctionLifecycleUseCase
	getLotStateUC      *GetLotStateUseCase
}

func NewAuctionService(
	submitBidUC *SubmitBidUseCase,
	setupUC *AuctionSetupUseCase,
	lotLifecycleUC *LotLifecycleUseCase,
	auctionLifecycleUC *AuctionLifecycleUseCase,
	getLotStateUC *GetLotStateUseCase,
) AuctionService {
	return &auctionService{
		submitBidUC:        submitBidUC,
		setupUC:            setupUC,
		lotLifecycleUC:     lotLifecycleUC,
		auctionLifecycleUC: auctionLifecycleUC,
		getLotStateUC:      getLotStateUC,
	}
}

// SubmitBid implements AuctionService.
func (as *auctionService) SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*BidResult, error) {
	return as.submitBidUC.Execute(ctx, cmd)
}

func (as *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	return as.setupUC.CreateAuction(ctx, cmd)
}

func (as *auctionService) CreateLot(ctx context.Context, cmd CreateLotDTO) (*domain.Lot, error) {
	return as.setupUC.CreateLot(ctx, cmd)
}

func (as *auctionService) OpenLot(ctx context.Context, callerID, lotID uuid.UUID) error {
	return as.lotLifecycleUC.OpenLot(ctx, callerID, lotID)
}

func (as *auctionService) CloseLot(ctx context.Context, callerID, lotID uuid.UUID, sold bool) error {
	return as.lotLifecycleUC.CloseLot(ctx, callerID, lotID, sold)
}

func (as *auctionService) DeleteLot(ctx context.Context, callerID, lotID uuid.UUID) error {
	return as.lotLifecycleUC.DeleteLot(ctx, callerID, lotID)
}

func (as *auctionService) StartAuction(ctx context.Context, callerID, auctionID uuid.UUID) error {
	return as.auctionLifecycleUC.StartAuction(ctx, callerID, auctionID)
}

func (as *auctionService) CloseAuction(ctx context.Context, callerID, auctionID uuid.UUID) error {
	return as.auctionLifecycleUC.CloseAuction(ctx, callerID, auctionID)
}

func (as *auctionService) GetLotState(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error) {
	return as.getLotStateUC.Execute(ctx, lotID)
}

func (as *auctionService) GetLotBids(ctx context.Context, lotID uuid.UUID) ([]*BidHistoryEntryDTO, error) {
	return as.getLotStateUC.GetLotBids(ctx, lotID)
}

func (as *auctionService) GetBidderBids(ctx context.Context, bidderID uuid.UUID) ([]*BidHistoryEntryDTO, error) {
	return as.getLotStateUC.GetBidderBids(ctx, bidderID)
}

func (as *auctionService) GetAuctionDetail(ctx context.Context, auctionID uuid.UUID) (*AuctionDetailDTO, error) {
	return as.getLotStateUC.GetAuctionDetail(ctx, auctionID)
}
