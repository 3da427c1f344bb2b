package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/benefitauction/internal/auction/application"
	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	auctionws "github.com/cristianortiz/benefitauction/internal/auction/infra/websocket"
	"github.com/cristianortiz/benefitauction/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Handler exposes the auction application service over REST, plus the ws
// upgrade endpoint for spectators
type Handler struct {
	service application.AuctionService
	ws      *auctionws.AuctionWSHandler
}

func NewHandler(service application.AuctionService, ws *auctionws.AuctionWSHandler) *Handler {
	return &Handler{service: service, ws: ws}
}

// RegisterRoutes wires every endpoint into the fiber app
func (h *Handler) RegisterRoutes(ctx context.Context, app *fiber.App) {
	api := app.Group("/api")

	api.Post("/auctions", h.createAuction)
	api.Post("/auctions/:id/lots", h.createLot)

	api.Post("/lots/:id/bids", h.submitBid)
	api.Post("/lots/:id/open", h.openLot)
	api.Post("/lots/:id/close", h.closeLot)
	api.Delete("/lots/:id", h.deleteLot)
	api.Get("/lots/:id", h.getLotState)
	api.Get("/lots/:id/bids", h.getLotBids)

	api.Post("/auctions/:id/start", h.startAuction)
	api.Post("/auctions/:id/close", h.closeAuction)
	api.Get("/auctions/:id", h.getAuctionDetail)

	api.Get("/bidders/:id/bids", h.getBidderBids)

	// ws upgrade for spectators, topic = auction-{id} | lot-{id}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:topic", websocket.New(h.ws.ServeConnection(ctx)))
}

type submitBidRequest struct {
	BidderID uuid.UUID       `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type bidResponse struct {
	Accepted   bool                       `json:"accepted"`
	Message    string                     `json:"message"`
	LeadingBid *application.LeadingBidDTO `json:"leading_bid,omitempty"`
}

func (h *Handler) submitBid(c *fiber.Ctx) error {
	lotID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid lot id")
	}
	var req submitBidRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.SubmitBid(c.Context(), application.SubmitBidDTO{
		LotID:    lotID,
		BidderID: req.BidderID,
		Amount:   req.Amount,
	})
	if err != nil {
		return c.Status(statusForError(err)).JSON(bidResponse{
			Accepted: false,
			Message:  err.Error(),
		})
	}
	return c.JSON(bidResponse{
		Accepted:   true,
		Message:    "bid accepted",
		LeadingBid: &result.LeadingBid,
	})
}

type auctioneerActionRequest struct {
	CallerID uuid.UUID `json:"caller_id"`
}

type createAuctionRequest struct {
	CallerID    uuid.UUID `json:"caller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

type createLotRequest struct {
	CallerID     uuid.UUID       `json:"caller_id"`
	Number       int             `json:"number"`
	Title        string          `json:"title"`
	DonorName    string          `json:"donor_name"`
	Description  string          `json:"description"`
	InitialValue decimal.Decimal `json:"initial_value"`
	FloorValue   decimal.Decimal `json:"floor_value"`
}

func (h *Handler) createAuction(c *fiber.Ctx) error {
	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	auction, err := h.service.CreateAuction(c.Context(), application.CreateAuctionDTO{
		CallerID:    req.CallerID,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "auction_id": auction.ID})
}

func (h *Handler) createLot(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req createLotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	lot, err := h.service.CreateLot(c.Context(), application.CreateLotDTO{
		CallerID:     req.CallerID,
		AuctionID:    auctionID,
		Number:       req.Number,
		Title:        req.Title,
		DonorName:    req.DonorName,
		Description:  req.Description,
		InitialValue: req.InitialValue,
		FloorValue:   req.FloorValue,
	})
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "lot_id": lot.ID})
}

type closeLotRequest struct {
	CallerID uuid.UUID `json:"caller_id"`
	Sold     bool      `json:"sold"`
}

func (h *Handler) openLot(c *fiber.Ctx) error {
	lotID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid lot id")
	}
	var req auctioneerActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.service.OpenLot(c.Context(), req.CallerID, lotID); err != nil {
		return failure(c, err)
	}
	return success(c)
}

func (h *Handler) closeLot(c *fiber.Ctx) error {
	lotID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid lot id")
	}
	var req closeLotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.service.CloseLot(c.Context(), req.CallerID, lotID, req.Sold); err != nil {
		return failure(c, err)
	}
	return success(c)
}

func (h *Handler) deleteLot(c *fiber.Ctx) error {
	lotID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid lot id")
	}
	callerID, err := uuid.Parse(c.Query("caller_id"))
	if err != nil {
		return badRequest(c, "invalid caller id")
	}
	if err := h.service.DeleteLot(c.Context(), callerID, lotID); err != nil {
		return failure(c, err)
	}
	return success(c)
}

func (h *Handler) startAuction(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req auctioneerActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.service.StartAuction(c.Context(), req.CallerID, auctionID); err != nil {
		return failure(c, err)
	}
	return success(c)
}

func (h *Handler) closeAuction(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req auctioneerActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.service.CloseAuction(c.Context(), req.CallerID, auctionID); err != nil {
		return failure(c, err)
	}
	return success(c)
}

func (h *Handler) getLotState(c *fiber.Ctx) error {
	lotID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid lot id")
	}
	state, err := h.service.GetLotState(c.Context(), lotID)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(state)
}

func (h *Handler) getLotBids(c *fiber.Ctx) error {
	lotID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid lot id")
	}
	bids, err := h.service.GetLotBids(c.Context(), lotID)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(bids)
}

func (h *Handler) getBidderBids(c *fiber.Ctx) error {
	bidderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid bidder id")
	}
	bids, err := h.service.GetBidderBids(c.Context(), bidderID)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(bids)
}

func (h *Handler) getAuctionDetail(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	detail, err := h.service.GetAuctionDetail(c.Context(), auctionID)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(detail)
}

func success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": msg})
}

func failure(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "message": err.Error()})
}

// statusForError maps domain failures onto HTTP statuses. Concurrency
// conflicts are 409 and retryable, business rule violations are 409/422 and
// must be corrected before resubmitting, authorization failures are 403 and
// never retried.
func statusForError(err error) int {
	var tooLow *domain.BidTooLowError
	switch {
	case errors.Is(err, domain.ErrLotNotFound), errors.Is(err, domain.ErrAuctionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrBidderIneligible), errors.Is(err, domain.ErrNotAuctioneer):
		return fiber.StatusForbidden
	case errors.As(err, &tooLow),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSetupData):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConcurrencyConflict),
		errors.Is(err, domain.ErrAuctionNotLive),
		errors.Is(err, domain.ErrLotNotBiddable),
		errors.Is(err, domain.ErrLotAlreadyFinished),
		errors.Is(err, domain.ErrNoLeadingBid),
		errors.Is(err, domain.ErrLotNotDeletable),
		errors.Is(err, domain.ErrInvalidAuctionStatus):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
