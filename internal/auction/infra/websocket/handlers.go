package websocket

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cristianortiz/benefitauction/internal/auction/application"
	"github.com/cristianortiz/benefitauction/internal/shared/logger"
	sharedws "github.com/cristianortiz/benefitauction/internal/shared/websocket"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler handles the ws inbound msgs wich are specific for the
// auction module and the spectator connection lifecycle
type AuctionWSHandler struct {
	auctionService application.AuctionService // application layer dependency
	hub            *sharedws.Hub              // shared hub dependency
}

// NewAuctionWSHandler creates a new instance of AuctionWSHandler
func NewAuctionWSHandler(auctionService application.AuctionService, hub *sharedws.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
	}
}

// ServeConnection returns the fiber websocket handler for GET /ws/:topic.
// Topics are "auction-{id}" or "lot-{id}". A client joining a lot topic gets
// the current lot state pushed once, everything after that are forward deltas
// only.
func (h *AuctionWSHandler) ServeConnection(ctx context.Context) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		topic := conn.Params("topic")
		if !validTopic(topic) {
			log.Warn("WS connection rejected: invalid topic", zap.String("topic", topic))
			_ = conn.Close()
			return
		}

		client := &sharedws.Client{
			Hub:   h.hub,
			Conn:  conn,
			Send:  make(chan []byte, 64),
			Topic: topic,
			ID:    uuid.NewString(),
		}
		h.hub.RegisterClient(client)

		if lotID, ok := lotIDFromTopic(topic); ok {
			h.sendInitialState(ctx, client, lotID)
		}

		go client.WritePump(ctx)
		// keep the fiber handler goroutine as the read pump, the connection
		// closes when it returns
		client.ReadPump(ctx)
	}
}

// ListenForMessages starts a loop consuming the hub inbound channel and
// dispatching every client message
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

// processMesssage dispatch the message by this type
func (h *AuctionWSHandler) processMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBidMessage(ctx, client, data)
	default:
		h.sendErrorToClient(client, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleClientBidMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "invalid bid message format")
		return
	}

	// a bid over a lot topic must target that same lot
	if lotID, ok := lotIDFromTopic(client.Topic); ok && lotID != bidMsg.Payload.LotID {
		h.sendErrorToClient(client, "lot ID mismatch")
		return
	}

	cmd := application.SubmitBidDTO{
		LotID:    bidMsg.Payload.LotID,
		BidderID: bidMsg.Payload.BidderID,
		Amount:   bidMsg.Payload.Amount,
	}

	outcome := BidOutcomeMessage{BaseMessage: BaseMessage{Type: MessageTypeServerInfo}}
	result, err := h.auctionService.SubmitBid(ctx, cmd)
	if err != nil {
		// rejection reasons (too low, outbid, not live...) go back to the
		// submitting client only, spectators never see rejected bids
		outcome.Payload.Accepted = false
		outcome.Payload.Message = err.Error()
	} else {
		outcome.Payload.Accepted = true
		outcome.Payload.Message = "bid accepted"
		outcome.Payload.LeadingBid = &result.LeadingBid
	}
	h.sendToClient(client, outcome)
}

func (h *AuctionWSHandler) sendInitialState(ctx context.Context, client *sharedws.Client, lotID uuid.UUID) {
	state, err := h.auctionService.GetLotState(ctx, lotID)
	if err != nil {
		log.Warn("failed to load initial lot state for ws client",
			zap.String("lotID", lotID.String()),
			zap.Error(err),
		)
		return
	}
	h.sendToClient(client, ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
		Payload:     state,
	})
}

// sendErrorToClient serializes and sends an error msg to a specific client
func (h *AuctionWSHandler) sendErrorToClient(client *sharedws.Client, errorMessage string) {
	errMsg := ServerErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeServerError}}
	errMsg.Payload.Error = errorMessage
	h.sendToClient(client, errMsg)
}

func (h *AuctionWSHandler) sendToClient(client *sharedws.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal ws message", zap.Error(err))
		return
	}
	if !client.TrySend(data) {
		log.Warn("client send channel full or closed, dropping message",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
	}
}

func validTopic(topic string) bool {
	_, isLot := lotIDFromTopic(topic)
	if isLot {
		return true
	}
	if id, found := strings.CutPrefix(topic, "auction-"); found {
		_, err := uuid.Parse(id)
		return err == nil
	}
	return false
}

func lotIDFromTopic(topic string) (uuid.UUID, bool) {
	id, found := strings.CutPrefix(topic, "lot-")
	if !found {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}
