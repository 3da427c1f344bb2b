package websocket

import (
	"github.com/cristianortiz/benefitauction/internal/auction/application"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientBid          MessageType = "client_bid"           // client msg to submit a bid
	MessageTypeServerError        MessageType = "server_error"         // server msg indicating error
	MessageTypeServerInfo         MessageType = "server_info"          // server msg with general info
	MessageTypeServerInitialState MessageType = "server_initial_state" // lot state sent to a late joiner on connect
)

// BaseMessage is base struct for all the WS messages, includes a Type field for identify the message type
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is the DTO for a bid submission sended by the client over
// the socket. BidderID is explicit in the payload, arbitration never infers
// the caller from the connection.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		LotID    uuid.UUID       `json:"lot_id"`
		BidderID uuid.UUID       `json:"bidder_id"`
		Amount   decimal.Decimal `json:"amount"`
	} `json:"payload"`
}

// BidOutcomeMessage answers the submitting client directly, the NewBid fanout
// to spectators happens through the publisher after commit
type BidOutcomeMessage struct {
	BaseMessage
	Payload struct {
		Accepted   bool                       `json:"accepted"`
		Message    string                     `json:"message"`
		LeadingBid *application.LeadingBidDTO `json:"leading_bid,omitempty"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string `json:"error"`
	} `json:"payload"`
}

// ServerInitialStateMessage carries the current lot state to a client at
// connect time, the channel itself has no backfill or replay
type ServerInitialStateMessage struct {
	BaseMessage
	Payload *application.LotStateDTO `json:"payload"`
}
