package websocket

import (
	"encoding/json"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	sharedws "github.com/cristianortiz/benefitauction/internal/shared/websocket"
	"go.uber.org/zap"
)

// EventEnvelope is the wire shape for every server-pushed event
type EventEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// HubPublisher implements domain.EventPublisher on the shared hub. Best
// effort by contract: a marshal or queue failure after a successful commit is
// logged and swallowed, the persisted record remains the source of truth and
// late subscribers resynchronize via direct query.
type HubPublisher struct {
	hub *sharedws.Hub
}

func NewHubPublisher(hub *sharedws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(topic string, eventType domain.EventType, payload any) {
	data, err := json.Marshal(EventEnvelope{Type: string(eventType), Payload: payload})
	if err != nil {
		log.Error("HubPublisher: failed to marshal event",
			zap.String("topic", topic),
			zap.String("eventType", string(eventType)),
			zap.Error(err),
		)
		return
	}
	p.hub.BroadcastToTopic(topic, data)
}
