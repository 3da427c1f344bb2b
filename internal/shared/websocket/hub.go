package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/cristianortiz/benefitauction/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Buffer of the hub broadcast queue. Publishing is decoupled from the
	// request/response cycle, a full queue drops the message (at-most-once,
	// no replay) instead of blocking a commit.
	broadcastBuffer = 256
)

// Hub keeps the registry of spectator connections grouped by topic and fans
// broadcast messages out to every subscriber of a topic. Topics are
// "auction-{id}" for auction-wide events and "lot-{id}" for finer lot-scoped
// subscriptions. Delivery is best-effort and FIFO per topic, a late joiner
// gets no backfill and must query current state over the HTTP API.
type Hub struct {
	// Registered clients grouped by topic.
	clients map[string]map[*Client]bool
	// Outbound messages queued for fanout.
	broadcast chan *Message
	// Register requests from the clients.
	register chan *Client
	// Unregister requests from clients.
	unregister chan *Client
	// InboundMessages is listened to by module-specific handlers (e.g. the
	// auction bid handler)
	InboundMessages chan *ClientMessage
}

// Client represents one ws connection subscribed to a single topic
type Client struct {
	Hub *Hub
	// The websocket connection.
	Conn *websocket.Conn
	// Buffered channel of outbound messages. Written only through TrySend,
	// closed only through closeSend: handler goroutines and the hub send
	// concurrently, an unguarded send racing the close would panic.
	Send chan []byte
	// The topic this client is subscribed to.
	Topic string
	// Unique identifier for the client
	ID string

	mu     sync.Mutex
	closed bool
}

// TrySend queues data for the client. Returns false without blocking when the
// channel is already closed or the client is not keeping up.
func (c *Client) TrySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

type Message struct {
	Topic string
	Data  []byte
}

// ClientMessage wraps the client and the raw inbound payload so handlers know
// who sent what
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan *Message, broadcastBuffer),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		clients:         make(map[string]map[*Client]bool),
		InboundMessages: make(chan *ClientMessage, broadcastBuffer),
	}
}

// Run starts the hub listening in their channels
func (h *Hub) Run(ctx context.Context) {
	log.Info("Websocket Hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("WebSocket Hub shutting down due to context cancellation")
			return
		case client := <-h.register:
			if _, ok := h.clients[client.Topic]; !ok {
				h.clients[client.Topic] = make(map[*Client]bool)
			}
			h.clients[client.Topic][client] = true
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("topic", client.Topic),
				zap.Int("topic_clients", len(h.clients[client.Topic])),
			)

		case client := <-h.unregister:
			if clients, ok := h.clients[client.Topic]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					client.closeSend()
					log.Info("Client unregistered",
						zap.String("clientID", client.ID),
						zap.String("topic", client.Topic),
					)
					if len(clients) == 0 {
						delete(h.clients, client.Topic)
						log.Debug("Topic group removed as empty", zap.String("topic", client.Topic))
					}
				}
			}

		case message := <-h.broadcast:
			if clients, ok := h.clients[message.Topic]; ok {
				log.Debug("Broadcasting message to topic",
					zap.String("topic", message.Topic),
					zap.Int("clients", len(clients)))
				for client := range clients {
					if !client.TrySend(message.Data) {
						// client not keeping up, probably disconnected
						client.closeSend()
						delete(clients, client)
						log.Warn("Failed to send message to client, unregistering",
							zap.String("clientID", client.ID),
							zap.String("topic", client.Topic),
						)
					}
				}
			}
		}
	}
}

// RegisterClient register a new client in the hub
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
		log.Debug("Client queued for registration",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
		_ = client.Conn.Close()
	}
}

// UnregisterClient delete a client from the hub
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		// the client is probably already closing, nothing else to do
		log.Debug("Unregister channel full",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
	}
}

// BroadcastToTopic queues a message for every client subscribed to topic.
// Best-effort: when the queue is full the message is dropped and logged,
// subscribers resynchronize via direct query.
func (h *Hub) BroadcastToTopic(topic string, data []byte) {
	select {
	case h.broadcast <- &Message{Topic: topic, Data: data}:
		log.Debug("Message queued for broadcast", zap.String("topic", topic))
	default:
		log.Error("Broadcast channel is full, message dropped", zap.String("topic", topic))
	}
}

// ReadPump reads messages from the ws client and forwards them to the hub
// inbound channel. Runs as one goroutine per client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("ReadPump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("topic", c.Topic),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
			}
			break
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			// handlers are not keeping up, drop rather than block the pump
			log.Error("Hub InboundMessages channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("topic", c.Topic),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection. One
// goroutine per connection, the single writer to that connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("WritePump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("topic", c.Topic),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			err := c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			if err != nil {
				log.Error("Failed to send close control message",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
			}
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
