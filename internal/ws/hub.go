package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"go-inventory-ledger/pkg/metrics"
)

// Topic names one audience. Every listener is attached to exactly one topic.
type Topic string

// CatalogTopic carries public product data for end users.
const CatalogTopic Topic = "catalog"

// CompanyTopic is the channel of one tenant's admins.
func CompanyTopic(companyID uint) Topic {
	return Topic(fmt.Sprintf("company:%d", companyID))
}

// Notification kinds
const (
	KindInventoryUpdate   = "inventoryUpdate"
	KindTransactionUpdate = "transactionUpdate"
	KindProductAdded      = "productAdded"
	KindProductUpdated    = "productUpdated"
)

// Envelope is the wire format of every notification.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Encode(kind string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Type: kind, Data: payload})
}

// Client is one listener. The hub writes to its queue; the connection's writer drains it.
type Client struct {
	topic Topic
	send  chan []byte
}

func (c *Client) Topic() Topic { return c.topic }

// Messages is closed when the hub drops the client.
func (c *Client) Messages() <-chan []byte { return c.send }

type message struct {
	topic Topic
	data  []byte
}

// Hub owns the client set in a single goroutine (Run). Publishing never blocks: a full
// hub queue drops the message and a full client queue drops the client.
type Hub struct {
	clients    map[Topic]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}

	sendBuffer int
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

func NewHub(sendBuffer int, log zerolog.Logger, m *metrics.Metrics) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		clients:    make(map[Topic]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
		log:        log,
		metrics:    m,
	}
}

// Run serves registrations and broadcasts until ctx is canceled, then closes every
// client queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					h.drop(c)
				}
			}
			return

		case c := <-h.register:
			set, ok := h.clients[c.topic]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.topic] = set
			}
			set[c] = struct{}{}
			h.metrics.ConnectionOpened()
			h.log.Debug().Str("topic", string(c.topic)).Msg("ws client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c.topic][c]; ok {
				h.drop(c)
			}

		case msg := <-h.broadcast:
			delivered := 0
			for c := range h.clients[msg.topic] {
				select {
				case c.send <- msg.data:
					delivered++
				default:
					h.log.Warn().Str("topic", string(c.topic)).Msg("ws client too slow, dropping")
					h.metrics.Dropped()
					h.drop(c)
				}
			}
			h.metrics.Delivered(delivered)
		}
	}
}

func (h *Hub) drop(c *Client) {
	set := h.clients[c.topic]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.topic)
	}
	h.metrics.ConnectionClosed()
	close(c.send)
}

// Register attaches a new listener to topic. After the hub has stopped the returned
// client's queue is already closed.
func (h *Hub) Register(topic Topic) *Client {
	c := &Client{topic: topic, send: make(chan []byte, h.sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
	return c
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish encodes an envelope and queues it for topic.
func (h *Hub) Publish(topic Topic, kind string, payload interface{}) {
	data, err := Encode(kind, payload)
	if err != nil {
		h.log.Error().Err(err).Str("kind", kind).Msg("encode notification")
		return
	}
	h.Deliver(topic, data)
}

// Deliver queues an already encoded envelope for topic.
func (h *Hub) Deliver(topic Topic, data []byte) {
	select {
	case h.broadcast <- message{topic: topic, data: data}:
	default:
		h.log.Warn().Str("topic", string(topic)).Msg("hub queue full, dropping notification")
		h.metrics.Dropped()
	}
}
