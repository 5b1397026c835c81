package websocket

import "github.com/rs/zerolog/log"

const queueSize = 256

type directMessage struct {
	userID  string
	message []byte
}

type replyMessage struct {
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and fans events out to them.
// All map access happens on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Clients grouped by the user they are signed in as.
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
	replies    chan replyMessage
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan []byte, queueSize),
		direct:        make(chan directMessage, queueSize),
		replies:       make(chan replyMessage, queueSize),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				h.send(client, message)
			}
		case dm := <-h.direct:
			for client := range h.subscriptions[dm.userID] {
				h.send(client, dm.message)
			}
		case rm := <-h.replies:
			if h.clients[rm.client] {
				h.send(rm.client, rm.message)
			}
		}
	}
}

// Stop ends the Run loop and closes every client's send queue.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client. It blocks until the hub accepts it.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// NotifyUser queues a message for every connection of one user.
func (h *Hub) NotifyUser(userID string, message []byte) {
	select {
	case h.direct <- directMessage{userID: userID, message: message}:
	default:
		log.Warn().Str("user_id", userID).Msg("Hub queue full, dropping user message")
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Warn().Msg("Hub queue full, dropping broadcast")
	}
}

// Reply queues a message for a single connection, such as the answer to a
// client request. It is dropped if the client has already gone away.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.replies <- replyMessage{client: client, message: message}:
	case <-h.done:
	}
}

// send delivers without blocking; a client that cannot keep up is dropped.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
}
