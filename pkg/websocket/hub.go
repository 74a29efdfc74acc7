package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub fans ride events out to connected passenger and driver clients. Clients
// react to pushed status changes; they never poll the store.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
}

type Event struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	UserID    primitive.ObjectID     `json:"user_id"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastEvent(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true

	// Every user gets a personal room; drivers additionally join the shared
	// drivers room where new searching rides are announced.
	h.joinRoom(client, "user_"+client.UserID.Hex())
	if client.UserType == "driver" {
		h.joinRoom(client, "drivers")
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		for roomID, room := range h.rooms {
			if _, exists := room[client]; exists {
				delete(room, client)
				if len(room) == 0 {
					delete(h.rooms, roomID)
				}
			}
		}
	}
}

func (h *Hub) broadcastEvent(message []byte) {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("Error unmarshaling event: %v", err)
		return
	}

	if event.RoomID != "" {
		h.sendToRoom(event.RoomID, event)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	data, _ := json.Marshal(event)
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) sendToRoom(roomID string, event Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, _ := json.Marshal(event)
	for client := range room {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
			delete(room, client)
		}
	}
}

// SendToUser pushes an event to a single user's personal room.
func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) {
	h.sendToRoom("user_"+userID.Hex(), event)
}

// SendRideUpdate pushes a ride event to everyone watching that ride.
func (h *Hub) SendRideUpdate(rideID primitive.ObjectID, event Event) {
	h.sendToRoom("ride_"+rideID.Hex(), event)
}

// SendToDrivers announces an event to all connected drivers.
func (h *Hub) SendToDrivers(event Event) {
	h.sendToRoom("drivers", event)
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// JoinRide subscribes a client to a ride's event room.
func (h *Hub) JoinRide(client *Client, rideID primitive.ObjectID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.joinRoom(client, "ride_"+rideID.Hex())
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
