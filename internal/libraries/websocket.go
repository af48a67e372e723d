package libraries

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WebSocketMessage represents the standard structure for all websocket messages
type WebSocketMessageType string

const (
	WebSocketMessageTypePing          WebSocketMessageType = "ping"
	WebSocketMessageTypePong          WebSocketMessageType = "pong"
	WebSocketMessageTypeError         WebSocketMessageType = "error"
	WebSocketMessageTypeSubscribe     WebSocketMessageType = "subscribe"
	WebSocketMessageTypeSubscribed    WebSocketMessageType = "subscribed"
	WebSocketMessageTypeSessionDirty  WebSocketMessageType = "session_dirty"
	WebSocketMessageTypeSaveCompleted WebSocketMessageType = "save_completed"
	WebSocketMessageTypeSaveFailed    WebSocketMessageType = "save_failed"
	WebSocketMessageTypeElementUpdate WebSocketMessageType = "element_updated"
	WebSocketMessageTypeStatusChange  WebSocketMessageType = "status_changed"
)

type Client struct {
	ID        string
	ProjectID string
	Conn      *websocket.Conn
	Send      chan []byte
	once      sync.Once
}

type Hub struct {
	Clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan projectMessage
}

type projectMessage struct {
	ProjectID string
	Payload   []byte
}

type WebSocketMessage struct {
	Type WebSocketMessageType `json:"type"`
	Data interface{}          `json:"data,omitempty"`
}

type SubscribePayload struct {
	ProjectID string `json:"project_id"`
}

// SessionEventPayload carries editor lifecycle notifications to every
// subscriber of a project.
type SessionEventPayload struct {
	ProjectID string      `json:"project_id"`
	State     string      `json:"state,omitempty"`
	ElementID string      `json:"element_id,omitempty"`
	Detail    interface{} `json:"detail,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan projectMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client.ID] = client
		case client := <-h.Unregister:
			if _, exists := h.Clients[client.ID]; exists {
				delete(h.Clients, client.ID)
				client.once.Do(func() {
					close(client.Send)
				})
			}
		case message := <-h.Broadcast:
			for _, client := range h.Clients {
				if client.ProjectID != message.ProjectID {
					continue
				}
				client.Send <- message.Payload
			}
		}
	}
}

// BroadcastSessionEvent pushes an editor event to every client
// subscribed to the project.
func (h *Hub) BroadcastSessionEvent(eventType WebSocketMessageType, payload SessionEventPayload) {
	msg := WebSocketMessage{Type: eventType, Data: payload}
	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Println("failed to marshal session event:", err)
		return
	}
	h.Broadcast <- projectMessage{ProjectID: payload.ProjectID, Payload: bytes}
}

func (h *Hub) SendMessage(client *Client, message []byte) {
	client.Send <- message
}

// sendErrorMessage sends a standardized error message to a client
func SendErrorMessage(hub *Hub, client *Client, errorMsg string) {
	errorResp := WebSocketMessage{
		Type: WebSocketMessageTypeError,
		Data: errorMsg,
	}
	errorBytes, err := json.Marshal(errorResp)
	if err != nil {
		log.Println("failed to marshal error response:", err)
		return
	}
	hub.SendMessage(client, errorBytes)
}

// sendPongMessage sends a standardized pong message to a client
func sendPongMessage(hub *Hub, client *Client) {
	pongResp := WebSocketMessage{
		Type: WebSocketMessageTypePong,
	}
	pongBytes, err := json.Marshal(pongResp)
	if err != nil {
		log.Println("failed to marshal pong response:", err)
		return
	}
	hub.SendMessage(client, pongBytes)
}

func sendSubscribedMessage(hub *Hub, client *Client, projectId string) {
	resp := WebSocketMessage{
		Type: WebSocketMessageTypeSubscribed,
		Data: SubscribePayload{ProjectID: projectId},
	}
	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Println("failed to marshal subscribed response:", err)
		return
	}
	hub.SendMessage(client, respBytes)
}

// parseWebSocketMessage parses incoming websocket message and returns the message structure
func parseWebSocketMessage(msg []byte) (*WebSocketMessage, error) {
	var rawMessage struct {
		Type WebSocketMessageType `json:"type"`
		Data json.RawMessage      `json:"data,omitempty"`
	}
	if err := json.Unmarshal(msg, &rawMessage); err != nil {
		return nil, err
	}

	message := &WebSocketMessage{
		Type: rawMessage.Type,
	}

	if len(rawMessage.Data) > 0 {
		switch rawMessage.Type {
		case WebSocketMessageTypeSubscribe:
			var payload SubscribePayload
			if err := json.Unmarshal(rawMessage.Data, &payload); err != nil {
				return nil, err
			}
			message.Data = &payload
		default:
			var data interface{}
			if err := json.Unmarshal(rawMessage.Data, &data); err != nil {
				return nil, err
			}
			message.Data = data
		}
	}

	return message, nil
}

// WebSocketHandler accepts viewer connections. Clients subscribe to a
// project and then receive session lifecycle events for it.
func WebSocketHandler(hub *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			ID:   uuid.NewString(),
			Conn: conn,
			Send: make(chan []byte, 256),
		}

		hub.Register <- client

		// Write loop
		go func() {
			defer func() {
				hub.Unregister <- client
				conn.Close()
			}()
			for msg := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Println("write error:", err)
					return
				}
			}
		}()

		// Read loop
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}

			message, err := parseWebSocketMessage(msg)
			if err != nil {
				log.Println("failed to parse JSON:", err)
				SendErrorMessage(hub, client, "Invalid JSON format")
				continue
			}

			switch message.Type {
			case WebSocketMessageTypePing:
				sendPongMessage(hub, client)
			case WebSocketMessageTypeSubscribe:
				payload, ok := message.Data.(*SubscribePayload)
				if !ok || payload.ProjectID == "" {
					SendErrorMessage(hub, client, "Project ID is required")
					continue
				}
				if _, err := uuid.Parse(payload.ProjectID); err != nil {
					SendErrorMessage(hub, client, "Invalid project ID")
					continue
				}
				client.ProjectID = payload.ProjectID
				sendSubscribedMessage(hub, client, payload.ProjectID)
			default:
				SendErrorMessage(hub, client, "Type is invalid or not provided")
			}
		}

		hub.Unregister <- client
		conn.Close()
	})
}
