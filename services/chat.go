package services

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/contrib/websocket"
	"gorm.io/gorm"

	"wallet-chat-service/models"
	"wallet-chat-service/utils"
)

// Relay close codes. Missing parameters and failed authorization are
// distinguishable to the client.
const (
	CloseMissingParams = 4001
	CloseUnauthorized  = 4003
)

// outboundQueueSize bounds each client's send queue. A client that cannot
// drain 64 payloads is disconnected rather than allowed to block the hub.
const outboundQueueSize = 64

// inboundEvent is a send request from a connected participant. When the
// sender opted into machine translation, translatedText holds the
// pre-computed target-language text and userLanguage its label.
type inboundEvent struct {
	Text           string `json:"text"`
	TranslatedText string `json:"translatedText,omitempty"`
	UserLanguage   string `json:"userLanguage,omitempty"`
	IsTranslation  bool   `json:"isTranslation,omitempty"`
}

// messagePayload is the per-recipient view of one delivered message.
type messagePayload struct {
	ID             uint           `json:"id"`
	Sender         string         `json:"sender"`
	SenderUsername string         `json:"sender_username"`
	Text           string         `json:"text"`
	ConversationID uint           `json:"conversation_id"`
	Seq            uint64         `json:"seq"`
	Timestamp      string         `json:"timestamp"`
	Translations   map[string]any `json:"translations,omitempty"`
	IsTranslation  bool           `json:"is_translation"`
}

type historyEnvelope struct {
	Type     string           `json:"type"`
	Messages []messagePayload `json:"messages"`
}

type messageEnvelope struct {
	Type    string         `json:"type"`
	Message messagePayload `json:"message"`
}

// chatClient is one ACTIVE relay connection. All writes to the underlying
// connection go through the send queue; the reader goroutine never writes.
type chatClient struct {
	address  string
	username string
	conn     *websocket.Conn

	send      chan []byte
	closeOnce sync.Once
}

func (cl *chatClient) enqueue(payload []byte) bool {
	select {
	case cl.send <- payload:
		return true
	default:
		return false
	}
}

func (cl *chatClient) shutdown() {
	cl.closeOnce.Do(func() {
		close(cl.send)
		if cl.conn != nil {
			cl.conn.Close()
		}
	})
}

// ChatService is the message relay: it authorizes connections against the
// conversation registry, replays history, and fans live messages out to the
// active connections of the same conversation with per-recipient content.
type ChatService struct {
	DB            *gorm.DB
	Conversations *ConversationService

	mu    sync.Mutex
	rooms map[uint]map[*chatClient]struct{}
}

func NewChatService(db *gorm.DB, conversations *ConversationService) *ChatService {
	return &ChatService{
		DB:            db,
		Conversations: conversations,
		rooms:         make(map[uint]map[*chatClient]struct{}),
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(2 * time.Second)
	conn.WriteControl(fastws.CloseMessage, fastws.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}

// HandleConnection drives one relay connection through
// CONNECTING -> AUTHORIZING -> ACTIVE -> CLOSED.
func (s *ChatService) HandleConnection(conn *websocket.Conn) {
	rawConversationID := conn.Query("conversationId")
	rawAddress := conn.Query("userAddress")

	if rawConversationID == "" || rawAddress == "" {
		closeWith(conn, CloseMissingParams, "missing required parameters")
		return
	}

	id, err := strconv.ParseUint(rawConversationID, 10, 32)
	if err != nil {
		closeWith(conn, CloseMissingParams, "invalid conversation id")
		return
	}
	conversationID := uint(id)

	address, err := utils.NormalizeAddress(rawAddress)
	if err != nil {
		closeWith(conn, CloseMissingParams, "invalid wallet address")
		return
	}

	ok, err := s.Conversations.IsParticipant(conversationID, address)
	if err != nil {
		// Fail closed: a store error must never admit the caller.
		log.Printf("[RELAY] Membership check failed for conversation %d: %v", conversationID, err)
		closeWith(conn, CloseUnauthorized, "not authorized for this conversation")
		return
	}
	if !ok {
		log.Printf("[RELAY] Denied %s on conversation %d", address, conversationID)
		closeWith(conn, CloseUnauthorized, "not authorized for this conversation")
		return
	}

	client := &chatClient{
		address:  address,
		username: s.Conversations.Username(address),
		conn:     conn,
		send:     make(chan []byte, outboundQueueSize),
	}

	if err := s.register(conversationID, client); err != nil {
		// A store failure is not an authorization verdict.
		log.Printf("[RELAY] History replay failed for conversation %d: %v", conversationID, err)
		closeWith(conn, fastws.CloseInternalServerErr, "failed to load history")
		return
	}

	log.Printf("[RELAY] %s joined conversation %d", address, conversationID)

	go s.writeLoop(conversationID, client)
	s.readLoop(conversationID, client)

	s.unregister(conversationID, client)
	log.Printf("[RELAY] %s left conversation %d", address, conversationID)
}

// register loads the history snapshot and atomically enqueues it and joins
// the room, so the history payload always precedes any live message event on
// this connection.
func (s *ChatService) register(conversationID uint, client *chatClient) error {
	history, err := s.Conversations.History(conversationID, nil)
	if err != nil {
		return err
	}

	// Two participants at most; don't look the same name up per message.
	names := make(map[string]string)
	payloads := make([]messagePayload, 0, len(history))
	for i := range history {
		msg := &history[i]
		name, ok := names[msg.Sender]
		if !ok {
			name = s.Conversations.Username(msg.Sender)
			names[msg.Sender] = name
		}
		payloads = append(payloads, projectForRecipient(msg, name, msg.Sender == client.address))
	}

	raw, err := json.Marshal(historyEnvelope{Type: "history", Messages: payloads})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	client.enqueue(raw) // empty queue, cannot fail

	room := s.rooms[conversationID]
	if room == nil {
		room = make(map[*chatClient]struct{})
		s.rooms[conversationID] = room
	}
	room[client] = struct{}{}
	return nil
}

func (s *ChatService) unregister(conversationID uint, client *chatClient) {
	s.mu.Lock()
	if room, ok := s.rooms[conversationID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(s.rooms, conversationID)
		}
	}
	s.mu.Unlock()

	client.shutdown()
}

func (s *ChatService) writeLoop(conversationID uint, client *chatClient) {
	for payload := range client.send {
		if err := client.conn.WriteMessage(fastws.TextMessage, payload); err != nil {
			s.unregister(conversationID, client)
			return
		}
	}
}

func (s *ChatService) readLoop(conversationID uint, client *chatClient) {
	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[RELAY] Dropping malformed event from %s: %v", client.address, err)
			continue
		}
		if strings.TrimSpace(event.Text) == "" {
			continue
		}

		s.handleSend(conversationID, client, event)
	}
}

// handleSend persists one message and fans it out. A persistence failure
// aborts the fan-out entirely (no partial broadcast) and the connection stays
// active.
func (s *ChatService) handleSend(conversationID uint, sender *chatClient, event inboundEvent) {
	msg := buildMessage(conversationID, sender.address, event)

	if err := s.Conversations.SaveMessage(msg); err != nil {
		log.Printf("[RELAY] Failed to persist message from %s: %v", sender.address, err)
		return
	}

	s.broadcast(conversationID, msg, sender.username)
}

// broadcast computes the outbound payload once per target connection, not
// once per conversation: sender and recipient see different content.
func (s *ChatService) broadcast(conversationID uint, msg *models.Message, senderUsername string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var overflowed []*chatClient
	for client := range s.rooms[conversationID] {
		payload := projectForRecipient(msg, senderUsername, client.address == msg.Sender)
		raw, err := json.Marshal(messageEnvelope{Type: "message", Message: payload})
		if err != nil {
			log.Printf("[RELAY] Failed to encode payload for %s: %v", client.address, err)
			continue
		}
		if !client.enqueue(raw) {
			overflowed = append(overflowed, client)
		}
	}

	// Slow consumers are dropped, not waited on.
	for _, client := range overflowed {
		log.Printf("[RELAY] Disconnecting %s from conversation %d: send queue full", client.address, conversationID)
		delete(s.rooms[conversationID], client)
		client.shutdown()
	}
}

// buildMessage maps an inbound event onto the persisted row. With a
// translation supplied the text column holds the receiver's default view and
// the translations map carries Original plus the target-language text.
func buildMessage(conversationID uint, sender string, event inboundEvent) *models.Message {
	msg := &models.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Text:           event.Text,
		Status:         models.MessageStatusSent,
		Timestamp:      time.Now().UTC(),
	}

	if event.IsTranslation && event.TranslatedText != "" {
		msg.Text = event.TranslatedText
		msg.Translations = map[string]any{
			models.TranslationOriginalKey:               event.Text,
			utils.NormalizeLanguage(event.UserLanguage): event.TranslatedText,
		}
	}

	return msg
}

// projectForRecipient builds the per-recipient view: the sender sees their
// original text with no translation marker, the other participant sees the
// translated text (when present) with the marker set.
func projectForRecipient(msg *models.Message, senderUsername string, recipientIsSender bool) messagePayload {
	payload := messagePayload{
		ID:             msg.ID,
		Sender:         msg.Sender,
		SenderUsername: senderUsername,
		Text:           msg.Text,
		ConversationID: msg.ConversationID,
		Seq:            msg.Seq,
		Timestamp:      msg.Timestamp.UTC().Format(time.RFC3339),
		Translations:   msg.Translations,
	}

	if recipientIsSender {
		payload.Text = msg.OriginalText()
		payload.IsTranslation = false
	} else {
		payload.IsTranslation = msg.Translated()
	}

	return payload
}
