package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Dias221467/Social_Backend/pkg/logger"
)

type ChatHandler struct {
	Service Messenger
}

func NewChatHandler(service Messenger) *ChatHandler {
	return &ChatHandler{Service: service}
}

// SendMessageHandler stores a message to {friendId}; the friend receives it
// over the realtime stream when connected.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode message")
		badRequest(w, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	msg, err := h.Service.SendMessage(r.Context(), userID, friendID, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) GetChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}

	messages, err := h.Service.GetChat(r.Context(), userID, friendID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// MarkSeenHandler flags the messages {friendId} sent to the caller as seen.
func (h *ChatHandler) MarkSeenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}

	n, err := h.Service.MarkSeen(r.Context(), userID, friendID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated_count": n})
}

func (h *ChatHandler) GetUnseenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	unseen, err := h.Service.UnseenMessages(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unseen)
}
