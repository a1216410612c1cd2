package handlers

import (
	"net/http"

	"github.com/Dias221467/Social_Backend/pkg/logger"
)

type NotificationHandler struct {
	Service NotificationLedger
}

func NewNotificationHandler(service NotificationLedger) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GetNotificationsHandler returns the whole ledger, or with ?unread=true the
// unread entries and their count.
func (h *NotificationHandler) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("unread") == "true" {
		unread, err := h.Service.ListUnread(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, unread)
		return
	}

	notifications, err := h.Service.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// MarkAsReadHandler flags {notificationId} as read and returns the ledger.
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	notifID, ok := pathID(w, r, "notificationId")
	if !ok {
		return
	}

	notifications, err := h.Service.MarkRead(r.Context(), userID, notifID)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.Infof("User %s marked notification %s as read", userID.Hex(), notifID.Hex())
	writeJSON(w, http.StatusOK, notifications)
}
