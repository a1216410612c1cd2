package handlers

import "net/http"

type TimelineHandler struct {
	Service TimelineReader
}

func NewTimelineHandler(service TimelineReader) *TimelineHandler {
	return &TimelineHandler{Service: service}
}

// GetTimelineHandler returns the caller's feed, ?page=&limit=.
func (h *TimelineHandler) GetTimelineHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	posts, err := h.Service.Timeline(r.Context(), userID, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
