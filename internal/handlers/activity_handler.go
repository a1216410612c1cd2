package handlers

import "net/http"

type ActivityHandler struct {
	Service ActivityReader
}

func NewActivityHandler(service ActivityReader) *ActivityHandler {
	return &ActivityHandler{Service: service}
}

// GetActivityHandler returns the caller's newest friend graph events.
func (h *ActivityHandler) GetActivityHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	activities, err := h.Service.GetRecentActivities(r.Context(), userID, queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}
