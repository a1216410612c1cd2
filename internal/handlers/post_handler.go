package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Dias221467/Social_Backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler exposes the post events that produce notifications.
type PostHandler struct {
	Service PostInteractor
}

func NewPostHandler(service PostInteractor) *PostHandler {
	return &PostHandler{Service: service}
}

func (h *PostHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var body struct {
		Desc string               `json:"desc"`
		Tags []primitive.ObjectID `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode post")
		badRequest(w, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	post, err := h.Service.CreatePost(r.Context(), userID, body.Desc, body.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// ToggleLikeHandler likes or unlikes {id}.
func (h *PostHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	liked, err := h.Service.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (h *PostHandler) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	comment, err := h.Service.AddComment(r.Context(), postID, userID, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}

	if err := h.Service.DeleteComment(r.Context(), postID, commentID, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
