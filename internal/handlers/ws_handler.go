package handlers

import (
	"net/http"

	jwtutil "github.com/Dias221467/Social_Backend/pkg/jwt"
	"github.com/Dias221467/Social_Backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type socketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID)
}

// WSHandler attaches authenticated browsers to the realtime hub. Browsers
// cannot set headers on a WebSocket handshake, so the JWT comes in ?token=.
type WSHandler struct {
	Hub       socketServer
	JWTSecret string
}

func NewWSHandler(hub socketServer, jwtSecret string) *WSHandler {
	return &WSHandler{Hub: hub, JWTSecret: jwtSecret}
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket auth failed")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	h.Hub.Serve(w, r, userID)
}
