package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dias221467/Social_Backend/internal/services"
	"github.com/Dias221467/Social_Backend/pkg/logger"
	"github.com/Dias221467/Social_Backend/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response")
	}
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindPermissionDenied:
		return http.StatusForbidden
	case services.KindInvalidArgument:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeError maps a service error to its status. Internal causes are logged,
// never sent to the client.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: "internal", Message: "internal error"}
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		resp = errorResponse{Error: svcErr.Code, Message: svcErr.Message}
	}

	status := statusFor(services.KindOf(err))
	if status == http.StatusInternalServerError {
		logger.Log.WithError(err).Error("Request failed")
	} else {
		logger.Log.WithError(err).Warn("Request rejected")
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	logger.Log.Warn(msg)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_argument", Message: msg})
}

// pathID parses the mux variable name as an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		badRequest(w, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// callerID returns the authenticated user's id.
func callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "Unauthorized"})
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "Unauthorized"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// actingUser resolves the {id} path segment, which must be the caller.
func actingUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	caller, ok := callerID(w, r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return primitive.NilObjectID, false
	}
	if id != caller {
		logger.Log.WithField("caller", caller.Hex()).Warnf("Forbidden access to user %s", id.Hex())
		writeError(w, services.ErrPermissionDenied)
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
