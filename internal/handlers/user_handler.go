package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dias221467/Social_Backend/internal/config"
	"github.com/Dias221467/Social_Backend/internal/services"
	jwtutil "github.com/Dias221467/Social_Backend/pkg/jwt"
	"github.com/Dias221467/Social_Backend/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles HTTP requests related to user operations.
type UserHandler struct {
	Service UserManager
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service UserManager, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
	}
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.WithError(err).Warn("Failed to decode user registration request")
		badRequest(w, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	createdUser, err := h.Service.RegisterUser(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	log.WithField("userID", createdUser.ID.Hex()).Info("User registered successfully")
	writeJSON(w, http.StatusCreated, createdUser)
}

// LoginUserHandler checks the credentials and issues a JWT.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		badRequest(w, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		writeError(w, services.Internal(err))
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetUserHandler returns the caller's full profile or another user's
// public profile.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if id != caller {
		writeJSON(w, http.StatusOK, user.Public())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUserByUsernameHandler looks a user up by ?username=.
func (h *UserHandler) GetUserByUsernameHandler(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		badRequest(w, "Query parameter username is required")
		return
	}
	user, err := h.Service.GetUserByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// DeleteUserHandler removes an account. Admins may remove any account.
func (h *UserHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	role := middleware.GetUserFromContext(r.Context()).Role

	if err := h.Service.DeleteUser(r.Context(), caller, role, targetID); err != nil {
		writeError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"userID": targetID.Hex(),
		"by":     caller.Hex(),
	}).Info("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

// UpdateUserHandler edits the caller's profile. Only the fields present in
// the body change.
func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("UpdateUserHandler called")
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in services.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.WithError(err).Warn("Failed to decode update request")
		badRequest(w, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	updated, err := h.Service.UpdateUser(r.Context(), caller, targetID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	log.WithField("userID", updated.ID.Hex()).Info("User updated successfully")
	writeJSON(w, http.StatusOK, updated)
}

// ChangePasswordHandler replaces the caller's password.
func (h *UserHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.WithError(err).Warn("Failed to decode password change request")
		badRequest(w, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.Service.ChangePassword(r.Context(), userID, body.CurrentPassword, body.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been successfully updated"})
}

// SearchUsersHandler finds users by username prefix, ?query=&limit=.
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	query := r.URL.Query().Get("query")
	users, err := h.Service.SearchUsers(r.Context(), query, queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
