package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/Dias221467/Social_Backend/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,20}$`)
)

const (
	minPasswordLength = 6
	maxProfileText    = 50
	maxPicturePath    = 512
	maxRelationship   = 3
	maxSearchResults  = 20
)

// lookupUser maps a missing account to ErrUserNotFound.
func lookupUser(ctx context.Context, users UserStore, id primitive.ObjectID) (*models.User, error) {
	user, err := users.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, Internal(err)
	}
	return user, nil
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo          UserStore
	relations     RelationStore
	notifications NotificationStore
	activities    ActivityStore
	tx            TxRunner
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, relations RelationStore, notifications NotificationStore, activities ActivityStore, tx TxRunner) *UserService {
	return &UserService{
		repo:          repo,
		relations:     relations,
		notifications: notifications,
		activities:    activities,
		tx:            tx,
	}
}

// RegisterUser validates the form, hashes the password and stores the user.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if !usernameRegex.MatchString(in.Username) {
		return nil, InvalidArgument("username must be 3-20 letters, digits, dots or underscores")
	}
	if !emailRegex.MatchString(in.Email) {
		logrus.WithField("email", in.Email).Warn("Invalid email format during registration")
		return nil, InvalidArgument("invalid email format")
	}
	if len(in.Password) < minPasswordLength {
		return nil, InvalidArgument("password must be at least 6 characters")
	}

	if _, err := s.repo.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(err)
	}
	if _, err := s.repo.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(err)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, Internal(err)
	}

	user := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: string(hashedPwd),
		Role:           "user",
	}
	created, err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with another registration
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, Internal(err)
	}

	logrus.WithFields(logrus.Fields{
		"userID": created.ID.Hex(),
		"role":   created.Role,
	}).Info("User registered successfully")
	return created, nil
}

// AuthenticateUser verifies the email and password.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, ErrInvalidCredentials
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return lookupUser(ctx, s.repo, id)
}

// GetUserByUsername retrieves a user by their unique username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, Internal(err)
	}
	return user, nil
}

// ProfileUpdate carries the editable profile fields; nil leaves a field as is.
type ProfileUpdate struct {
	Desc           *string `json:"desc"`
	City           *string `json:"city"`
	From           *string `json:"from"`
	Relationship   *int    `json:"relationship"`
	ProfilePicture *string `json:"profile_picture"`
	CoverPicture   *string `json:"cover_picture"`
}

// fields validates the update and returns the document fields to set.
func (in ProfileUpdate) fields() (map[string]interface{}, error) {
	update := map[string]interface{}{}
	text := []struct {
		name  string
		value *string
		max   int
	}{
		{"desc", in.Desc, maxProfileText},
		{"city", in.City, maxProfileText},
		{"from", in.From, maxProfileText},
		{"profile_picture", in.ProfilePicture, maxPicturePath},
		{"cover_picture", in.CoverPicture, maxPicturePath},
	}
	for _, f := range text {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if len(v) > f.max {
			return nil, InvalidArgument(f.name + " is too long")
		}
		update[f.name] = v
	}
	if in.Relationship != nil {
		if *in.Relationship < 0 || *in.Relationship > maxRelationship {
			return nil, InvalidArgument("relationship must be between 0 and 3")
		}
		update["relationship"] = *in.Relationship
	}
	if len(update) == 0 {
		return nil, InvalidArgument("nothing to update")
	}
	return update, nil
}

// UpdateUser applies a profile update. Users may only edit their own profile.
func (s *UserService) UpdateUser(ctx context.Context, actorID, targetID primitive.ObjectID, in ProfileUpdate) (*models.User, error) {
	if actorID != targetID {
		logrus.WithFields(logrus.Fields{
			"requestedUserID": targetID.Hex(),
			"loggedInUserID":  actorID.Hex(),
		}).Warn("Forbidden update attempt")
		return nil, ErrPermissionDenied
	}
	update, err := in.fields()
	if err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateUser(ctx, targetID, update)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, Internal(err)
	}
	return user, nil
}

// ChangePassword replaces the password of userID after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	if len(next) < minPasswordLength {
		return InvalidArgument("password must be at least 6 characters")
	}
	user, err := lookupUser(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(current)); err != nil {
		logrus.WithField("userID", userID.Hex()).Warn("Password change with wrong current password")
		return ErrInvalidCredentials
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return Internal(err)
	}
	_, err = s.repo.UpdateUser(ctx, userID, map[string]interface{}{"hashed_password": string(hashedPwd)})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return Internal(err)
	}
	logrus.WithField("userID", userID.Hex()).Info("Password changed")
	return nil
}

// SearchUsers finds users by username prefix. An empty query matches nobody.
func (s *UserService) SearchUsers(ctx context.Context, query string, limit int) ([]models.PublicUser, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PublicUser{}, nil
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}
	users, err := s.repo.SearchUsers(ctx, query, limit)
	if err != nil {
		return nil, Internal(err)
	}
	return toPublic(users), nil
}

func (s *UserService) UpdateLastActive(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.repo.UpdateLastActive(ctx, userID, time.Now()); err != nil {
		return Internal(err)
	}
	return nil
}

// DeleteUser removes the account of targetID together with its relations and
// notification ledger. Only the owner or an admin may do it.
func (s *UserService) DeleteUser(ctx context.Context, actorID primitive.ObjectID, actorRole string, targetID primitive.ObjectID) error {
	if actorID != targetID && actorRole != "admin" {
		return ErrPermissionDenied
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteUser(ctx, targetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return Internal(err)
		}
		if _, err := s.relations.DeleteUserRelations(ctx, targetID); err != nil {
			return Internal(err)
		}
		if _, err := s.notifications.DeleteUserNotifications(ctx, targetID); err != nil {
			return Internal(err)
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	if err := s.activities.DeleteUserActivities(ctx, targetID); err != nil {
		logrus.WithError(err).Warn("Failed to delete activities of removed user")
	}
	logrus.WithField("userID", targetID.Hex()).Info("User deleted successfully")
	return nil
}

// SweepOrphans removes relations and notifications left behind by users that
// no longer exist and returns how many users were cleaned up.
func (s *UserService) SweepOrphans(ctx context.Context) (int, error) {
	relUsers, err := s.relations.DistinctUserIDs(ctx)
	if err != nil {
		return 0, Internal(err)
	}
	receivers, err := s.notifications.DistinctReceiverIDs(ctx)
	if err != nil {
		return 0, Internal(err)
	}

	seen := make(map[primitive.ObjectID]struct{})
	var candidates []primitive.ObjectID
	for _, id := range append(relUsers, receivers...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	existing, err := s.repo.ExistingUserIDs(ctx, candidates)
	if err != nil {
		return 0, Internal(err)
	}
	alive := make(map[primitive.ObjectID]struct{}, len(existing))
	for _, id := range existing {
		alive[id] = struct{}{}
	}

	swept := 0
	for _, id := range candidates {
		if _, ok := alive[id]; ok {
			continue
		}
		if _, err := s.relations.DeleteUserRelations(ctx, id); err != nil {
			return swept, Internal(err)
		}
		if _, err := s.notifications.DeleteUserNotifications(ctx, id); err != nil {
			return swept, Internal(err)
		}
		swept++
	}

	if swept > 0 {
		logrus.WithField("users", swept).Info("Swept orphaned relations and notifications")
	}
	return swept, nil
}
