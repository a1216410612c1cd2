package services

import (
	"context"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityService keeps the audit trail of friend graph transitions.
type ActivityService struct {
	repo ActivityStore
}

func NewActivityService(repo ActivityStore) *ActivityService {
	return &ActivityService{repo: repo}
}

// LogActivity records an entry for userID. It is called after the change has
// committed, so failures are only logged.
func (s *ActivityService) LogActivity(
	ctx context.Context,
	userID primitive.ObjectID,
	actionType string,
	targetID primitive.ObjectID,
	message string,
) {
	activity := &models.Activity{
		UserID:    userID,
		Type:      actionType,
		TargetID:  targetID,
		Message:   message,
		Timestamp: time.Now(),
	}

	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		logrus.WithError(err).WithField("action_type", actionType).Warn("Failed to log activity")
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID.Hex(),
		"action_type": actionType,
	}).Debug("Activity logged")
}

// GetRecentActivities returns the newest entries of userID.
func (s *ActivityService) GetRecentActivities(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	activities, err := s.repo.GetUserActivities(ctx, userID, limit)
	if err != nil {
		return nil, Internal(err)
	}
	return activities, nil
}
