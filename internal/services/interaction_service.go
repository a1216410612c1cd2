package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/Dias221467/Social_Backend/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InteractionService handles the post events that feed the notification
// ledger: tagging, likes and comments.
type InteractionService struct {
	posts         PostStore
	users         UserStore
	notifications *NotificationService
	tx            TxRunner
}

func NewInteractionService(posts PostStore, users UserStore, notifications *NotificationService, tx TxRunner) *InteractionService {
	return &InteractionService{
		posts:         posts,
		users:         users,
		notifications: notifications,
		tx:            tx,
	}
}

func (s *InteractionService) getPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, Internal(err)
	}
	return post, nil
}

// CreatePost stores a post and sends a tagged notification to every distinct
// tagged user other than the author.
func (s *InteractionService) CreatePost(ctx context.Context, userID primitive.ObjectID, desc string, tags []primitive.ObjectID) (*models.Post, error) {
	author, err := lookupUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	seen := map[primitive.ObjectID]struct{}{}
	var tagged []primitive.ObjectID
	for _, id := range tags {
		if _, dup := seen[id]; dup || id == userID {
			continue
		}
		seen[id] = struct{}{}
		tagged = append(tagged, id)
	}
	if len(tagged) > 0 {
		existing, err := s.users.ExistingUserIDs(ctx, tagged)
		if err != nil {
			return nil, Internal(err)
		}
		if len(existing) != len(tagged) {
			return nil, ErrUserNotFound
		}
	}

	var (
		post    *models.Post
		pending []*models.Notification
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		pending = nil
		created, err := s.posts.CreatePost(ctx, &models.Post{
			UserID:   userID,
			Username: author.Username,
			Desc:     desc,
			Tags:     tagged,
		})
		if err != nil {
			return Internal(err)
		}
		for _, id := range tagged {
			n, err := models.NewNotification(models.NotificationTagged, id, author, &created.ID)
			if err != nil {
				return Internal(err)
			}
			if err := s.notifications.record(ctx, n); err != nil {
				return err
			}
			pending = append(pending, n)
		}
		post = created
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.notifications.publish(pending...)
	logrus.WithFields(logrus.Fields{"postID": post.ID.Hex(), "tagged": len(tagged)}).Info("Post created")
	return post, nil
}

// ToggleLike likes the post or, when already liked, takes the like back
// together with its notification. It returns true when the post is now liked.
func (s *InteractionService) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	liker, err := lookupUser(ctx, s.users, userID)
	if err != nil {
		return false, err
	}

	var (
		liked   bool
		pending *models.Notification
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		pending = nil
		post, err := s.getPost(ctx, postID)
		if err != nil {
			return err
		}

		if post.LikedBy(userID) {
			liked = false
			if err := s.posts.RemoveLike(ctx, postID, userID); err != nil {
				return Internal(err)
			}
			_, err := s.notifications.RemoveMatching(ctx, post.UserID, postID, userID, models.NotificationLiked)
			return err
		}

		liked = true
		if err := s.posts.AddLike(ctx, postID, userID); err != nil {
			return Internal(err)
		}
		if post.UserID == userID {
			return nil
		}
		n, err := models.NewNotification(models.NotificationLiked, post.UserID, liker, &postID)
		if err != nil {
			return Internal(err)
		}
		if err := s.notifications.record(ctx, n); err != nil {
			return err
		}
		pending = n
		return nil
	})
	if err != nil {
		return false, asServiceError(err)
	}

	if pending != nil {
		s.notifications.publish(pending)
	}
	return liked, nil
}

// AddComment appends a comment and notifies the post owner.
func (s *InteractionService) AddComment(ctx context.Context, postID, userID primitive.ObjectID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, InvalidArgument("comment text is required")
	}
	sender, err := lookupUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:         primitive.NewObjectID(),
		SenderID:   userID,
		SenderName: sender.Username,
		Text:       text,
		CreatedAt:  time.Now(),
	}

	var pending *models.Notification
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		pending = nil
		post, err := s.getPost(ctx, postID)
		if err != nil {
			return err
		}
		if err := s.posts.PushComment(ctx, postID, comment); err != nil {
			return Internal(err)
		}
		if post.UserID == userID {
			return nil
		}
		n, err := models.NewNotification(models.NotificationCommented, post.UserID, sender, &postID)
		if err != nil {
			return Internal(err)
		}
		if err := s.notifications.record(ctx, n); err != nil {
			return err
		}
		pending = n
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	if pending != nil {
		s.notifications.publish(pending)
	}
	return &comment, nil
}

// DeleteComment removes a comment, and its notification once the author has no
// comment left on the post. Only the post owner and the comment author may
// delete it.
func (s *InteractionService) DeleteComment(ctx context.Context, postID, commentID, userID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		post, err := s.getPost(ctx, postID)
		if err != nil {
			return err
		}
		comment := post.Comment(commentID)
		if comment == nil {
			return ErrCommentNotFound
		}
		if post.UserID != userID && comment.SenderID != userID {
			return ErrPermissionDenied
		}
		if err := s.posts.PullComment(ctx, postID, commentID); err != nil {
			return Internal(err)
		}
		// The notification stays while the author has other comments here.
		for _, c := range post.Comments {
			if c.ID != commentID && c.SenderID == comment.SenderID {
				return nil
			}
		}
		_, err = s.notifications.RemoveMatching(ctx, post.UserID, postID, comment.SenderID, models.NotificationCommented)
		return err
	})
	return asServiceError(err)
}
