package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new user. A taken username or email yields ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mongoErr(err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Debug("Failed to find user by ID")
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetUserByUsername retrieves a user by their unique username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// GetUsersByIDs fetches users for a list of ids, ordered by id.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

// SearchUsernamePrefix returns the users among ids whose username starts with
// prefix, ignoring case.
func (r *UserRepository) SearchUsernamePrefix(ctx context.Context, ids []primitive.ObjectID, prefix string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	filter := bson.M{
		"_id":      bson.M{"$in": ids},
		"username": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"},
	}
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	return r.find(ctx, filter, opts)
}

// SearchUsers returns up to limit users whose username starts with prefix,
// ignoring case.
func (r *UserRepository) SearchUsers(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	filter := bson.M{"username": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"}}
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

// FindUsersExcluding lists up to limit users whose id is not in exclude.
func (r *UserRepository) FindUsersExcluding(ctx context.Context, exclude []primitive.ObjectID, limit int) ([]models.User, error) {
	filter := bson.M{"_id": bson.M{"$nin": exclude}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

// ExistingUserIDs returns the subset of ids that still belong to a user.
func (r *UserRepository) ExistingUserIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to check users: %w", err)
	}
	defer cursor.Close(ctx)

	var found []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		found = append(found, doc.ID)
	}
	return found, cursor.Err()
}

func (r *UserRepository) UpdateLastActive(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_active_at": at}})
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	return nil
}

// UpdateUser sets the given fields and returns the updated user.
func (r *UserRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range update {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		err = mongoErr(err)
		if err != ErrNotFound {
			logrus.WithFields(logrus.Fields{
				"userID": id.Hex(),
				"error":  err,
			}).Error("Failed to update user")
		}
		return nil, err
	}

	logrus.WithField("userID", id.Hex()).Info("User updated successfully")
	return &user, nil
}

// DeleteUser deletes a user from the database.
func (r *UserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Error("Failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	logrus.WithField("userID", id.Hex()).Info("User deleted successfully")
	return nil
}
