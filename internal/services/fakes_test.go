package services

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/Dias221467/Social_Backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memState is everything memStore holds; it is cloned to emulate rollback.
type memState struct {
	users         map[primitive.ObjectID]models.User
	relations     map[string]models.Relation
	relOrder      []string
	notifications []models.Notification
	posts         map[primitive.ObjectID]models.Post
	messages      []models.Message
	activities    []models.Activity
}

func (st *memState) clone() *memState {
	c := &memState{
		users:         make(map[primitive.ObjectID]models.User, len(st.users)),
		relations:     make(map[string]models.Relation, len(st.relations)),
		relOrder:      append([]string(nil), st.relOrder...),
		notifications: append([]models.Notification(nil), st.notifications...),
		posts:         make(map[primitive.ObjectID]models.Post, len(st.posts)),
		messages:      append([]models.Message(nil), st.messages...),
		activities:    append([]models.Activity(nil), st.activities...),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.relations {
		c.relations[k] = v
	}
	for k, v := range st.posts {
		v.Tags = append([]primitive.ObjectID(nil), v.Tags...)
		v.Likes = append([]primitive.ObjectID(nil), v.Likes...)
		v.Comments = append([]models.Comment(nil), v.Comments...)
		c.posts[k] = v
	}
	return c
}

// memStore implements every store interface plus TxRunner in memory.
// Methods named in failures return the configured error.
type memStore struct {
	mu       sync.Mutex
	st       *memState
	failures map[string]error
	txCalls  int
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		st: &memState{
			users:     map[primitive.ObjectID]models.User{},
			relations: map[string]models.Relation{},
			posts:     map[primitive.ObjectID]models.Post{},
		},
		failures: map[string]error{},
		clock:    time.Now(),
	}
}

func (m *memStore) fail(method string) error {
	return m.failures[method]
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.txCalls++
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) addUser(username string) *models.User {
	u := models.User{ID: primitive.NewObjectID(), Username: username, Email: username + "@example.com", Role: "user"}
	m.mu.Lock()
	m.st.users[u.ID] = u
	m.mu.Unlock()
	return &u
}

// ---- UserStore ----

func (m *memStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateUser"); err != nil {
		return nil, err
	}
	for _, u := range m.st.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	m.st.users[user.ID] = *user
	return user, nil
}

func (m *memStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := m.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.st.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Username == username })
}

func (m *memStore) sortedUsers(match func(models.User) bool) []models.User {
	out := []models.User{}
	for _, u := range m.st.users {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (m *memStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := idSet(ids)
	return m.sortedUsers(func(u models.User) bool { return set[u.ID] }), nil
}

func (m *memStore) SearchUsernamePrefix(_ context.Context, ids []primitive.ObjectID, prefix string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := idSet(ids)
	p := strings.ToLower(prefix)
	return m.sortedUsers(func(u models.User) bool {
		return set[u.ID] && strings.HasPrefix(strings.ToLower(u.Username), p)
	}), nil
}

func (m *memStore) SearchUsers(_ context.Context, prefix string, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := strings.ToLower(prefix)
	out := m.sortedUsers(func(u models.User) bool {
		return strings.HasPrefix(strings.ToLower(u.Username), p)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FindUsersExcluding(_ context.Context, exclude []primitive.ObjectID, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := idSet(exclude)
	out := m.sortedUsers(func(u models.User) bool { return !set[u.ID] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ExistingUserIDs(_ context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []primitive.ObjectID
	for _, id := range ids {
		if _, ok := m.st.users[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) UpdateLastActive(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.st.users[id]; ok {
		u.LastActiveAt = at
		m.st.users[id] = u
	}
	return nil
}

func (m *memStore) UpdateUser(_ context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateUser"); err != nil {
		return nil, err
	}
	u, ok := m.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range update {
		switch k {
		case "desc":
			u.Desc = v.(string)
		case "city":
			u.City = v.(string)
		case "from":
			u.From = v.(string)
		case "relationship":
			u.Relationship = v.(int)
		case "profile_picture":
			u.ProfilePicture = v.(string)
		case "cover_picture":
			u.CoverPicture = v.(string)
		case "hashed_password":
			u.HashedPassword = v.(string)
		}
	}
	u.UpdatedAt = time.Now()
	m.st.users[id] = u
	return &u, nil
}

func (m *memStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.st.users, id)
	return nil
}

// ---- RelationStore ----

func (m *memStore) GetRelation(_ context.Context, a, b primitive.ObjectID) (*models.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel, ok := m.st.relations[models.PairKey(a, b)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rel, nil
}

func (m *memStore) InsertPending(_ context.Context, rel *models.Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("InsertPending"); err != nil {
		return err
	}
	if _, ok := m.st.relations[rel.ID]; ok {
		return repository.ErrDuplicate
	}
	m.st.relations[rel.ID] = *rel
	m.st.relOrder = append(m.st.relOrder, rel.ID)
	return nil
}

func (m *memStore) PromoteToFriends(_ context.Context, requesterID, receiverID primitive.ObjectID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("PromoteToFriends"); err != nil {
		return false, err
	}
	key := models.PairKey(requesterID, receiverID)
	rel, ok := m.st.relations[key]
	if !ok || !rel.IsPendingFrom(requesterID, receiverID) {
		return false, nil
	}
	rel.State = models.RelationFriends
	rel.AcceptedAt = &at
	rel.UpdatedAt = at
	m.st.relations[key] = rel
	return true, nil
}

func (m *memStore) deleteRelation(key string) {
	delete(m.st.relations, key)
	for i, k := range m.st.relOrder {
		if k == key {
			m.st.relOrder = append(m.st.relOrder[:i:i], m.st.relOrder[i+1:]...)
			return
		}
	}
}

func (m *memStore) DeletePending(_ context.Context, requesterID, receiverID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.PairKey(requesterID, receiverID)
	rel, ok := m.st.relations[key]
	if !ok || !rel.IsPendingFrom(requesterID, receiverID) {
		return false, nil
	}
	m.deleteRelation(key)
	return true, nil
}

func (m *memStore) DeleteFriendship(_ context.Context, a, b primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.PairKey(a, b)
	rel, ok := m.st.relations[key]
	if !ok || rel.State != models.RelationFriends {
		return false, nil
	}
	m.deleteRelation(key)
	return true, nil
}

func (m *memStore) ListRelations(_ context.Context, userID primitive.ObjectID) ([]models.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Relation
	for _, key := range m.st.relOrder {
		rel := m.st.relations[key]
		if rel.Users[0] == userID || rel.Users[1] == userID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (m *memStore) DeleteUserRelations(_ context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range append([]string(nil), m.st.relOrder...) {
		rel := m.st.relations[key]
		if rel.Users[0] == userID || rel.Users[1] == userID {
			m.deleteRelation(key)
			n++
		}
	}
	return n, nil
}

func (m *memStore) DistinctUserIDs(_ context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for _, key := range m.st.relOrder {
		for _, id := range m.st.relations[key].Users {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, nil
}

// ---- NotificationStore ----

func (m *memStore) InsertNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("InsertNotification"); err != nil {
		return err
	}
	m.st.notifications = append(m.st.notifications, *n)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, receiverID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notification{}
	for _, n := range m.st.notifications {
		if n.ReceiverID == receiverID && (!unreadOnly || !n.Status) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkRead(_ context.Context, receiverID, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.st.notifications {
		n := &m.st.notifications[i]
		if n.ID == id && n.ReceiverID == receiverID {
			n.Status = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) keepNotifications(drop func(models.Notification) bool) int64 {
	var kept []models.Notification
	var removed int64
	for _, n := range m.st.notifications {
		if drop(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	m.st.notifications = kept
	return removed
}

func (m *memStore) DeleteMatching(_ context.Context, receiverID, postID, senderID primitive.ObjectID, t models.NotificationType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keepNotifications(func(n models.Notification) bool {
		return n.ReceiverID == receiverID && n.SenderID == senderID && n.Type == t &&
			n.PostID != nil && *n.PostID == postID
	}), nil
}

func (m *memStore) DeleteUserNotifications(_ context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keepNotifications(func(n models.Notification) bool {
		return n.ReceiverID == userID
	}), nil
}

func (m *memStore) DistinctReceiverIDs(_ context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for _, n := range m.st.notifications {
		if !seen[n.ReceiverID] {
			seen[n.ReceiverID] = true
			out = append(out, n.ReceiverID)
		}
	}
	return out, nil
}

// ---- PostStore ----

func (m *memStore) CreatePost(_ context.Context, post *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = primitive.NewObjectID()
	m.clock = m.clock.Add(time.Millisecond)
	post.CreatedAt = m.clock
	post.Likes = []primitive.ObjectID{}
	post.Comments = []models.Comment{}
	m.st.posts[post.ID] = *post
	return post, nil
}

func (m *memStore) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Likes = append([]primitive.ObjectID(nil), p.Likes...)
	p.Comments = append([]models.Comment(nil), p.Comments...)
	return &p, nil
}

func (m *memStore) updatePost(id primitive.ObjectID, fn func(p *models.Post)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&p)
	m.st.posts[id] = p
	return nil
}

func (m *memStore) AddLike(_ context.Context, postID, userID primitive.ObjectID) error {
	return m.updatePost(postID, func(p *models.Post) {
		if !p.LikedBy(userID) {
			p.Likes = append(append([]primitive.ObjectID(nil), p.Likes...), userID)
		}
	})
}

func (m *memStore) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) error {
	return m.updatePost(postID, func(p *models.Post) {
		var likes []primitive.ObjectID
		for _, id := range p.Likes {
			if id != userID {
				likes = append(likes, id)
			}
		}
		p.Likes = likes
	})
}

func (m *memStore) PushComment(_ context.Context, postID primitive.ObjectID, c models.Comment) error {
	return m.updatePost(postID, func(p *models.Post) {
		p.Comments = append(append([]models.Comment(nil), p.Comments...), c)
	})
}

func (m *memStore) PullComment(_ context.Context, postID, commentID primitive.ObjectID) error {
	return m.updatePost(postID, func(p *models.Post) {
		var kept []models.Comment
		for _, c := range p.Comments {
			if c.ID != commentID {
				kept = append(kept, c)
			}
		}
		p.Comments = kept
	})
}

// ListPostsByUsers orders by creation sequence; the fake stamps posts with
// a strictly increasing clock.
func (m *memStore) ListPostsByUsers(_ context.Context, userIDs []primitive.ObjectID, skip, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := idSet(userIDs)
	out := []models.Post{}
	for _, p := range m.st.posts {
		if set[p.UserID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= len(out) {
		return []models.Post{}, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- MessageStore ----

func (m *memStore) SaveMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	msg.Seen = false
	m.st.messages = append(m.st.messages, *msg)
	return msg, nil
}

func (m *memStore) GetConversation(_ context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Message{}
	for _, msg := range m.st.messages {
		if (msg.SenderID == userID && msg.ReceiverID == otherID) || (msg.SenderID == otherID && msg.ReceiverID == userID) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) MarkSeen(_ context.Context, receiverID, senderID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.st.messages {
		msg := &m.st.messages[i]
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.Seen {
			msg.Seen = true
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountUnseen(_ context.Context, receiverID primitive.ObjectID) ([]models.UnseenCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[primitive.ObjectID]int64{}
	for _, msg := range m.st.messages {
		if msg.ReceiverID == receiverID && !msg.Seen {
			counts[msg.SenderID]++
		}
	}
	out := []models.UnseenCount{}
	for id, n := range counts {
		out = append(out, models.UnseenCount{SenderID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].SenderID[:], out[j].SenderID[:]) < 0 })
	return out, nil
}

// ---- ActivityStore ----

func (m *memStore) CreateActivity(_ context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.activities = append(m.st.activities, *a)
	return nil
}

func (m *memStore) GetUserActivities(_ context.Context, userID primitive.ObjectID, limit int) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Activity{}
	for i := len(m.st.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if m.st.activities[i].UserID == userID {
			out = append(out, m.st.activities[i])
		}
	}
	return out, nil
}

func (m *memStore) DeleteUserActivities(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []models.Activity
	for _, a := range m.st.activities {
		if a.UserID != userID {
			kept = append(kept, a)
		}
	}
	m.st.activities = kept
	return nil
}

// recordingPublisher captures realtime events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	userID  primitive.ObjectID
	event   string
	payload interface{}
}

func (p *recordingPublisher) Publish(userID primitive.ObjectID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, event: event, payload: payload})
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// testEnv wires every service on top of one memStore.
type testEnv struct {
	store         *memStore
	pub           *recordingPublisher
	notifications *NotificationService
	activities    *ActivityService
	friends       *FriendService
	interactions  *InteractionService
	users         *UserService
	chat          *ChatService
	timeline      *TimelineService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	pub := &recordingPublisher{}
	notifications := NewNotificationService(store, pub)
	activities := NewActivityService(store)
	friends := NewFriendService(store, store, notifications, activities, store)
	return &testEnv{
		store:         store,
		pub:           pub,
		notifications: notifications,
		activities:    activities,
		friends:       friends,
		interactions:  NewInteractionService(store, store, notifications, store),
		users:         NewUserService(store, store, store, store, store),
		chat:          NewChatService(store, friends, pub),
		timeline:      NewTimelineService(store, friends),
	}
}
