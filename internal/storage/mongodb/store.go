// Package mongodb stores users as documents in MongoDB, keeping following and
// followers as id arrays on each document.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hongminglow/social-be/internal/models"
	"github.com/hongminglow/social-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

const (
	usersCollection   = "users"
	disconnectTimeout = 5 * time.Second
)

var (
	summaryProjection = bson.D{{Key: "name", Value: 1}, {Key: "email", Value: 1}, {Key: "updated", Value: 1}, {Key: "created", Value: 1}}
	nameProjection    = bson.D{{Key: "name", Value: 1}}
)

// Store provides MongoDB-backed persistence for users.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewUserStore connects to MongoDB and ensures the unique email index.
func NewUserStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, users: client.Database(database).Collection(usersCollection)}
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_1"),
	}
	if _, err := s.users.Indexes().CreateOne(ctx, index); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create email index: %w", err)
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// CreateUser inserts a new user document.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := user.Validate(); err != nil {
		return models.User{}, err
	}
	doc := newDocument(user)
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return models.User{}, mapWriteError("insert user", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.User{}, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toModel(nil), nil
}

// ListUsers returns every user projected to the summary fields.
func (s *Store) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	cur, err := s.users.Find(ctx, bson.D{}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []summaryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]models.UserSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.UserSummary{Name: d.Name, Email: d.Email, Updated: d.Updated, Created: d.Created})
	}
	return out, nil
}

// FindByID fetches a user with following and followers populated.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.User{}, err
	}
	var doc userDocument
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return models.User{}, mapReadError("find user", err)
	}
	return s.populate(ctx, doc)
}

// UpdateUser sets the mutable fields of an existing user.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	oid, err := objectID(user.ID)
	if err != nil {
		return models.User{}, err
	}
	if err := user.Validate(); err != nil {
		return models.User{}, err
	}

	update := bson.M{"$set": bson.M{
		"name":            user.Name,
		"email":           user.Email,
		"about":           user.About,
		"hashed_password": user.HashedPassword,
		"salt":            user.Salt,
		"photo":           photoDocument{Data: user.Photo.Data, ContentType: user.Photo.ContentType},
		"updated":         user.Updated.UTC(),
	}}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return models.User{}, mapWriteError("update user", err)
	}
	if res.MatchedCount == 0 {
		return models.User{}, storage.ErrNotFound
	}
	return s.FindByID(ctx, user.ID)
}

// DeleteUser removes the user document.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddFollowing adds followID to userID's following set.
func (s *Store) AddFollowing(ctx context.Context, userID, followID string) error {
	return s.updateRefs(ctx, userID, "$addToSet", "following", followID)
}

// AddFollower adds userID to followID's followers set.
func (s *Store) AddFollower(ctx context.Context, followID, userID string) (models.User, error) {
	return s.updateRefsReturning(ctx, followID, "$addToSet", "followers", userID)
}

// RemoveFollowing pulls unfollowID from userID's following set.
func (s *Store) RemoveFollowing(ctx context.Context, userID, unfollowID string) error {
	return s.updateRefs(ctx, userID, "$pull", "following", unfollowID)
}

// RemoveFollower pulls userID from unfollowID's followers set.
func (s *Store) RemoveFollower(ctx context.Context, unfollowID, userID string) (models.User, error) {
	return s.updateRefsReturning(ctx, unfollowID, "$pull", "followers", userID)
}

// FindPeople returns users whose id is not in exclude, projected to id and name.
func (s *Store) FindPeople(ctx context.Context, exclude []string) ([]models.Person, error) {
	oids := make([]primitive.ObjectID, 0, len(exclude))
	for _, id := range exclude {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}

	filter := bson.M{"_id": bson.M{"$nin": oids}}
	cur, err := s.users.Find(ctx, filter, options.Find().SetProjection(nameProjection))
	if err != nil {
		return nil, fmt.Errorf("find people: %w", err)
	}
	var docs []personDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode people: %w", err)
	}

	out := make([]models.Person, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Person{ID: d.ID.Hex(), Name: d.Name})
	}
	return out, nil
}

func (s *Store) updateRefs(ctx context.Context, ownerID, op, field, refID string) error {
	owner, ref, err := objectIDs(ownerID, refID)
	if err != nil {
		return err
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": owner}, bson.M{op: bson.M{field: ref}})
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) updateRefsReturning(ctx context.Context, ownerID, op, field, refID string) (models.User, error) {
	owner, ref, err := objectIDs(ownerID, refID)
	if err != nil {
		return models.User{}, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": owner}, bson.M{op: bson.M{field: ref}}, opts).Decode(&doc)
	if err != nil {
		return models.User{}, mapReadError("update "+field, err)
	}
	return s.populate(ctx, doc)
}

// populate resolves following and followers to id/name pairs.
func (s *Store) populate(ctx context.Context, doc userDocument) (models.User, error) {
	ids := doc.referencedIDs()
	if len(ids) == 0 {
		return doc.toModel(nil), nil
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(nameProjection))
	if err != nil {
		return models.User{}, fmt.Errorf("populate relationships: %w", err)
	}
	var people []personDocument
	if err := cur.All(ctx, &people); err != nil {
		return models.User{}, fmt.Errorf("decode relationships: %w", err)
	}

	names := make(map[primitive.ObjectID]string, len(people))
	for _, p := range people {
		names[p.ID] = p.Name
	}
	return doc.toModel(names), nil
}

func mapReadError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mapWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return &storage.UniqueError{Field: duplicateField(err.Error())}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// duplicateField pulls the field out of an E11000 message such as
// "... index: email_1 dup key: { email: \"a@b.c\" }".
func duplicateField(msg string) string {
	_, rest, ok := strings.Cut(msg, "index: ")
	if !ok {
		return ""
	}
	field, _, ok := strings.Cut(rest, "_1")
	if !ok {
		return ""
	}
	return field
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrInvalidID
	}
	return oid, nil
}

func objectIDs(a, b string) (primitive.ObjectID, primitive.ObjectID, error) {
	first, err := objectID(a)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	second, err := objectID(b)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return first, second, nil
}
