package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hongminglow/social-be/internal/models"
)

type photoDocument struct {
	Data        []byte `bson:"data,omitempty"`
	ContentType string `bson:"contentType,omitempty"`
}

type userDocument struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Name           string               `bson:"name"`
	Email          string               `bson:"email"`
	About          string               `bson:"about,omitempty"`
	HashedPassword string               `bson:"hashed_password"`
	Salt           string               `bson:"salt"`
	Photo          photoDocument        `bson:"photo"`
	Following      []primitive.ObjectID `bson:"following"`
	Followers      []primitive.ObjectID `bson:"followers"`
	Created        time.Time            `bson:"created"`
	Updated        time.Time            `bson:"updated"`
}

type summaryDocument struct {
	Name    string    `bson:"name"`
	Email   string    `bson:"email"`
	Updated time.Time `bson:"updated"`
	Created time.Time `bson:"created"`
}

type personDocument struct {
	ID   primitive.ObjectID `bson:"_id"`
	Name string             `bson:"name"`
}

func newDocument(u models.User) userDocument {
	return userDocument{
		Name:           u.Name,
		Email:          u.Email,
		About:          u.About,
		HashedPassword: u.HashedPassword,
		Salt:           u.Salt,
		Photo:          photoDocument{Data: u.Photo.Data, ContentType: u.Photo.ContentType},
		Following:      []primitive.ObjectID{},
		Followers:      []primitive.ObjectID{},
		Created:        u.Created.UTC(),
		Updated:        u.Updated.UTC(),
	}
}

// toModel converts the document; names resolves referenced ids and drops
// ids that no longer exist.
func (d userDocument) toModel(names map[primitive.ObjectID]string) models.User {
	return models.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Email:          d.Email,
		About:          d.About,
		HashedPassword: d.HashedPassword,
		Salt:           d.Salt,
		Photo:          models.Photo{Data: d.Photo.Data, ContentType: d.Photo.ContentType},
		Following:      refs(d.Following, names),
		Followers:      refs(d.Followers, names),
		Created:        d.Created,
		Updated:        d.Updated,
	}
}

func (d userDocument) referencedIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(d.Following)+len(d.Followers))
	ids = append(ids, d.Following...)
	return append(ids, d.Followers...)
}

func refs(ids []primitive.ObjectID, names map[primitive.ObjectID]string) []models.UserRef {
	out := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, models.UserRef{ID: id.Hex(), Name: name})
		}
	}
	return out
}
