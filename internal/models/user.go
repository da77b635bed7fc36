package models

import "time"

// User captures a profile document together with its follow graph.
type User struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	About          string    `json:"about,omitempty"`
	HashedPassword string    `json:"-"`
	Salt           string    `json:"-"`
	Photo          Photo     `json:"-"`
	Following      []UserRef `json:"following"`
	Followers      []UserRef `json:"followers"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
}

// Photo is the binary attachment stored on a profile.
type Photo struct {
	Data        []byte
	ContentType string
}

// HasData reports whether a photo has been uploaded.
func (p Photo) HasData() bool {
	return len(p.Data) > 0
}

// UserRef is the expanded form of a following/followers entry.
type UserRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// UserSummary is the projection returned when listing accounts.
type UserSummary struct {
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Updated time.Time `json:"updated"`
	Created time.Time `json:"created"`
}

// Person is the projection returned by the suggested-connections query.
type Person struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Redacted returns a copy of the user with credential material cleared.
func (u User) Redacted() User {
	u.HashedPassword = ""
	u.Salt = ""
	if u.Following == nil {
		u.Following = []UserRef{}
	}
	if u.Followers == nil {
		u.Followers = []UserRef{}
	}
	return u
}

// FollowingIDs lists the ids of the users this profile follows.
func (u User) FollowingIDs() []string {
	ids := make([]string, 0, len(u.Following))
	for _, ref := range u.Following {
		ids = append(ids, ref.ID)
	}
	return ids
}
