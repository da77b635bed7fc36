// Package memory provides an in-process UserStore used for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/hongminglow/social-be/internal/models"
	"github.com/hongminglow/social-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

type record struct {
	user      models.User
	following []string
	followers []string
}

// Store keeps user documents in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string
}

// NewUserStore returns an empty store.
func NewUserStore() *Store {
	return &Store{records: make(map[string]*record)}
}

// Close is a no-op.
func (s *Store) Close() {}

// CreateUser assigns an id and stores the user.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := user.Validate(); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, "") {
		return models.User{}, &storage.UniqueError{Field: "email"}
	}

	user.ID = uuid.NewString()
	rec := &record{user: detach(user), following: []string{}, followers: []string{}}
	s.records[user.ID] = rec
	s.order = append(s.order, user.ID)
	return s.expand(rec), nil
}

// ListUsers returns every user in creation order.
func (s *Store) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserSummary, 0, len(s.order))
	for _, id := range s.order {
		u := s.records[id].user
		out = append(out, models.UserSummary{Name: u.Name, Email: u.Email, Updated: u.Updated, Created: u.Created})
	}
	return out, nil
}

// FindByID fetches a user with relationships expanded.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	if err := checkID(id); err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.expand(rec), nil
}

// UpdateUser overwrites the scalar fields and photo of an existing user.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := checkID(user.ID); err != nil {
		return models.User{}, err
	}
	if err := user.Validate(); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[user.ID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return models.User{}, &storage.UniqueError{Field: "email"}
	}

	updated := detach(user)
	updated.Created = rec.user.Created
	rec.user = updated
	return s.expand(rec), nil
}

// DeleteUser removes the user document. References held by other users are kept.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// AddFollowing adds followID to userID's following set.
func (s *Store) AddFollowing(ctx context.Context, userID, followID string) error {
	_, err := s.mutate(userID, followID, func(rec *record, ref string) {
		rec.following = addToSet(rec.following, ref)
	})
	return err
}

// AddFollower adds userID to followID's followers set.
func (s *Store) AddFollower(ctx context.Context, followID, userID string) (models.User, error) {
	return s.mutate(followID, userID, func(rec *record, ref string) {
		rec.followers = addToSet(rec.followers, ref)
	})
}

// RemoveFollowing removes unfollowID from userID's following set.
func (s *Store) RemoveFollowing(ctx context.Context, userID, unfollowID string) error {
	_, err := s.mutate(userID, unfollowID, func(rec *record, ref string) {
		rec.following = pull(rec.following, ref)
	})
	return err
}

// RemoveFollower removes userID from unfollowID's followers set.
func (s *Store) RemoveFollower(ctx context.Context, unfollowID, userID string) (models.User, error) {
	return s.mutate(unfollowID, userID, func(rec *record, ref string) {
		rec.followers = pull(rec.followers, ref)
	})
}

// FindPeople returns users not listed in exclude.
func (s *Store) FindPeople(ctx context.Context, exclude []string) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Person, 0, len(s.order))
	for _, id := range s.order {
		if slices.Contains(exclude, id) {
			continue
		}
		out = append(out, models.Person{ID: id, Name: s.records[id].user.Name})
	}
	return out, nil
}

func (s *Store) mutate(ownerID, refID string, apply func(rec *record, ref string)) (models.User, error) {
	if err := checkID(ownerID); err != nil {
		return models.User{}, err
	}
	if err := checkID(refID); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ownerID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	apply(rec, refID)
	return s.expand(rec), nil
}

func (s *Store) emailTaken(email, exceptID string) bool {
	for id, rec := range s.records {
		if id != exceptID && rec.user.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) expand(rec *record) models.User {
	u := detach(rec.user)
	u.Following = s.refs(rec.following)
	u.Followers = s.refs(rec.followers)
	return u
}

func (s *Store) refs(ids []string) []models.UserRef {
	out := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		if other, ok := s.records[id]; ok {
			out = append(out, models.UserRef{ID: id, Name: other.user.Name})
		}
	}
	return out
}

// detach copies the user without sharing the photo buffer or relationship slices.
func detach(u models.User) models.User {
	u.Photo.Data = slices.Clone(u.Photo.Data)
	u.Following = nil
	u.Followers = nil
	return u
}

func addToSet(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func pull(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.ErrInvalidID
	}
	return nil
}
