package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/social-be/internal/models"
	"github.com/hongminglow/social-be/internal/storage"
	"github.com/hongminglow/social-be/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const uniqueViolation = "23505"

const (
	followingTable = "user_following"
	followersTable = "user_followers"
)

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new Store and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row with a generated id.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := user.Validate(); err != nil {
		return models.User{}, err
	}
	user.ID = uuid.NewString()

	const query = `
	INSERT INTO users (id, name, email, about, hashed_password, salt, photo_data, photo_content_type, created, updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := s.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.About, user.HashedPassword, user.Salt,
		user.Photo.Data, user.Photo.ContentType, user.Created, user.Updated)
	if err != nil {
		return models.User{}, mapWriteError("insert user", err)
	}
	user.Following = []models.UserRef{}
	user.Followers = []models.UserRef{}
	return user, nil
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	const query = `SELECT name, email, updated, created FROM users ORDER BY created, id;`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.Name, &u.Email, &u.Updated, &u.Created); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// FindByID fetches a user by id with following and followers expanded.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	if err := checkID(id); err != nil {
		return models.User{}, err
	}

	const query = `
	SELECT id, name, email, about, hashed_password, salt, photo_data, photo_content_type, created, updated
	FROM users
	WHERE id = $1;
	`
	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return models.User{}, err
	}

	if user.Following, err = s.refs(ctx, followingTable, id); err != nil {
		return models.User{}, err
	}
	if user.Followers, err = s.refs(ctx, followersTable, id); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser persists the mutable fields of an existing user.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := checkID(user.ID); err != nil {
		return models.User{}, err
	}
	if err := user.Validate(); err != nil {
		return models.User{}, err
	}

	const query = `
	UPDATE users
	SET name = $2, email = $3, about = $4, hashed_password = $5, salt = $6,
		photo_data = $7, photo_content_type = $8, updated = $9
	WHERE id = $1;
	`
	tag, err := s.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.About, user.HashedPassword, user.Salt,
		user.Photo.Data, user.Photo.ContentType, user.Updated)
	if err != nil {
		return models.User{}, mapWriteError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, storage.ErrNotFound
	}
	return s.FindByID(ctx, user.ID)
}

// DeleteUser removes the user row along with the lists it owns.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddFollowing adds followID to userID's following set.
func (s *Store) AddFollowing(ctx context.Context, userID, followID string) error {
	return s.addRef(ctx, followingTable, userID, followID)
}

// AddFollower adds userID to followID's followers set and returns the updated target.
func (s *Store) AddFollower(ctx context.Context, followID, userID string) (models.User, error) {
	if err := s.addRef(ctx, followersTable, followID, userID); err != nil {
		return models.User{}, err
	}
	return s.FindByID(ctx, followID)
}

// RemoveFollowing removes unfollowID from userID's following set.
func (s *Store) RemoveFollowing(ctx context.Context, userID, unfollowID string) error {
	return s.removeRef(ctx, followingTable, userID, unfollowID)
}

// RemoveFollower removes userID from unfollowID's followers set and returns the updated target.
func (s *Store) RemoveFollower(ctx context.Context, unfollowID, userID string) (models.User, error) {
	if err := s.removeRef(ctx, followersTable, unfollowID, userID); err != nil {
		return models.User{}, err
	}
	return s.FindByID(ctx, unfollowID)
}

// FindPeople returns users whose id is not in exclude.
func (s *Store) FindPeople(ctx context.Context, exclude []string) ([]models.Person, error) {
	if exclude == nil {
		exclude = []string{}
	}
	const query = `SELECT id, name FROM users WHERE NOT (id = ANY($1)) ORDER BY created, id;`
	rows, err := s.pool.Query(ctx, query, exclude)
	if err != nil {
		return nil, fmt.Errorf("find people: %w", err)
	}
	defer rows.Close()

	out := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find people: %w", err)
	}
	return out, nil
}

// addRef and removeRef only touch the owner's list; the owner must exist.
func (s *Store) addRef(ctx context.Context, table, ownerID, refID string) error {
	if err := checkIDs(ownerID, refID); err != nil {
		return err
	}
	query := fmt.Sprintf(`
	WITH owner AS (SELECT id FROM users WHERE id = $1),
	inserted AS (
		INSERT INTO %s (user_id, ref_id)
		SELECT id, $2::text FROM owner
		ON CONFLICT (user_id, ref_id) DO NOTHING
	)
	SELECT id FROM owner;
	`, table)
	return s.execOnOwner(ctx, query, ownerID, refID)
}

func (s *Store) removeRef(ctx context.Context, table, ownerID, refID string) error {
	if err := checkIDs(ownerID, refID); err != nil {
		return err
	}
	query := fmt.Sprintf(`
	WITH owner AS (SELECT id FROM users WHERE id = $1),
	deleted AS (
		DELETE FROM %s WHERE user_id = $1 AND ref_id = $2::text
	)
	SELECT id FROM owner;
	`, table)
	return s.execOnOwner(ctx, query, ownerID, refID)
}

func (s *Store) execOnOwner(ctx context.Context, query, ownerID, refID string) error {
	var id string
	if err := s.pool.QueryRow(ctx, query, ownerID, refID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("update relationship: %w", err)
	}
	return nil
}

func (s *Store) refs(ctx context.Context, table, ownerID string) ([]models.UserRef, error) {
	query := fmt.Sprintf(`
	SELECT u.id, u.name
	FROM %s r
	JOIN users u ON u.id = r.ref_id
	WHERE r.user_id = $1
	ORDER BY r.position;
	`, table)
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", table, err)
	}
	defer rows.Close()

	out := []models.UserRef{}
	for rows.Next() {
		var ref models.UserRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expand %s: %w", table, err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.About, &user.HashedPassword, &user.Salt,
		&user.Photo.Data, &user.Photo.ContentType, &user.Created, &user.Updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &storage.UniqueError{Field: constraintField(pgErr.ConstraintName)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// constraintField extracts the column from index names shaped like users_<field>_unique_idx.
func constraintField(constraint string) string {
	name, ok := strings.CutPrefix(constraint, "users_")
	if !ok {
		return ""
	}
	name, ok = strings.CutSuffix(name, "_unique_idx")
	if !ok {
		return ""
	}
	return name
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.ErrInvalidID
	}
	return nil
}

func checkIDs(ids ...string) error {
	for _, id := range ids {
		if err := checkID(id); err != nil {
			return err
		}
	}
	return nil
}
