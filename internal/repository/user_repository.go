package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/portafacil/access-control/internal/model"
)

// UserRepo persists identities for the auth service.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrUsernameExists = errors.New("username already exists")

const userColumns = "id,username,email,first_name,password_hash,role,is_active,created_at,updated_at"

// Create inserts a locally registered user and returns its ID.  The
// password is hashed by the caller so the repository never sees plaintext.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash, role string) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, passwordHash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpsertExternal creates or refreshes the local row for an externally
// authenticated user and returns the stored record.  Role and display
// fields are overwritten on every successful provider login so the local
// copy tracks the provider.
func (r *UserRepo) UpsertExternal(ctx context.Context, username, firstName, role string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, first_name, role)
		 VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE first_name=VALUES(first_name), role=VALUES(role)`,
		username, firstName, role)
	if err != nil {
		return model.User{}, err
	}
	return r.GetByUsername(ctx, username)
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetOrCreate returns the user with the given username, creating a bare
// row with the supplied role when none exists.  Used by the debug mock
// login endpoint.  The bool result is true when a row was created.
func (r *UserRepo) GetOrCreate(ctx context.Context, username, role string) (model.User, bool, error) {
	u, err := r.GetByUsername(ctx, username)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, err
	}
	if _, err := r.Create(ctx, username, "", "", role); err != nil && !errors.Is(err, ErrUsernameExists) {
		return model.User{}, false, err
	}
	u, err = r.GetByUsername(ctx, username)
	return u, true, err
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u    model.User
		hash sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &hash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	return u, nil
}
