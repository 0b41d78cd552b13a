package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/portafacil/access-control/internal/model"
)

// ProfileRepo maintains the persistence-service read model: one actor row
// per known user plus one role_profiles marker per (user, role).  All
// writes are idempotent because the event relay delivers at least once.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

var ErrActorNotFound = errors.New("actor not found")

// Sync applies an identity event in one transaction: upsert the actor row,
// ensure the profile marker for the new role, and retract markers for any
// role the user no longer holds.  Replaying the same event is a no-op.
func (r *ProfileRepo) Sync(ctx context.Context, userID uint64, username, role string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO actor_users (user_id, username, role)
		 VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE username=VALUES(username), role=VALUES(role)`,
		userID, username, role); err != nil {
		return err
	}
	if model.ValidRole(role) {
		if _, err = tx.ExecContext(ctx,
			"INSERT IGNORE INTO role_profiles (user_id, role) VALUES (?,?)",
			userID, role); err != nil {
			return err
		}
	}
	// Retract markers from prior roles so a role change does not leave the
	// user holding two permission tiers at once.
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM role_profiles WHERE user_id=? AND role<>?",
		userID, role); err != nil {
		return err
	}
	return nil
}

// GetActor fetches the read-model row for a user id.
func (r *ProfileRepo) GetActor(ctx context.Context, userID uint64) (model.ActorUser, error) {
	var a model.ActorUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, username, role FROM actor_users WHERE user_id=? LIMIT 1",
		userID).Scan(&a.ID, &a.UserID, &a.Username, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ActorUser{}, ErrActorNotFound
	}
	return a, err
}

// ListProfiles returns the role markers a user currently holds.
func (r *ProfileRepo) ListProfiles(ctx context.Context, userID uint64) ([]model.RoleProfile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, role, created_at FROM role_profiles WHERE user_id=? ORDER BY role",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoleProfile
	for rows.Next() {
		var p model.RoleProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Role, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CleanupByUsername deletes a user's actor row, profile markers and room
// relations.  Debug-only endpoint support; not reachable in production.
func (r *ProfileRepo) CleanupByUsername(ctx context.Context, username string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var userID uint64
	if err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM actor_users WHERE username=? LIMIT 1", username).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrActorNotFound
		}
		return err
	}
	for _, q := range []string{
		"DELETE FROM role_profiles WHERE user_id=?",
		"DELETE FROM room_admins WHERE user_id=?",
		"DELETE FROM room_users WHERE user_id=?",
		"DELETE FROM room_special_coordinators WHERE user_id=?",
		"DELETE FROM department_coordinators WHERE user_id=?",
		"DELETE FROM actor_users WHERE user_id=?",
	} {
		if _, err = tx.ExecContext(ctx, q, userID); err != nil {
			return err
		}
	}
	return nil
}
