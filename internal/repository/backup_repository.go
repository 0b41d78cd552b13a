package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/portafacil/access-control/internal/model"
)

// BackupRepo persists SUAP credential backups (single row per user).  A
// backup is written after every successful provider login and read only
// when the provider is operationally unreachable.
type BackupRepo struct{ DB *sql.DB }

func NewBackupRepo(db *sql.DB) *BackupRepo { return &BackupRepo{DB: db} }

// Upsert creates or refreshes the backup row for a user.
func (r *BackupRepo) Upsert(ctx context.Context, userID uint64, suapToken, passwordHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO suap_token_backups (user_id, suap_token, password_hash, expires_at)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE suap_token=VALUES(suap_token),
		                         password_hash=VALUES(password_hash),
		                         expires_at=VALUES(expires_at)`,
		userID, suapToken, passwordHash, expiresAt)
	return err
}

// GetByUserID loads the backup row for a user.  sql.ErrNoRows when the
// user never completed a primary login.
func (r *BackupRepo) GetByUserID(ctx context.Context, userID uint64) (model.SUAPTokenBackup, error) {
	var b model.SUAPTokenBackup
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, suap_token, password_hash, expires_at, created_at, updated_at
		 FROM suap_token_backups WHERE user_id=? LIMIT 1`,
		userID).Scan(&b.ID, &b.UserID, &b.SuapToken, &b.PasswordHash, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// DeleteExpired removes backups past their expiry.  Run periodically by
// the auth server; expired rows are also ignored at read time, so this is
// housekeeping only.
func (r *BackupRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM suap_token_backups WHERE expires_at < UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
