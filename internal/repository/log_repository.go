package repository

import (
	"context"
	"database/sql"

	"github.com/portafacil/access-control/internal/model"
)

// LogRepo stores action log entries for the log service.
type LogRepo struct{ DB *sql.DB }

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{DB: db} }

// Insert stores a log entry and populates its ID and timestamp.
func (r *LogRepo) Insert(ctx context.Context, e *model.LogEntry) error {
	if e.Level == "" {
		e.Level = "INFO"
	}
	var userID any
	if e.UserID != nil {
		userID = *e.UserID
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO logs (service_name, user_id, level, message) VALUES (?,?,?,?)",
		e.ServiceName, userID, e.Level, e.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT ts FROM logs WHERE id=?", e.ID).Scan(&e.Timestamp)
}

// ListRecent returns the newest entries, most recent first.
func (r *LogRepo) ListRecent(ctx context.Context, limit int) ([]*model.LogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, ts, service_name, user_id, level, message FROM logs ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.LogEntry
	for rows.Next() {
		e := new(model.LogEntry)
		var uid sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ServiceName, &uid, &e.Level, &e.Message); err != nil {
			return nil, err
		}
		if uid.Valid {
			v := uint64(uid.Int64)
			e.UserID = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
