// This file defines repository methods for rooms, including the access
// relation queries that back the ownership check of the command and
// resource APIs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/portafacil/access-control/internal/model"
)

// ErrRoomNotFound is returned when a room cannot be found.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepo encapsulates all database queries related to rooms and their
// access relations (admins, users, special coordinators).
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = "id, code, name, department_id, status, created_at, updated_at"

var roomRelationTables = map[string]string{
	"admins":               "room_admins",
	"users":                "room_users",
	"special_coordinators": "room_special_coordinators",
}

// Create inserts a room and its relation rows in one transaction.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	if room.Status == "" {
		room.Status = model.RoomAvailable
	}
	tx, err := r.db.BeginTx(ctx, nil)
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

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		"INSERT INTO rooms (code, name, department_id, status) VALUES (?,?,?,?)",
		room.Code, room.Name, room.DepartmentID, room.Status)
	if err != nil {
		if isDuplicate(err) {
			err = ErrConflict
		}
		return err
	}
	id, lastErr := res.LastInsertId()
	if lastErr != nil {
		err = lastErr
		return err
	}
	room.ID = uint64(id)

	if err = replaceRoomRelations(ctx, tx, room); err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM rooms WHERE id=?", room.ID).
		Scan(&room.CreatedAt, &room.UpdatedAt)
	return err
}

// GetByID fetches a room with its relation id sets.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	err := r.db.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id=?", id).
		Scan(&room.ID, &room.Code, &room.Name, &room.DepartmentID, &room.Status, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Admins, err = r.relationIDs(ctx, "room_admins", id); err != nil {
		return nil, err
	}
	if room.Users, err = r.relationIDs(ctx, "room_users", id); err != nil {
		return nil, err
	}
	if room.SpecialCoordinators, err = r.relationIDs(ctx, "room_special_coordinators", id); err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns every room.  Restricted to the security and administrative
// roles at the handler layer.
func (r *RoomRepo) List(ctx context.Context) ([]*model.Room, error) {
	return r.queryRooms(ctx, "SELECT "+roomColumns+" FROM rooms ORDER BY code")
}

// ListAvailable returns rooms whose status is available.  Serves the
// public, unauthenticated listing.
func (r *RoomRepo) ListAvailable(ctx context.Context) ([]*model.Room, error) {
	return r.queryRooms(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE status=? ORDER BY code", model.RoomAvailable)
}

// ListByUserAccess returns the rooms a user can reach through any access
// relation: room admin, room user, special coordinator, or coordinator of
// the room's department.
func (r *RoomRepo) ListByUserAccess(ctx context.Context, userID uint64) ([]*model.Room, error) {
	const q = `SELECT DISTINCT r.id, r.code, r.name, r.department_id, r.status, r.created_at, r.updated_at
	           FROM rooms r
	           LEFT JOIN room_admins ra ON ra.room_id = r.id
	           LEFT JOIN room_users ru ON ru.room_id = r.id
	           LEFT JOIN room_special_coordinators rsc ON rsc.room_id = r.id
	           LEFT JOIN department_coordinators dc ON dc.department_id = r.department_id
	           WHERE ra.user_id = ? OR ru.user_id = ? OR rsc.user_id = ? OR dc.user_id = ?
	           ORDER BY r.code`
	return r.queryRooms(ctx, q, userID, userID, userID, userID)
}

// Update rewrites the mutable fields and replaces the relation sets.
func (r *RoomRepo) Update(ctx context.Context, room *model.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
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
		"UPDATE rooms SET code=?, name=?, department_id=?, status=? WHERE id=?",
		room.Code, room.Name, room.DepartmentID, room.Status, room.ID); err != nil {
		if isDuplicate(err) {
			err = ErrConflict
		}
		return err
	}
	var exists int
	if err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM rooms WHERE id=?", room.ID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRoomNotFound
		}
		return err
	}
	for _, table := range roomRelationTables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE room_id=?", room.ID); err != nil {
			return err
		}
	}
	err = replaceRoomRelations(ctx, tx, room)
	return err
}

// Delete removes a room.  Devices reference rooms with ON DELETE RESTRICT,
// so a room with registered doors yields ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id=?", id)
	if err != nil {
		if isDuplicate(err) || errors.Is(err, ErrConflict) {
			return ErrConflict
		}
		// FK restriction from iot_devices surfaces as MySQL error 1451.
		if containsCode(err, "1451") {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// UserHasAccess reports whether a user holds any access relation on the
// room: admin, user, special coordinator, or department coordinator.
// Administrative override by role is decided by the caller, not here.
func (r *RoomRepo) UserHasAccess(ctx context.Context, userID, roomID uint64) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM rooms r
	             LEFT JOIN room_admins ra ON ra.room_id = r.id AND ra.user_id = ?
	             LEFT JOIN room_users ru ON ru.room_id = r.id AND ru.user_id = ?
	             LEFT JOIN room_special_coordinators rsc ON rsc.room_id = r.id AND rsc.user_id = ?
	             LEFT JOIN department_coordinators dc ON dc.department_id = r.department_id AND dc.user_id = ?
	             WHERE r.id = ?
	               AND (ra.user_id IS NOT NULL OR ru.user_id IS NOT NULL
	                    OR rsc.user_id IS NOT NULL OR dc.user_id IS NOT NULL)
	           )`
	var has bool
	err := r.db.QueryRowContext(ctx, q, userID, userID, userID, userID, roomID).Scan(&has)
	return has, err
}

func (r *RoomRepo) queryRooms(ctx context.Context, q string, args ...any) ([]*model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Room
	for rows.Next() {
		room := new(model.Room)
		if err := rows.Scan(&room.ID, &room.Code, &room.Name, &room.DepartmentID, &room.Status, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *RoomRepo) relationIDs(ctx context.Context, table string, roomID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM "+table+" WHERE room_id=? ORDER BY user_id", roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func replaceRoomRelations(ctx context.Context, tx *sql.Tx, room *model.Room) error {
	sets := map[string][]uint64{
		"room_admins":               room.Admins,
		"room_users":                room.Users,
		"room_special_coordinators": room.SpecialCoordinators,
	}
	for table, ids := range sets {
		for _, uid := range ids {
			if _, err := tx.ExecContext(ctx,
				"INSERT IGNORE INTO "+table+" (room_id, user_id) VALUES (?,?)",
				room.ID, uid); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsCode(err error, code string) bool {
	return err != nil && strings.Contains(err.Error(), code)
}
