package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/portafacil/access-control/internal/model"
)

// ErrDeviceNotFound is returned when a door device cannot be found.
var ErrDeviceNotFound = errors.New("device not found")

// DeviceRepo encapsulates queries on the iot_devices table.  Devices are
// door controllers addressed by MAC; the command service resolves the MAC
// to a room before authorizing a command.
type DeviceRepo struct {
	db *sql.DB
}

func NewDeviceRepo(db *sql.DB) *DeviceRepo {
	return &DeviceRepo{db: db}
}

const deviceColumns = "id, mac, description, status, room_id, created_at, updated_at"

// Create inserts a device.  MAC addresses are stored lowercased so lookups
// from device firmware and from the API agree.
func (r *DeviceRepo) Create(ctx context.Context, d *model.IOTDevice) error {
	d.MAC = strings.ToLower(strings.TrimSpace(d.MAC))
	if d.Description == "" {
		d.Description = "Porta"
	}
	if d.Status == "" {
		d.Status = "Aguardando Conexão"
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO iot_devices (mac, description, status, room_id) VALUES (?,?,?,?)",
		d.MAC, d.Description, d.Status, d.RoomID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM iot_devices WHERE id=?", d.ID).
		Scan(&d.CreatedAt, &d.UpdatedAt)
}

// GetByID fetches a device by id.
func (r *DeviceRepo) GetByID(ctx context.Context, id uint64) (*model.IOTDevice, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM iot_devices WHERE id=?", id))
}

// GetByMAC fetches a device by its (normalized) MAC address.
func (r *DeviceRepo) GetByMAC(ctx context.Context, mac string) (*model.IOTDevice, error) {
	mac = strings.ToLower(strings.TrimSpace(mac))
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM iot_devices WHERE mac=?", mac))
}

// List returns all devices ordered by MAC.
func (r *DeviceRepo) List(ctx context.Context) ([]*model.IOTDevice, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM iot_devices ORDER BY mac")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.IOTDevice
	for rows.Next() {
		d := new(model.IOTDevice)
		if err := rows.Scan(&d.ID, &d.MAC, &d.Description, &d.Status, &d.RoomID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a device.
func (r *DeviceRepo) Update(ctx context.Context, d *model.IOTDevice) error {
	d.MAC = strings.ToLower(strings.TrimSpace(d.MAC))
	res, err := r.db.ExecContext(ctx,
		"UPDATE iot_devices SET mac=?, description=?, status=?, room_id=? WHERE id=?",
		d.MAC, d.Description, d.Status, d.RoomID, d.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM iot_devices WHERE id=?", d.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDeviceNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a device.
func (r *DeviceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM iot_devices WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func (r *DeviceRepo) scanOne(row *sql.Row) (*model.IOTDevice, error) {
	d := new(model.IOTDevice)
	err := row.Scan(&d.ID, &d.MAC, &d.Description, &d.Status, &d.RoomID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return d, nil
}
