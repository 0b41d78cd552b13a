package model

import "time"

// Room status values.  Stored verbatim, so they are wire format like the
// role names.
const (
	RoomAvailable   = "Disponível"
	RoomOccupied    = "Ocupada"
	RoomMaintenance = "Em Manutenção"
)

// Department groups rooms under a code and a set of coordinators.
type Department struct {
	ID           uint64    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Coordinators []uint64  `json:"coordinators,omitempty"` // user ids
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Room is a physical space whose doors are controlled by IoT devices.
// The m2m user id slices are loaded on demand; list endpoints leave them
// empty to keep responses small.
type Room struct {
	ID                  uint64    `json:"id"`
	Code                string    `json:"code"`
	Name                string    `json:"name"`
	DepartmentID        uint64    `json:"department_id"`
	Status              string    `json:"status"`
	Admins              []uint64  `json:"admins,omitempty"`
	Users               []uint64  `json:"users,omitempty"`
	SpecialCoordinators []uint64  `json:"special_coordinators,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// IOTDevice is a door controller identified by its MAC address.  Status
// reflects the device connection, not room occupancy.
type IOTDevice struct {
	ID          uint64    `json:"id"`
	MAC         string    `json:"mac"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	RoomID      uint64    `json:"room_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LogEntry is an action log row stored by the log service.
type LogEntry struct {
	ID          uint64    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
	UserID      *uint64   `json:"user_id,omitempty"`
	Level       string    `json:"level"`
	Message     string    `json:"message"`
}
