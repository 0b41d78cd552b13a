package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/portafacil/access-control/internal/model"
)

func TestUserHasAccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(7), uint64(7), uint64(7), uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(8), uint64(8), uint64(8), uint64(8), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewRoomRepo(db)
	has, err := repo.UserHasAccess(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("UserHasAccess: %v", err)
	}
	if !has {
		t.Fatal("related user reported without access")
	}
	has, err = repo.UserHasAccess(context.Background(), 8, 3)
	if err != nil {
		t.Fatalf("UserHasAccess: %v", err)
	}
	if has {
		t.Fatal("unrelated user reported with access")
	}
}

func TestRoomDeleteWithDevicesConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM rooms WHERE id=").
		WithArgs(uint64(3)).
		WillReturnError(errors.New("Error 1451 (23000): Cannot delete or update a parent row: a foreign key constraint fails"))

	repo := NewRoomRepo(db)
	if err := repo.Delete(context.Background(), 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestRoomDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM rooms WHERE id=").
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRoomRepo(db)
	if err := repo.Delete(context.Background(), 99); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}
}

func TestListAvailableFiltersByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM rooms WHERE status=").
		WithArgs(model.RoomAvailable).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "department_id", "status", "created_at", "updated_at"}).
			AddRow(1, "B101", "Lab 1", 1, model.RoomAvailable, now, now))

	repo := NewRoomRepo(db)
	rooms, err := repo.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Status != model.RoomAvailable {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}
