package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func expectSync(mock sqlmock.Sqlmock, userID uint64, username, role string) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO actor_users").
		WithArgs(userID, username, role).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT IGNORE INTO role_profiles").
		WithArgs(userID, role).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM role_profiles WHERE user_id=. AND role<>").
		WithArgs(userID, role).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func TestProfileSync(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expectSync(mock, 7, "ada", "coordenador")

	repo := NewProfileRepo(db)
	if err := repo.Sync(context.Background(), 7, "ada", "coordenador"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestProfileSyncUnknownRoleSkipsMarker(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// An unknown role still upserts the actor row and still retracts prior
	// markers, but creates none of its own.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO actor_users").
		WithArgs(uint64(7), "ada", "visitante").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM role_profiles WHERE user_id=. AND role<>").
		WithArgs(uint64(7), "visitante").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewProfileRepo(db)
	if err := repo.Sync(context.Background(), 7, "ada", "visitante"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestProfileSyncRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO actor_users").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	repo := NewProfileRepo(db)
	if err := repo.Sync(context.Background(), 7, "ada", "padrao"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetActorNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM actor_users WHERE user_id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username", "role"}))

	repo := NewProfileRepo(db)
	if _, err := repo.GetActor(context.Background(), 99); !errors.Is(err, ErrActorNotFound) {
		t.Fatalf("got %v, want ErrActorNotFound", err)
	}
}
