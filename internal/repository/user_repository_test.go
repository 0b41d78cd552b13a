package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("ada", "ada@example.com", "hash", "padrao").
		WillReturnResult(sqlmock.NewResult(7, 1))

	repo := NewUserRepo(db)
	id, err := repo.Create(context.Background(), "  Ada ", "ada@example.com", "hash", "padrao")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ada' for key 'users.username'"))

	repo := NewUserRepo(db)
	if _, err := repo.Create(context.Background(), "ada", "", "hash", "padrao"); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("got %v, want ErrUsernameExists", err)
	}
}

func TestUpsertExternal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("ada", "Ada L.", "servidor").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE username=").
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "first_name", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(7, "ada", "", "Ada L.", nil, "servidor", true, now, now))

	repo := NewUserRepo(db)
	u, err := repo.UpsertExternal(context.Background(), "ada", "Ada L.", "servidor")
	if err != nil {
		t.Fatalf("UpsertExternal: %v", err)
	}
	if u.ID != 7 || u.Role != "servidor" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash != nil {
		t.Fatal("external user must have no local password hash")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBackupUpsertAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expires := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectExec("INSERT INTO suap_token_backups").
		WithArgs(uint64(7), "suap-access", "hash", expires).
		WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM suap_token_backups WHERE user_id=").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "suap_token", "password_hash", "expires_at", "created_at", "updated_at"}).
			AddRow(1, 7, "suap-access", "hash", expires, now, now))

	repo := NewBackupRepo(db)
	if err := repo.Upsert(context.Background(), 7, "suap-access", "hash", expires); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	b, err := repo.GetByUserID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if !b.Valid(time.Now().UTC()) {
		t.Fatal("fresh backup reported invalid")
	}
	if b.Valid(expires.Add(time.Minute)) {
		t.Fatal("expired backup reported valid")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBackupDeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM suap_token_backups WHERE expires_at").
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewBackupRepo(db)
	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
}
