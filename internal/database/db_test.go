package database

import (
	"testing"

	"github.com/portafacil/access-control/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "porta",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "porta_facil",
	}
	got := dsn(cfg)
	want := "porta:s3cret@tcp(db.internal:3306)/porta_facil?charset=utf8mb4&parseTime=true&loc=UTC"
	if got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}

func TestDSNWithoutPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "root",
		DBHost: "127.0.0.1",
		DBPort: "3307",
		DBName: "porta_facil",
	}
	got := dsn(cfg)
	want := "root@tcp(127.0.0.1:3307)/porta_facil?charset=utf8mb4&parseTime=true&loc=UTC"
	if got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
