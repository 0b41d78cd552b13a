package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/suap"
)

type fakeProvider struct {
	loginErr error
	infoErr  error
	info     suap.UserInfo
}

func (f *fakeProvider) Login(ctx context.Context, username, password string) (suap.TokenPair, error) {
	if f.loginErr != nil {
		return suap.TokenPair{}, f.loginErr
	}
	return suap.TokenPair{Access: "suap-access", Refresh: "suap-refresh"}, nil
}

func (f *fakeProvider) GetUserInfo(ctx context.Context, accessToken string) (suap.UserInfo, error) {
	if f.infoErr != nil {
		return suap.UserInfo{}, f.infoErr
	}
	return f.info, nil
}

type fakeUsers struct {
	byUsername map[string]model.User
	upserted   *model.User
}

func (f *fakeUsers) UpsertExternal(ctx context.Context, username, firstName, role string) (model.User, error) {
	u := model.User{ID: 7, Username: username, FirstName: firstName, Role: role}
	f.upserted = &u
	return u, nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return model.User{}, errors.New("no rows")
	}
	return u, nil
}

type fakeBackups struct {
	byUser   map[uint64]model.SUAPTokenBackup
	upserted bool
}

func (f *fakeBackups) Upsert(ctx context.Context, userID uint64, suapToken, passwordHash string, expiresAt time.Time) error {
	f.upserted = true
	if f.byUser == nil {
		f.byUser = map[uint64]model.SUAPTokenBackup{}
	}
	f.byUser[userID] = model.SUAPTokenBackup{UserID: userID, SuapToken: suapToken, PasswordHash: passwordHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeBackups) GetByUserID(ctx context.Context, userID uint64) (model.SUAPTokenBackup, error) {
	b, ok := f.byUser[userID]
	if !ok {
		return model.SUAPTokenBackup{}, errors.New("no rows")
	}
	return b, nil
}

func newVerifier(p ProviderClient, u UserStore, b BackupStore) *Verifier {
	return &Verifier{
		Provider:   p,
		Users:      u,
		Backups:    b,
		BackupTTL:  2 * time.Hour,
		BcryptCost: 4, // min cost keeps the tests fast
		Logger:     zap.NewNop(),
	}
}

func transientErr() error {
	return &suap.Error{Kind: suap.KindConnection, Detail: "could not reach the identity provider"}
}

func TestVerifyPrimarySuccess(t *testing.T) {
	users := &fakeUsers{}
	backups := &fakeBackups{}
	v := newVerifier(&fakeProvider{info: suap.UserInfo{ID: 1, NomeUsual: "Ada L.", TipoVinculo: "servidor"}}, users, backups)

	id, err := v.Verify(context.Background(), "ada", "pw")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Role != model.RoleServidor {
		t.Fatalf("role = %q, want servidor", id.Role)
	}
	if users.upserted == nil || users.upserted.Role != model.RoleServidor {
		t.Fatal("local user row was not refreshed")
	}
	if !backups.upserted {
		t.Fatal("credential backup was not refreshed")
	}
	if !VerifyPassword(backups.byUser[id.UserID].PasswordHash, "pw") {
		t.Fatal("backup hash does not match the password used")
	}
}

func TestVerifyInvalidCredentialsNoFallback(t *testing.T) {
	hash, _ := HashPassword("pw", 4)
	users := &fakeUsers{byUsername: map[string]model.User{
		"ada": {ID: 7, Username: "ada", Role: model.RolePadrao},
	}}
	backups := &fakeBackups{byUser: map[uint64]model.SUAPTokenBackup{
		7: {UserID: 7, PasswordHash: hash, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	v := newVerifier(&fakeProvider{loginErr: &suap.Error{Kind: suap.KindInvalidCredentials, Detail: "invalid username or password"}}, users, backups)

	_, err := v.Verify(context.Background(), "ada", "pw")
	if err == nil {
		t.Fatal("rejected credentials must fail even with a valid backup")
	}
	if suap.KindOf(err) != suap.KindInvalidCredentials {
		t.Fatalf("kind = %v, want KindInvalidCredentials", suap.KindOf(err))
	}
}

func TestVerifyFallbackSuccess(t *testing.T) {
	hash, _ := HashPassword("pw", 4)
	users := &fakeUsers{byUsername: map[string]model.User{
		"ada": {ID: 7, Username: "ada", FirstName: "Ada L.", Role: model.RoleServidor},
	}}
	backups := &fakeBackups{byUser: map[uint64]model.SUAPTokenBackup{
		7: {UserID: 7, PasswordHash: hash, ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}}
	v := newVerifier(&fakeProvider{loginErr: transientErr()}, users, backups)

	id, err := v.Verify(context.Background(), "ada", "pw")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != 7 || id.Role != model.RoleServidor {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyFallbackWrongPasswordSurfacesOutage(t *testing.T) {
	hash, _ := HashPassword("right", 4)
	users := &fakeUsers{byUsername: map[string]model.User{
		"ada": {ID: 7, Username: "ada"},
	}}
	backups := &fakeBackups{byUser: map[uint64]model.SUAPTokenBackup{
		7: {UserID: 7, PasswordHash: hash, ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}}
	v := newVerifier(&fakeProvider{loginErr: transientErr()}, users, backups)

	_, err := v.Verify(context.Background(), "ada", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	// A wrong guess during an outage must look exactly like the outage.
	if suap.KindOf(err) != suap.KindConnection {
		t.Fatalf("kind = %v, want KindConnection", suap.KindOf(err))
	}
}

func TestVerifyFallbackExpiredBackup(t *testing.T) {
	hash, _ := HashPassword("pw", 4)
	users := &fakeUsers{byUsername: map[string]model.User{
		"ada": {ID: 7, Username: "ada"},
	}}
	backups := &fakeBackups{byUser: map[uint64]model.SUAPTokenBackup{
		7: {UserID: 7, PasswordHash: hash, ExpiresAt: time.Now().UTC().Add(-time.Minute)},
	}}
	v := newVerifier(&fakeProvider{loginErr: transientErr()}, users, backups)

	_, err := v.Verify(context.Background(), "ada", "pw")
	if err == nil {
		t.Fatal("expected error")
	}
	if suap.KindOf(err) != suap.KindConnection {
		t.Fatalf("kind = %v, want KindConnection", suap.KindOf(err))
	}
}

func TestVerifyFallbackNoBackup(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]model.User{
		"ada": {ID: 7, Username: "ada"},
	}}
	v := newVerifier(&fakeProvider{loginErr: transientErr()}, users, &fakeBackups{})

	_, err := v.Verify(context.Background(), "ada", "pw")
	if err == nil {
		t.Fatal("expected error")
	}
	if suap.KindOf(err) != suap.KindConnection {
		t.Fatalf("kind = %v, want KindConnection", suap.KindOf(err))
	}
}

func TestVerifyTransientUserInfoFallsBack(t *testing.T) {
	hash, _ := HashPassword("pw", 4)
	users := &fakeUsers{byUsername: map[string]model.User{
		"ada": {ID: 7, Username: "ada", Role: model.RolePadrao},
	}}
	backups := &fakeBackups{byUser: map[uint64]model.SUAPTokenBackup{
		7: {UserID: 7, PasswordHash: hash, ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}}
	v := newVerifier(&fakeProvider{infoErr: &suap.Error{Kind: suap.KindServer, Detail: "identity provider internal error"}}, users, backups)

	id, err := v.Verify(context.Background(), "ada", "pw")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != 7 {
		t.Fatalf("unexpected identity: %+v", id)
	}
}
