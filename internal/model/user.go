package model

import "time"

// User represents an application user record as stored in the `users`
// table of the auth service.  PasswordHash is nullable: accounts created
// through the external provider have no local password until their first
// successful SUAP login refreshes the credential backup.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name (SUAP matrícula for external accounts).
//	Email        – contact address, may be empty for external accounts.
//	FirstName    – display name embedded into token claims.
//	PasswordHash – bcrypt hash for locally registered accounts (nullable).
//	Role         – role granted at last issuance (padrao, servidor, ...).
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Username     string
	Email        string
	FirstName    string
	PasswordHash *string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SUAPTokenBackup caches the artifacts of the last successful external
// login so the user can still authenticate while SUAP is unreachable.
// One row per user; refreshed on every successful primary verification;
// never consulted when the provider rejects the credentials outright.
type SUAPTokenBackup struct {
	ID           uint64
	UserID       uint64
	SuapToken    string // provider access token from the last successful login
	PasswordHash string // bcrypt hash of the password used on that login
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid reports whether the backup may still be used as a fallback.
func (b SUAPTokenBackup) Valid(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}

// Identity is the verified view of a user handed from the credential
// verifier to the session issuer.  It carries exactly the fields that end
// up in token claims.
type Identity struct {
	UserID    uint64
	Username  string
	Email     string
	FirstName string
	Role      string
}
