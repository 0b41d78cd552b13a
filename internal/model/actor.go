package model

import "time"

// ActorUser is the persistence-service read model of an identity, kept in
// sync with the auth service through user_events.  It mirrors the
// `actor_users` table.  user_id values come from the auth store; the two
// stores are only eventually consistent.
type ActorUser struct {
	ID       uint64
	UserID   uint64
	Username string
	Role     string
}

// RoleProfile is a per-(user, role) marker row in `role_profiles`.  The
// existence of a row means "this user currently holds this role"; rows for
// roles the user no longer holds are retracted when a user_updated event
// arrives with a different role.
type RoleProfile struct {
	ID        uint64
	UserID    uint64
	Role      string
	CreatedAt time.Time
}
