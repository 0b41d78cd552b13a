// Package repository defines error values that are reused across multiple
// repositories.  Sentinels let handlers distinguish failure scenarios
// without string matching.
package repository

import (
	"errors"
	"strings"
)

// ErrConflict is returned when an insert or update violates a uniqueness
// constraint, such as a duplicate department code. Handlers translate it
// into 409.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).  database/sql surfaces driver errors as strings.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
