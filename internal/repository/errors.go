// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// inspecting driver errors. ErrNotFound covers rows that are absent or
// soft-deleted, while ErrDuplicate signals a unique index violation
// (an existing email, or a second active booking on the same day).
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist or has
// been soft-deleted.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update collides with a
// unique index.
var ErrDuplicate = errors.New("duplicate")

// ErrEmailExists is the user-table flavour of ErrDuplicate.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate recognises unique violations whether or not the dialector
// translated them.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
