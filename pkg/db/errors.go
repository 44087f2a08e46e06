// pkg/db/errors.go
package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"tochcoin-wallet/internal/util"
)

// SQLSTATE codes we react to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// IsSerializationFailure reports whether err is a write conflict that postgres expects
// the client to retry.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
	}
	return false
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// IsConnectionError reports whether err means the database could not be reached.
func IsConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
	}
	return false
}

// Classify tags reachability failures with util.ErrStorageUnavailable and leaves
// everything else untouched.
func Classify(err error) error {
	if err == nil || errors.Is(err, util.ErrStorageUnavailable) {
		return err
	}
	if IsConnectionError(err) {
		return fmt.Errorf("%w: %w", util.ErrStorageUnavailable, err)
	}
	return err
}
