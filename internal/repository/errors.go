// Package repository implements data access over MySQL. Repositories expose
// plain methods bound to *sql.DB plus ...Tx variants that participate in a
// caller-owned transaction; services own the transaction boundary.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or is outside the
// caller's tenant. Handlers translate it into 404 or a domain error.
var ErrNotFound = errors.New("not found")

// mysqlDuplicateEntry is the server error number for a unique-constraint
// violation.
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a MySQL unique-constraint violation.
// The optimistic-create paths use this as the retry signal instead of
// matching on error text.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
