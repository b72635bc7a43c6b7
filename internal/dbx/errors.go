package dbx

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from either supported driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return sqliteConstraint(err, "UNIQUE", sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// IsForeignKeyViolation reports whether err is a foreign key constraint
// failure from either supported driver.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}
	return sqliteConstraint(err, "FOREIGN KEY", sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
}

func sqliteConstraint(err error, text string, codes ...int) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	code := sqErr.Code()
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	// primary result code only, when extended codes are off
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), text)
}
