package repo

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// OpenSqlite opens an SQLite database (file path or DSN) and migrates the schema.
// Used for local runs and unit tests.
func OpenSqlite(dsn string) (*gorm.DB, error) {
	if strings.Contains(dsn, "?") {
		dsn += "&" + sqlitePragmas
	} else {
		dsn += "?" + sqlitePragmas
	}
	db, err := gorm.Open(sqlite.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
