package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func Open(url string) (db *sql.DB, err error) {
	// every pooled connection needs foreign keys on, not just the first
	if strings.Contains(url, "?") {
		url += "&_foreign_keys=on"
	} else {
		url += "?_foreign_keys=on"
	}

	db, err = sql.Open("sqlite3", url)
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = MigrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}
