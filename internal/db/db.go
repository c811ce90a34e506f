package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide connection opened by Init.
var DB *gorm.DB

// Models lists every table owned by the application, in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Post{},
		&PostLike{},
		&Comment{},
		&PostStatistic{},
		&PostVisit{},
	}
}

// Init opens the sqlite database and runs AutoMigrate.
// An empty databasePath falls back to quillpost.db.
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "quillpost.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := Open(path, logger.Warn)
	if err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Open connects to dsn and migrates the schema without touching the global handle.
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, err
	}

	return gdb, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
