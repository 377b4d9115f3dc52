package db

import (
	"fmt"
	"path/filepath"

	glebarez "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite       = "sqlite"        // cgo (mattn)
	DriverSQLitePureGo = "sqlite-purego" // bez cgo (glebarez/modernc)
	DriverMySQL        = "mysql"
	DriverPostgres     = "postgres"
)

// Config – sekcja "database" w config.json
type Config struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"` // dla sqlite: ścieżka pliku; puste = <appDir>/pcm2feed.db
}

type Handle struct {
	DB     *gorm.DB
	Path   string // DSN / ścieżka – do logów
	Driver string
}

// OpenAt otwiera domyślną bazę sqlite w katalogu aplikacji
func OpenAt(dir string) (*Handle, error) {
	return Open(dir, Config{Driver: DriverSQLite})
}

// Open wybiera driver gorm według configa.
func Open(dir string, cfg Config) (*Handle, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	dsn := cfg.DSN

	var dial gorm.Dialector
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = filepath.Join(dir, "pcm2feed.db")
		}
		dial = sqlite.Open(dsn)
	case DriverSQLitePureGo:
		if dsn == "" {
			dsn = filepath.Join(dir, "pcm2feed.db")
		}
		dial = glebarez.Open(dsn)
	case DriverMySQL:
		dial = mysql.Open(dsn)
	case DriverPostgres:
		dial = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("nieznany driver bazy %q", driver)
	}

	gdb, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // logger.Info jeśli chcesz verbose SQL
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return &Handle{DB: gdb, Path: dsn, Driver: driver}, nil
}

// Close zamyka pulę połączeń pod gorm
func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
