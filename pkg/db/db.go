package db

import (
	"fmt"
	"sync/atomic"
	"time"

	glebarez "github.com/glebarez/sqlite"
	"github.com/tramitex/cotiza/internal/config"
	"gorm.io/gorm"
)

// New opens the application database and applies the pool settings from Config.
func New(cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Second)

	return conn, nil
}

// NewTest opens an in-memory sqlite database for tests. Each call gets its
// own database; cache=shared keeps pooled connections on the same one.
func NewTest() (*gorm.DB, error) {
	name := fmt.Sprintf("file:test%d?mode=memory&cache=shared", testDBSeq.Add(1))
	return gorm.Open(glebarez.Open(name), &gorm.Config{})
}

var testDBSeq atomic.Int64
