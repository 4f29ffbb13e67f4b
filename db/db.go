package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moxying/mox/logging"
)

// Store 基于 GORM + sqlite 的持久层。
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）sqlite 数据库并自动建表。
func Open(sqliteFile string, debug bool) (*Store, error) {
	if sqliteFile == "" {
		return nil, fmt.Errorf("sqlite_file is empty")
	}
	if dir := filepath.Dir(sqliteFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	gdb, err := gorm.Open(sqlite.Open(sqliteFile), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", sqliteFile, err)
	}
	if err := gdb.AutoMigrate(&GenImageTaskDB{}, &SDImageDB{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	logging.L().Info(context.Background(), "init orm done", "sqlite_file", sqliteFile)
	return &Store{db: gdb}, nil
}

// DB 暴露底层句柄（测试用）。
func (s *Store) DB() *gorm.DB { return s.db }
