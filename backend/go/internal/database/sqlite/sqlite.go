package sqlite

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MemoryDSN 是内存数据库的连接串，主要用于测试。
const MemoryDSN = ":memory:"

var (
	dbInstance *gorm.DB
	once       sync.Once
	initErr    error
)

// Open 打开一个新的 SQLite 数据库连接，必要时创建其所在目录。
// 内存数据库只允许一个连接，否则每个连接会看到各自独立的库。
func Open(path string) (*gorm.DB, error) {
	if path != MemoryDSN {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建数据库目录失败: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("无法打开 SQLite 数据库 '%s': %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("无法获取底层 SQL DB 实例: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// GetDB 使用单例模式初始化并返回 SQLite 数据库实例。
func GetDB(cfg *config.SQLiteConfig) (*gorm.DB, error) {
	once.Do(func() {
		db, err := Open(cfg.Path)
		if err != nil {
			initErr = err
			return
		}
		logger.New("sqlite", "", "").WithPayload(map[string]interface{}{"path": cfg.Path}).Info("Opened SQLite database")
		dbInstance = db
	})
	return dbInstance, initErr
}

// Close 关闭单例数据库连接。
func Close() error {
	if dbInstance != nil {
		sqlDB, err := dbInstance.DB()
		if err != nil {
			return fmt.Errorf("获取底层 SQL DB 实例失败: %w", err)
		}
		return sqlDB.Close()
	}
	return nil
}

// HealthCheck 检查数据库连接的健康状况。
func HealthCheck(ctx context.Context) error {
	if dbInstance == nil {
		return fmt.Errorf("数据库连接未初始化")
	}
	sqlDB, err := dbInstance.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
