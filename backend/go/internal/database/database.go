// Package database 根据配置选择关系型数据库驱动，并负责表结构迁移。
package database

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/database/mysql"
	"SafetyCompliance/backend/go/internal/database/sqlite"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Open 按 databases.driver 打开数据库连接。
func Open(cfg *config.DatabaseConfigs) (*gorm.DB, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return sqlite.GetDB(&cfg.SQLite)
	case "mysql":
		return mysql.GetDB(&cfg.MySQL)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// HealthCheck 检查当前驱动的连接。
func HealthCheck(ctx context.Context, driver string) error {
	if driver == "mysql" {
		return mysql.HealthCheck(ctx)
	}
	return sqlite.HealthCheck(ctx)
}

// Close 关闭当前驱动的连接。
func Close(driver string) error {
	if driver == "mysql" {
		return mysql.Close()
	}
	return sqlite.Close()
}

// AutoMigrate 创建或更新所有表。
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.ComplianceFramework{},
		&models.FrameworkControl{},
		&models.Audit{},
		&models.AuditFinding{},
		&models.Risk{},
		&models.RiskMitigation{},
		&models.Policy{},
		&models.PolicyVersion{},
		&models.PolicyDistribution{},
		&models.Report{},
		&models.AgentTask{},
		&models.ToolExecution{},
	)
	if err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}
