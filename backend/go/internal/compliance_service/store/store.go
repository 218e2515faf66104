package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 表示请求的实体不存在。
var ErrNotFound = errors.New("record not found")

// Store 封装了所有与合规数据相关的数据库操作。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

// notFound 将 gorm 的 ErrRecordNotFound 映射为 ErrNotFound。
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
