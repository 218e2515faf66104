package models

import (
	"github.com/google/uuid"
)

// NewID 生成一个新的实体 ID。
func NewID() string {
	return uuid.NewString()
}

// ShortID 返回 ID 的前 8 位，用于文件名和列表展示。
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
